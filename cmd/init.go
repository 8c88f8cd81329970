// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/finmetrics/config"
	"github.com/penny-vault/finmetrics/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather configuration, write it to the config file, and create the schema",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := log.Logger.WithContext(context.Background())

		conf := &config.Config{}
		if err := viper.Unmarshal(conf); err != nil {
			log.Fatal().Err(err).Msg("could not read existing configuration")
		}

		port := strconv.Itoa(conf.Database.Port)

		form := huh.NewForm(
			// FMP access
			huh.NewGroup(
				huh.NewInput().
					Title("Financial Modeling Prep API key:").
					Password(true).
					Value(&conf.FMP.APIKey).
					Validate(func(key string) error {
						return config.FMP{APIKey: key}.Validate()
					}),

				huh.NewSelect[string]().
					Title("Statement period:").
					Options(huh.NewOptions(config.PeriodBoth, config.PeriodAnnual, config.PeriodQuarter)...).
					Value(&conf.FMP.Period),
			),

			// Database selection
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Which database should store the data?").
					Options(
						huh.NewOption("SQLite (single file)", config.SQLite),
						huh.NewOption("PostgreSQL", config.Postgres),
					).
					Value(&conf.Database.Type),
				huh.NewInput().
					Title("Directory for CSV snapshots:").
					Value(&conf.OutputDir),
			),
		)

		if err := form.Run(); err != nil {
			log.Fatal().Err(err).Msg("error gathering configuration")
		}

		if err := databaseForm(conf, &port).Run(); err != nil {
			log.Fatal().Err(err).Msg("error gathering database settings")
		}

		conf.Database.Port, _ = strconv.Atoi(port)

		if conf.Database.Type == config.Postgres {
			// the fields collected above replace any configured url
			conf.Database.URL = ""
			if _, err := pgx.ParseConfig(conf.Database.DSN()); err != nil {
				log.Fatal().Err(err).Msg("postgres settings do not form a valid connection string")
			}
		}

		if err := conf.Validate(); err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}

		fn, err := writeConfig(conf)
		if err != nil {
			log.Fatal().Err(err).Msg("could not save configuration")
		}

		log.Info().Str("ConfigFN", fn).Msg("saved configuration")

		log.Info().Str("Database", conf.Database.Redacted()).Msg("creating database tables")

		myLibrary, err := library.Connect(ctx, conf.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		if err := myLibrary.EnsureSchema(ctx); err != nil {
			myLibrary.Close()
			log.Fatal().Err(err).Msg("error running database migration")
		}

		myLibrary.Close()
		log.Info().Msg("database tables created")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// databaseForm asks for the settings of the selected database type
func databaseForm(conf *config.Config, port *string) *huh.Form {
	if conf.Database.Type == config.SQLite {
		return huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("SQLite database file:").
					Value(&conf.Database.Path),
			),
		)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Database name (created if it does not exist):").
				Value(&conf.Database.Name),
			huh.NewInput().
				Title("Host:").
				Value(&conf.Database.Host),
			huh.NewInput().
				Title("Port:").
				Value(port).
				Validate(func(val string) error {
					_, err := strconv.Atoi(val)
					return err
				}),
			huh.NewInput().
				Title("User:").
				Value(&conf.Database.User),
			huh.NewInput().
				Title("Password:").
				Password(true).
				Value(&conf.Database.Password),
		),
	)
}

// writeConfig saves conf to the active config file, or $HOME/.finmetrics.toml
// when none is in use
func writeConfig(conf *config.Config) (string, error) {
	fn := viper.ConfigFileUsed()
	if fn == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		fn = filepath.Join(home, ".finmetrics.toml")
	}

	if ext := filepath.Ext(fn); ext != ".toml" {
		return "", fmt.Errorf("%w: config file %s is not toml", config.ErrInvalid, fn)
	}

	out, err := toml.Marshal(conf)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(fn, out, 0o600); err != nil {
		return "", err
	}

	return fn, nil
}
