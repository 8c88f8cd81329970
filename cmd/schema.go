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

	"github.com/penny-vault/finmetrics/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create any missing tables and indexes",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := log.Logger.WithContext(context.Background())
		conf := loadConfig()

		myLibrary, err := library.Connect(ctx, conf.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		if err := myLibrary.EnsureSchema(ctx); err != nil {
			log.Error().Err(err).Msg("schema migration failed")
			return
		}

		version, err := myLibrary.SchemaVersion()
		if err != nil {
			log.Error().Err(err).Msg("could not read schema version")
			return
		}

		fmt.Printf("%s schema at version %d (%s)\n", myLibrary.Dialect.Name, version, conf.Database.Redacted())
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
