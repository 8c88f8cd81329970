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
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrInvalid       = errors.New("invalid configuration")
	ErrMissingAPIKey = errors.New("fmp api key is not configured")
)

const (
	SQLite   = "sqlite"
	Postgres = "postgres"

	PeriodAnnual  = "annual"
	PeriodQuarter = "quarter"
	PeriodBoth    = "both"
)

// DefaultSymbols is used when no symbols are given on the command line or in
// the config file
var DefaultSymbols = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "TSLA", "JPM", "V", "JNJ"}

type Config struct {
	FMP          FMP          `mapstructure:"fmp" toml:"fmp"`
	Database     Database     `mapstructure:"db" toml:"db"`
	OutputDir    string       `mapstructure:"output_dir" toml:"output_dir"`
	Symbols      []string     `mapstructure:"symbols" toml:"symbols"`
	Log          Log          `mapstructure:"log" toml:"log"`
	Server       Server       `mapstructure:"server" toml:"server"`
	Healthchecks Healthchecks `mapstructure:"healthchecks" toml:"healthchecks"`
	Backblaze    Backblaze    `mapstructure:"backblaze" toml:"backblaze"`
}

type FMP struct {
	APIKey    string        `mapstructure:"api_key" toml:"api_key"`
	BaseURL   string        `mapstructure:"base_url" toml:"base_url"`
	Period    string        `mapstructure:"period" toml:"period"`
	Limit     int           `mapstructure:"limit" toml:"limit"`
	RateLimit int           `mapstructure:"rate_limit" toml:"rate_limit"`

	// TranscriptQuarters is how many of the most recent calendar quarters
	// of earnings call transcripts are requested per symbol
	TranscriptQuarters int `mapstructure:"transcript_quarters" toml:"transcript_quarters"`
	Timeout   time.Duration `mapstructure:"timeout" toml:"timeout"`
}

type Database struct {
	Type     string `mapstructure:"type" toml:"type"`
	Name     string `mapstructure:"name" toml:"name"`
	Path     string `mapstructure:"path" toml:"path,omitempty"`
	Host     string `mapstructure:"host" toml:"host,omitempty"`
	Port     int    `mapstructure:"port" toml:"port,omitempty"`
	User     string `mapstructure:"user" toml:"user,omitempty"`
	Password string `mapstructure:"password" toml:"password,omitempty"`
	SSLMode  string `mapstructure:"sslmode" toml:"sslmode,omitempty"`
	URL      string `mapstructure:"url" toml:"url,omitempty"`
}

type Log struct {
	Level string `mapstructure:"level" toml:"level"`
}

type Server struct {
	Addr string `mapstructure:"addr" toml:"addr"`
}

type Healthchecks struct {
	PingURL string `mapstructure:"ping_url" toml:"ping_url,omitempty"`
	CheckID string `mapstructure:"check_id" toml:"check_id,omitempty"`
}

type Backblaze struct {
	ApplicationID  string `mapstructure:"application_id" toml:"application_id,omitempty"`
	ApplicationKey string `mapstructure:"application_key" toml:"application_key,omitempty"`
	Bucket         string `mapstructure:"bucket" toml:"bucket,omitempty"`
}

// SetDefaults registers every configuration key with viper. Keys must be
// known to viper for AutomaticEnv to pick them up during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("fmp.api_key", "")
	v.SetDefault("fmp.base_url", "https://financialmodelingprep.com/stable")
	v.SetDefault("fmp.period", PeriodBoth)
	v.SetDefault("fmp.limit", 5)
	v.SetDefault("fmp.rate_limit", 300)
	v.SetDefault("fmp.transcript_quarters", 4)
	v.SetDefault("fmp.timeout", 30*time.Second)

	v.SetDefault("db.type", SQLite)
	v.SetDefault("db.name", "finmetrics")
	v.SetDefault("db.path", filepath.Join("financial_data", "financial_data.db"))
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.url", "")

	v.SetDefault("output_dir", "financial_data")
	v.SetDefault("symbols", DefaultSymbols)
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", ":8000")

	v.SetDefault("healthchecks.ping_url", "https://hc-ping.com")
	v.SetDefault("healthchecks.check_id", "")

	v.SetDefault("backblaze.application_id", "")
	v.SetDefault("backblaze.application_key", "")
	v.SetDefault("backblaze.bucket", "")
}

// Load builds a Config from the viper instance and validates it
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	conf.normalize()

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (conf *Config) normalize() {
	conf.Database.Type = strings.ToLower(strings.TrimSpace(conf.Database.Type))
	conf.FMP.Period = strings.ToLower(strings.TrimSpace(conf.FMP.Period))
	conf.FMP.BaseURL = strings.TrimRight(conf.FMP.BaseURL, "/")

	// env values arrive as a single comma separated string
	symbols := make([]string, 0, len(conf.Symbols))
	for _, elem := range conf.Symbols {
		for _, sym := range strings.Split(elem, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				symbols = append(symbols, sym)
			}
		}
	}
	conf.Symbols = symbols
}

// Validate checks the settings every command depends on
func (conf *Config) Validate() error {
	switch conf.Database.Type {
	case SQLite:
		if conf.Database.Path == "" {
			return fmt.Errorf("%w: db.path is required for sqlite", ErrInvalid)
		}
	case Postgres:
		if conf.Database.URL == "" && conf.Database.Name == "" {
			return fmt.Errorf("%w: db.name is required for postgres", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown db.type %q", ErrInvalid, conf.Database.Type)
	}

	switch conf.FMP.Period {
	case PeriodAnnual, PeriodQuarter, PeriodBoth:
	default:
		return fmt.Errorf("%w: fmp.period must be %q, %q or %q, got %q", ErrInvalid, PeriodAnnual, PeriodQuarter, PeriodBoth, conf.FMP.Period)
	}

	if conf.FMP.TranscriptQuarters < 0 {
		return fmt.Errorf("%w: fmp.transcript_quarters must not be negative", ErrInvalid)
	}

	if conf.FMP.Limit <= 0 {
		return fmt.Errorf("%w: fmp.limit must be positive", ErrInvalid)
	}

	if conf.FMP.Timeout <= 0 {
		return fmt.Errorf("%w: fmp.timeout must be positive", ErrInvalid)
	}

	return nil
}

// Validate checks that the FMP API can be called
func (fmp FMP) Validate() error {
	if strings.TrimSpace(fmp.APIKey) == "" {
		return ErrMissingAPIKey
	}

	return nil
}

// Periods lists the reporting periods requested from period aware endpoints
func (fmp FMP) Periods() []string {
	switch fmp.Period {
	case PeriodQuarter:
		return []string{PeriodQuarter}
	case PeriodBoth:
		return []string{PeriodAnnual, PeriodQuarter}
	default:
		return []string{PeriodAnnual}
	}
}

// DSN returns the connection string handed to the database driver
func (db Database) DSN() string {
	if db.Type == SQLite {
		return db.Path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	if db.URL != "" {
		return db.URL
	}

	return db.postgresURL(db.Name).String()
}

// MaintenanceDSN points at the default postgres database of the same server;
// it is used to create the configured database when it does not exist yet
func (db Database) MaintenanceDSN() string {
	if db.URL != "" {
		u, err := url.Parse(db.URL)
		if err != nil {
			return db.URL
		}
		u.Path = "/postgres"
		return u.String()
	}

	return db.postgresURL("postgres").String()
}

// DatabaseName returns the postgres database the DSN refers to
func (db Database) DatabaseName() string {
	if db.URL != "" {
		if u, err := url.Parse(db.URL); err == nil {
			return strings.TrimPrefix(u.Path, "/")
		}
	}

	return db.Name
}

// MigrationURL returns the golang-migrate URL for the database
func (db Database) MigrationURL() string {
	if db.Type == SQLite {
		return "sqlite://" + filepath.ToSlash(db.Path)
	}

	dsn := db.DSN()
	if _, rest, ok := strings.Cut(dsn, "://"); ok {
		return "pgx5://" + rest
	}

	return dsn
}

// Redacted returns a description of the database that is safe to print
func (db Database) Redacted() string {
	if db.Type == SQLite {
		return db.Path
	}

	if db.URL != "" {
		if u, err := url.Parse(db.URL); err == nil {
			return u.Redacted()
		}
		return "postgres"
	}

	return db.postgresURL(db.Name).Redacted()
}

func (db Database) postgresURL(name string) *url.URL {
	u := &url.URL{
		Scheme: "postgres",
		Host:   db.Host,
		Path:   "/" + name,
	}

	if db.Port != 0 {
		u.Host = db.Host + ":" + strconv.Itoa(db.Port)
	}

	if db.User != "" {
		if db.Password != "" {
			u.User = url.UserPassword(db.User, db.Password)
		} else {
			u.User = url.User(db.User)
		}
	}

	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{db.SSLMode}}.Encode()
	}

	return u
}
