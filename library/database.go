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
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/penny-vault/finmetrics/config"
	"github.com/penny-vault/finmetrics/db"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var (
	ErrConnect = errors.New("could not connect to database")
	ErrSchema  = errors.New("could not create database schema")
	ErrLoad    = errors.New("could not load record")
)

// Library is the relational store that holds the financial data. SQLite and
// PostgreSQL are both reached through database/sql so the loader and the
// read queries are shared; Dialect covers the differences.
type Library struct {
	DB      *sql.DB
	Dialect Dialect

	conf    config.Database
	pool    *pgxpool.Pool
	targets []target
}

// Connect opens the database described by conf. A missing PostgreSQL
// database is created on the fly.
func Connect(ctx context.Context, conf config.Database) (*Library, error) {
	myLibrary := &Library{
		conf: conf,
	}

	switch conf.Type {
	case config.SQLite:
		if err := myLibrary.openSQLite(ctx); err != nil {
			return nil, err
		}
	case config.Postgres:
		if err := myLibrary.openPostgres(ctx); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown database type %q", ErrConnect, conf.Type)
	}

	myLibrary.targets = []target{
		tableTarget{dialect: myLibrary.Dialect},
		consolidatedTarget{dialect: myLibrary.Dialect},
	}

	return myLibrary, nil
}

func (myLibrary *Library) openSQLite(ctx context.Context) error {
	if dir := filepath.Dir(myLibrary.conf.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrConnect, err)
		}
	}

	conn, err := sql.Open("sqlite", myLibrary.conf.DSN())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	// sqlite allows a single writer; serialize access through one connection
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	myLibrary.DB = conn
	myLibrary.Dialect = SQLiteDialect

	return nil
}

func (myLibrary *Library) openPostgres(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, myLibrary.conf.DSN())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	err = pool.Ping(ctx)
	if isMissingDatabase(err) {
		log.Info().Str("Database", myLibrary.conf.DatabaseName()).Msg("database does not exist; creating it")
		if err = createDatabase(ctx, myLibrary.conf); err == nil {
			err = pool.Ping(ctx)
		}
	}

	if err != nil {
		pool.Close()
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	myLibrary.pool = pool
	myLibrary.DB = stdlib.OpenDBFromPool(pool)
	myLibrary.Dialect = PostgresDialect

	return nil
}

func isMissingDatabase(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.InvalidCatalogName
	}

	return false
}

func createDatabase(ctx context.Context, conf config.Database) error {
	conn, err := pgx.Connect(ctx, conf.MaintenanceDSN())
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	name := pgx.Identifier{conf.DatabaseName()}.Sanitize()
	_, err = conn.Exec(ctx, "CREATE DATABASE "+name)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.DuplicateDatabase {
		return nil
	}

	return err
}

// Close the database handle and, for postgres, the underlying pool
func (myLibrary *Library) Close() {
	if myLibrary.DB != nil {
		if err := myLibrary.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing database")
		}
	}

	if myLibrary.pool != nil {
		myLibrary.pool.Close()
	}
}

// Ping checks that the database is reachable
func (myLibrary *Library) Ping(ctx context.Context) error {
	return myLibrary.DB.PingContext(ctx)
}

// Config returns the database configuration the library was opened with
func (myLibrary *Library) Config() config.Database {
	return myLibrary.conf
}

// EnsureSchema creates every table and index that does not exist yet.
// Existing tables are left untouched, so it is safe to call on every run.
func (myLibrary *Library) EnsureSchema(ctx context.Context) error {
	if err := myLibrary.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}

	if err := db.Migrate(myLibrary.conf.MigrationURL(), myLibrary.Dialect.Name); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}

	// the recorded version says nothing about tables removed since
	if err := db.Apply(ctx, myLibrary.DB, myLibrary.Dialect.Name); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}

	return nil
}

// SchemaVersion returns the applied migration version
func (myLibrary *Library) SchemaVersion() (uint, error) {
	version, dirty, err := db.Version(myLibrary.conf.MigrationURL(), myLibrary.Dialect.Name)
	if err != nil {
		return 0, err
	}

	if dirty {
		return version, fmt.Errorf("%w: schema version %d is dirty", ErrSchema, version)
	}

	return version, nil
}
