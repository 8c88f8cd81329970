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
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*
var migrationFS embed.FS

// Migrate brings the schema of the database at databaseURL up to date. The
// dialect selects the migration set, either "sqlite" or "postgres". A
// database that is already current is not an error.
func Migrate(databaseURL string, dialect string) (err error) {
	migrationDir, err := iofs.New(migrationFS, path.Join("migrations", dialect))
	if err != nil {
		return fmt.Errorf("no migrations for dialect %q: %w", dialect, err)
	}

	migration, err := migrate.NewWithSourceInstance("iofs", migrationDir, databaseURL)
	if err != nil {
		return err
	}

	defer func() {
		srcErr, dbErr := migration.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	if err = migration.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// Execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Apply executes every up migration of dialect directly against conn. The
// up migrations only contain IF NOT EXISTS statements, so Apply creates
// tables and indexes that are missing, e.g. dropped by hand after the
// migration version was recorded, and leaves existing ones untouched.
func Apply(ctx context.Context, conn Execer, dialect string) error {
	files, err := fs.Glob(migrationFS, path.Join("migrations", dialect, "*.up.sql"))
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}

	sort.Strings(files)
	for _, fn := range files {
		contents, err := migrationFS.ReadFile(fn)
		if err != nil {
			return err
		}

		for _, stmt := range strings.Split(string(contents), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}

			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%s: %w", path.Base(fn), err)
			}
		}
	}

	return nil
}

// Version reports the schema version currently applied
func Version(databaseURL string, dialect string) (uint, bool, error) {
	migrationDir, err := iofs.New(migrationFS, path.Join("migrations", dialect))
	if err != nil {
		return 0, false, err
	}

	migration, err := migrate.NewWithSourceInstance("iofs", migrationDir, databaseURL)
	if err != nil {
		return 0, false, err
	}
	defer migration.Close()

	version, dirty, err := migration.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}

	return version, dirty, err
}
