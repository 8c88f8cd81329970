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

	"github.com/penny-vault/finmetrics/data"
	"github.com/rs/zerolog"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// target is one place a record is written to. Every record goes to its own
// table and, when it carries metrics or text, to the consolidated tables.
type target interface {
	name() string
	save(ctx context.Context, tx execer, rec data.Record) error
}

type tableTarget struct {
	dialect Dialect
}

func (t tableTarget) name() string { return "table" }

func (t tableTarget) save(ctx context.Context, tx execer, rec data.Record) error {
	dataType := rec.DataType()
	return upsert(ctx, tx, t.dialect, dataType.Table, dataType.Key, data.RowOf(rec))
}

type consolidatedTarget struct {
	dialect Dialect
}

func (t consolidatedTarget) name() string { return "consolidated" }

func (t consolidatedTarget) save(ctx context.Context, tx execer, rec data.Record) error {
	switch typed := rec.(type) {
	case data.MetricRecord:
		row, err := typed.MetricRow()
		if err != nil {
			return err
		}
		return upsert(ctx, tx, t.dialect, data.FinancialMetricsTable, data.FinancialMetricsKey, data.RowOf(row))
	case data.TextRecord:
		row, err := typed.TextRow()
		if err != nil {
			return err
		}
		return upsert(ctx, tx, t.dialect, data.TextMetricsTable, data.TextMetricsKey, data.RowOf(row))
	}

	return nil
}

func upsert(ctx context.Context, tx execer, dialect Dialect, table string, key []string, row data.Row) error {
	if _, err := tx.ExecContext(ctx, dialect.Upsert(table, row.Columns, key), row.Values...); err != nil {
		return fmt.Errorf("%s: %w", table, err)
	}

	return nil
}

// LoadResult counts the outcome of a Load call
type LoadResult struct {
	Loaded int
	Failed int
	Errors []error
}

// Add merges other into the result
func (result *LoadResult) Add(other LoadResult) {
	result.Loaded += other.Loaded
	result.Failed += other.Failed
	result.Errors = append(result.Errors, other.Errors...)
}

// Load upserts every record into its table and the consolidated tables.
// Each record is committed in its own transaction; a record that fails is
// rolled back, counted and logged while the rest of the batch continues.
func (myLibrary *Library) Load(ctx context.Context, records []data.Record) LoadResult {
	result := LoadResult{}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			result.Failed += 1
			result.Errors = append(result.Errors, fmt.Errorf("%w: %w", ErrLoad, err))
			continue
		}

		if err := myLibrary.save(ctx, rec); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("DataType", rec.DataType().Name).Msg("failed to load record")
			result.Failed += 1
			result.Errors = append(result.Errors, err)
			continue
		}

		result.Loaded += 1
	}

	return result
}

func (myLibrary *Library) save(ctx context.Context, rec data.Record) (err error) {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}

	tx, err := myLibrary.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", ErrLoad, err)
	}

	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			zerolog.Ctx(ctx).Error().Err(rbErr).Msg("could not rollback transaction")
		}
	}()

	for _, dest := range myLibrary.targets {
		if err = dest.save(ctx, tx, rec); err != nil {
			return fmt.Errorf("%w: %s target: %w", ErrLoad, dest.name(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrLoad, err)
	}

	return nil
}
