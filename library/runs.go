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
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
	"github.com/penny-vault/finmetrics/data"
)

const runsTable = "etl_runs"

// Run records one invocation of the ETL
type Run struct {
	ID              uuid.UUID `db:"id"`
	Mode            string    `db:"mode"`
	Symbols         string    `db:"symbols"`
	StartedAt       time.Time `db:"started_at"`
	FinishedAt      time.Time `db:"finished_at"`
	NumSymbols      int       `db:"num_symbols"`
	NumFailed       int       `db:"num_failed"`
	NumRecords      int       `db:"num_records"`
	NumRecordErrors int       `db:"num_record_errors"`
}

// SaveRun stores run in etl_runs, replacing a previous save of the same run
func (myLibrary *Library) SaveRun(ctx context.Context, run *Run) error {
	stored := *run
	stored.StartedAt = run.StartedAt.UTC()
	stored.FinishedAt = run.FinishedAt.UTC()

	return upsert(ctx, myLibrary.DB, myLibrary.Dialect, runsTable, []string{"id"}, data.RowOf(&stored))
}

// RecentRuns returns up to limit runs, most recent first
func (myLibrary *Library) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	q := myLibrary.Dialect.newQuery(`SELECT id, mode, symbols, started_at, finished_at, num_symbols,
num_failed, num_records, num_record_errors FROM etl_runs`).
		bind(" ORDER BY finished_at DESC LIMIT ?", limit)

	runs := make([]*Run, 0)
	err := sqlscan.Select(ctx, myLibrary.DB, &runs, q.String(), q.args...)
	return runs, err
}

// LastUpdated returns when the most recent run finished; the zero time
// when nothing has run yet
func (myLibrary *Library) LastUpdated(ctx context.Context) (time.Time, error) {
	runs, err := myLibrary.RecentRuns(ctx, 1)
	if err != nil || len(runs) == 0 {
		return time.Time{}, err
	}

	return runs[0].FinishedAt, nil
}
