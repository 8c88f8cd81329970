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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/penny-vault/finmetrics/data"
	"github.com/penny-vault/finmetrics/pkginfo"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Tables lists every data table in the library
func Tables() []string {
	tables := make([]string, 0, len(data.DataTypes)+2)
	for _, dataType := range data.DataTypes {
		tables = append(tables, dataType.Table)
	}

	sort.Strings(tables)
	return append(tables, data.FinancialMetricsTable, data.TextMetricsTable)
}

// TableCounts returns the number of rows in each data table
func (myLibrary *Library) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range Tables() {
		count := 0
		if err := myLibrary.DB.QueryRowContext(ctx, "SELECT count(*) FROM "+quote(table)).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = count
	}

	return counts, nil
}

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString(fmt.Sprintf("# %s\n", pkginfo.Name))
	builder.WriteString("## Details\n\n")
	builder.WriteString(fmt.Sprintf("Database: %s (%s)\n\n", myLibrary.conf.Redacted(), myLibrary.Dialect.Name))

	companies, err := myLibrary.Companies(ctx)
	if err != nil {
		return "", err
	}

	counts, err := myLibrary.TableCounts(ctx)
	if err != nil {
		return "", err
	}

	totalRecords := 0
	for _, count := range counts {
		totalRecords += count
	}

	builder.WriteString(p.Sprintf("  * Companies Tracked: %d\n", len(companies)))
	builder.WriteString(p.Sprintf("  * Total Records: %d\n\n", totalRecords))

	// Last updated time
	lastUpdated, err := myLibrary.LastUpdated(ctx)
	if err != nil {
		return "", err
	}

	if lastUpdated.Equal(time.Time{}) {
		builder.WriteString("Last Updated: Never\n\n")
	} else {
		age := timeago.English.Format(lastUpdated)
		builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, lastUpdated.Local().Format("01/02/2006")))
	}

	builder.WriteString("## Tables\n\n")
	for _, table := range Tables() {
		builder.WriteString(p.Sprintf("  * %s: %d\n", table, counts[table]))
	}

	builder.WriteString("\n## Recent Runs\n\n")

	runs, err := myLibrary.RecentRuns(ctx, 5)
	if err != nil {
		return "", err
	}

	if len(runs) == 0 {
		builder.WriteString("No runs recorded\n")
	}

	for _, run := range runs {
		builder.WriteString(p.Sprintf("  * %s %s [%s] %d symbols, %d failed, %d records (%s)\n",
			run.FinishedAt.Local().Format("01/02/2006 15:04"), run.Mode, run.ID.String()[:6],
			run.NumSymbols, run.NumFailed, run.NumRecords, timeago.English.Format(run.FinishedAt)))
	}

	return builder.String(), nil
}
