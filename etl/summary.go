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
package etl

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/finmetrics/library"
)

// DatasetResult is the outcome of one dataset for one symbol
type DatasetResult struct {
	Dataset     string
	Variant     string
	Fetched     int
	Loaded      int
	LoadErrors  int
	CSVPath     string
	SnapshotErr error
	Err         error
}

// Name labels the result, e.g. income-statement/quarter
func (result *DatasetResult) Name() string {
	if result.Variant == "" {
		return result.Dataset
	}
	return result.Dataset + "/" + result.Variant
}

// SymbolResult collects the dataset results of one symbol
type SymbolResult struct {
	Symbol   string
	IsPeer   bool
	Datasets []*DatasetResult
	Peers    []string
}

// Failed reports whether every dataset of the symbol failed
func (result *SymbolResult) Failed() bool {
	if len(result.Datasets) == 0 {
		return false
	}

	for _, dataset := range result.Datasets {
		if dataset.Err == nil {
			return false
		}
	}

	return true
}

func (result *SymbolResult) NumRecords() int {
	total := 0
	for _, dataset := range result.Datasets {
		total += dataset.Loaded
	}
	return total
}

// Summary describes a finished run
type Summary struct {
	RunID      uuid.UUID
	Mode       Mode
	StartedAt  time.Time
	FinishedAt time.Time
	Requested  []string
	Symbols    []*SymbolResult
}

func (summary *Summary) Duration() time.Duration {
	return summary.FinishedAt.Sub(summary.StartedAt)
}

// NumFailed counts requested symbols that failed; peers fetched in
// peers-with-data mode are not counted
func (summary *Summary) NumFailed() int {
	failed := 0
	for _, result := range summary.Symbols {
		if !result.IsPeer && result.Failed() {
			failed++
		}
	}
	return failed
}

// AllFailed reports whether every requested symbol failed
func (summary *Summary) AllFailed() bool {
	return len(summary.Requested) > 0 && summary.NumFailed() == len(summary.Requested)
}

func (summary *Summary) NumRecords() int {
	total := 0
	for _, result := range summary.Symbols {
		total += result.NumRecords()
	}
	return total
}

func (summary *Summary) NumRecordErrors() int {
	total := 0
	for _, result := range summary.Symbols {
		for _, dataset := range result.Datasets {
			total += dataset.LoadErrors
		}
	}
	return total
}

// CSVPaths lists every snapshot written during the run
func (summary *Summary) CSVPaths() []string {
	paths := make([]string, 0)
	for _, result := range summary.Symbols {
		for _, dataset := range result.Datasets {
			if dataset.CSVPath != "" {
				paths = append(paths, dataset.CSVPath)
			}
		}
	}

	sort.Strings(paths)
	return paths
}

// Run converts the summary to its etl_runs row
func (summary *Summary) Run() *library.Run {
	return &library.Run{
		ID:              summary.RunID,
		Mode:            string(summary.Mode),
		Symbols:         strings.Join(summary.Requested, ","),
		StartedAt:       summary.StartedAt,
		FinishedAt:      summary.FinishedAt,
		NumSymbols:      len(summary.Requested),
		NumFailed:       summary.NumFailed(),
		NumRecords:      summary.NumRecords(),
		NumRecordErrors: summary.NumRecordErrors(),
	}
}
