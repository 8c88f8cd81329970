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
	"context"
	"fmt"
	"sort"

	"github.com/penny-vault/finmetrics/data"
	"github.com/penny-vault/finmetrics/fmp"
)

// Dataset is one upstream endpoint and the data type its records map to
type Dataset struct {
	Name     string
	DataType *data.DataType
	Endpoint string

	// Variants lists the requests made per symbol, e.g. one per period.
	// A dataset fetched with a single request has the one variant "".
	Variants func(client *fmp.Client) []string

	// Fetch retrieves every record of one variant of the dataset for symbol
	Fetch func(ctx context.Context, client *fmp.Client, symbol, variant string) (*data.Batch, error)
}

func singleVariant(*fmp.Client) []string { return []string{""} }

func newBatch[T data.Record](dataType *data.DataType, symbol, variant string, records []T, err error) (*data.Batch, error) {
	if err != nil {
		return nil, err
	}

	batch := data.NewBatch(dataType, symbol, records)
	batch.Variant = variant
	return batch, nil
}

func newDataset[T data.Record](key, endpoint string, fetch func(*fmp.Client, context.Context, string) ([]T, error)) *Dataset {
	dataType := data.DataTypes[key]
	return &Dataset{
		Name:     key,
		DataType: dataType,
		Endpoint: endpoint,
		Variants: singleVariant,
		Fetch: func(ctx context.Context, client *fmp.Client, symbol, variant string) (*data.Batch, error) {
			records, err := fetch(client, ctx, symbol)
			return newBatch(dataType, symbol, variant, records, err)
		},
	}
}

// newPeriodDataset fetches once per configured reporting period
func newPeriodDataset[T data.Record](key, endpoint string, fetch func(*fmp.Client, context.Context, string, string) ([]T, error)) *Dataset {
	dataType := data.DataTypes[key]
	return &Dataset{
		Name:     key,
		DataType: dataType,
		Endpoint: endpoint,
		Variants: (*fmp.Client).Periods,
		Fetch: func(ctx context.Context, client *fmp.Client, symbol, period string) (*data.Batch, error) {
			records, err := fetch(client, ctx, symbol, period)
			return newBatch(dataType, symbol, period, records, err)
		},
	}
}

// newQuarterDataset fetches once per recent calendar quarter; variants are
// formatted like 2024Q3
func newQuarterDataset[T data.Record](key, endpoint string, fetch func(*fmp.Client, context.Context, string, fmp.Quarter) ([]T, error)) *Dataset {
	dataType := data.DataTypes[key]
	return &Dataset{
		Name:     key,
		DataType: dataType,
		Endpoint: endpoint,
		Variants: func(client *fmp.Client) []string {
			quarters := client.TranscriptQuarters()
			variants := make([]string, len(quarters))
			for idx, quarter := range quarters {
				variants[idx] = quarter.String()
			}
			return variants
		},
		Fetch: func(ctx context.Context, client *fmp.Client, symbol, variant string) (*data.Batch, error) {
			quarter, err := fmp.ParseQuarter(variant)
			if err != nil {
				return nil, err
			}

			records, err := fetch(client, ctx, symbol, quarter)
			return newBatch(dataType, symbol, variant, records, err)
		},
	}
}

var Datasets = map[string]*Dataset{
	data.IncomeStatementKey:  newPeriodDataset(data.IncomeStatementKey, fmp.IncomeStatementPath, (*fmp.Client).IncomeStatements),
	data.BalanceSheetKey:     newPeriodDataset(data.BalanceSheetKey, fmp.BalanceSheetPath, (*fmp.Client).BalanceSheets),
	data.CashFlowKey:         newPeriodDataset(data.CashFlowKey, fmp.CashFlowPath, (*fmp.Client).CashFlowStatements),
	data.RatiosKey:           newPeriodDataset(data.RatiosKey, fmp.RatiosPath, (*fmp.Client).Ratios),
	data.AnalystEstimatesKey: newPeriodDataset(data.AnalystEstimatesKey, fmp.AnalystEstimatesPath, (*fmp.Client).AnalystEstimates),
	data.PressReleasesKey:    newDataset(data.PressReleasesKey, fmp.PressReleasesPath, (*fmp.Client).PressReleases),
	data.TranscriptsKey:      newQuarterDataset(data.TranscriptsKey, fmp.TranscriptPath, (*fmp.Client).EarningsTranscripts),
	data.StockPeersKey:       newDataset(data.StockPeersKey, fmp.StockPeersPath, (*fmp.Client).StockPeers),
	data.PriceTargetsKey:     newDataset(data.PriceTargetsKey, fmp.PriceTargetNewsPath, (*fmp.Client).PriceTargets),
}

// Mode selects which datasets a run fetches
type Mode string

const (
	ModeFull             Mode = "full"
	ModePeersOnly        Mode = "peers-only"
	ModePeersWithData    Mode = "peers-with-data"
	ModePriceTargetsOnly Mode = "price-targets-only"
)

var modeDatasets = map[Mode][]string{
	ModeFull: {
		data.IncomeStatementKey,
		data.BalanceSheetKey,
		data.CashFlowKey,
		data.RatiosKey,
		data.AnalystEstimatesKey,
		data.PressReleasesKey,
		data.TranscriptsKey,
		data.StockPeersKey,
		data.PriceTargetsKey,
	},
	ModePeersOnly:        {data.StockPeersKey},
	ModePeersWithData:    {data.StockPeersKey},
	ModePriceTargetsOnly: {data.PriceTargetsKey},
}

// peerDatasets are fetched for every peer discovered in peers-with-data mode
var peerDatasets = []string{data.RatiosKey, data.IncomeStatementKey}

// ParseMode validates a mode name
func ParseMode(name string) (Mode, error) {
	mode := Mode(name)
	if _, ok := modeDatasets[mode]; !ok {
		return "", fmt.Errorf("unknown mode %q", name)
	}

	return mode, nil
}

// Modes lists every known mode
func Modes() []Mode {
	modes := make([]Mode, 0, len(modeDatasets))
	for mode := range modeDatasets {
		modes = append(modes, mode)
	}

	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

// Datasets returns the datasets fetched for each requested symbol, in order
func (mode Mode) Datasets() []*Dataset {
	names := modeDatasets[mode]
	datasets := make([]*Dataset, len(names))
	for idx, name := range names {
		datasets[idx] = Datasets[name]
	}

	return datasets
}
