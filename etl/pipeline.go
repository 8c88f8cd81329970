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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/finmetrics/data"
	"github.com/penny-vault/finmetrics/fmp"
	"github.com/penny-vault/finmetrics/library"
	"github.com/rs/zerolog"
)

// Store persists fetched records
type Store interface {
	EnsureSchema(ctx context.Context) error
	Load(ctx context.Context, records []data.Record) library.LoadResult
	SaveRun(ctx context.Context, run *library.Run) error
}

// Snapshotter writes fetched batches to disk
type Snapshotter interface {
	Write(batch *data.Batch) (string, error)
}

// Pipeline runs fetch -> snapshot -> load for every symbol and dataset of a
// mode. Symbols are processed one at a time.
type Pipeline struct {
	client *fmp.Client
	writer Snapshotter
	store  Store
	mode   Mode

	schemaReady bool
}

func New(client *fmp.Client, writer Snapshotter, store Store, mode Mode) *Pipeline {
	return &Pipeline{
		client: client,
		writer: writer,
		store:  store,
		mode:   mode,
	}
}

// NormalizeSymbols trims and upper-cases symbols, dropping blanks and
// duplicates while keeping the input order
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	normalized := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" || seen[symbol] {
			continue
		}

		seen[symbol] = true
		normalized = append(normalized, symbol)
	}

	return normalized
}

// Run processes every symbol. A failing dataset or symbol is recorded in
// the summary and does not stop the run; only a schema failure is returned
// as an error.
func (pipeline *Pipeline) Run(ctx context.Context, symbols []string) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.New(),
		Mode:      pipeline.mode,
		StartedAt: time.Now(),
	}

	logger := zerolog.Ctx(ctx).With().Str("RunID", summary.RunID.String()).Str("Mode", string(pipeline.mode)).Logger()
	ctx = logger.WithContext(ctx)

	symbols = NormalizeSymbols(symbols)
	summary.Requested = symbols

	logger.Info().Strs("Symbols", symbols).Msg("starting etl run")

	processed := make(map[string]bool, len(symbols))
	var peers []string

	for _, symbol := range symbols {
		result, err := pipeline.processSymbol(ctx, symbol, pipeline.mode.Datasets())
		summary.Symbols = append(summary.Symbols, result)
		processed[symbol] = true
		if err != nil {
			summary.FinishedAt = time.Now()
			return summary, err
		}

		peers = append(peers, result.Peers...)
	}

	if pipeline.mode == ModePeersWithData {
		peerSets := make([]*Dataset, len(peerDatasets))
		for idx, name := range peerDatasets {
			peerSets[idx] = Datasets[name]
		}

		for _, peer := range NormalizeSymbols(peers) {
			if processed[peer] {
				continue
			}
			processed[peer] = true

			result, err := pipeline.processSymbol(ctx, peer, peerSets)
			result.IsPeer = true
			summary.Symbols = append(summary.Symbols, result)
			if err != nil {
				summary.FinishedAt = time.Now()
				return summary, err
			}
		}
	}

	summary.FinishedAt = time.Now()
	pipeline.saveRun(ctx, summary)

	logger.Info().Int("NumSymbols", len(summary.Requested)).Int("NumFailed", summary.NumFailed()).
		Int("NumRecords", summary.NumRecords()).Dur("Duration", summary.Duration()).Msg("etl run finished")

	return summary, nil
}

func (pipeline *Pipeline) processSymbol(ctx context.Context, symbol string, datasets []*Dataset) (*SymbolResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("Symbol", symbol).Logger()
	ctx = logger.WithContext(ctx)

	result := &SymbolResult{Symbol: symbol}

	for _, dataset := range datasets {
		for _, variant := range dataset.Variants(pipeline.client) {
			datasetResult, batch, err := pipeline.processDataset(ctx, symbol, dataset, variant)
			result.Datasets = append(result.Datasets, datasetResult)
			if err != nil {
				return result, err
			}

			if dataset.Name == data.StockPeersKey && batch != nil {
				for _, rec := range batch.Records {
					if peer, ok := rec.(*data.StockPeer); ok {
						result.Peers = append(result.Peers, peer.PeerSymbol)
					}
				}
			}
		}
	}

	if result.Failed() {
		logger.Error().Msg("every dataset failed for symbol")
	}

	return result, nil
}

// processDataset returns an error only when the run must stop
func (pipeline *Pipeline) processDataset(ctx context.Context, symbol string, dataset *Dataset, variant string) (*DatasetResult, *data.Batch, error) {
	logger := zerolog.Ctx(ctx).With().Str("DataType", dataset.Name).Str("Variant", variant).Logger()
	result := &DatasetResult{Dataset: dataset.Name, Variant: variant}

	batch, err := dataset.Fetch(ctx, pipeline.client, symbol, variant)
	if err != nil {
		logger.Error().Err(err).Msg("fetch failed")
		result.Err = err
		return result, nil, nil
	}

	result.Fetched = batch.Len()
	if batch.Len() == 0 {
		logger.Warn().Msg("no records returned")
		return result, batch, nil
	}

	path, err := pipeline.writer.Write(batch)
	if err != nil {
		logger.Error().Err(err).Msg("could not write csv snapshot")
		result.SnapshotErr = err
	} else {
		result.CSVPath = path
	}

	if err := pipeline.ensureSchema(ctx); err != nil {
		result.Err = err
		return result, batch, err
	}

	loaded := pipeline.store.Load(ctx, batch.Records)
	result.Loaded = loaded.Loaded
	result.LoadErrors = loaded.Failed

	if loaded.Loaded == 0 && loaded.Failed > 0 {
		result.Err = fmt.Errorf("every record failed to load: %w", errors.Join(loaded.Errors...))
	}

	logger.Info().Int("Fetched", result.Fetched).Int("Loaded", result.Loaded).Int("Failed", result.LoadErrors).Msg("dataset processed")

	return result, batch, nil
}

func (pipeline *Pipeline) ensureSchema(ctx context.Context) error {
	if pipeline.schemaReady {
		return nil
	}

	if err := pipeline.store.EnsureSchema(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("could not ensure database schema")
		return err
	}

	pipeline.schemaReady = true
	return nil
}

func (pipeline *Pipeline) saveRun(ctx context.Context, summary *Summary) {
	if err := pipeline.ensureSchema(ctx); err != nil {
		return
	}

	if err := pipeline.store.SaveRun(ctx, summary.Run()); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("could not record etl run")
	}
}
