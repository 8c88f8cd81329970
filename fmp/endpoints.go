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
package fmp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/penny-vault/finmetrics/data"
)

const (
	IncomeStatementPath  = "/income-statement"
	BalanceSheetPath     = "/balance-sheet-statement"
	CashFlowPath         = "/cash-flow-statement"
	RatiosPath           = "/ratios"
	AnalystEstimatesPath = "/analyst-estimates"
	StockPeersPath       = "/stock-peers"
	PriceTargetNewsPath  = "/price-target-news"
	PressReleasesPath    = "/news/press-releases"
	TranscriptPath       = "/earning-call-transcript"
)

func stampHeader(symbol string) func(*data.StatementHeader) {
	return func(header *data.StatementHeader) {
		if header.Symbol == "" {
			header.Symbol = symbol
		}
		header.Symbol = normalizeSymbol(header.Symbol)
	}
}

// IncomeStatements returns the income statements of symbol for period
// ("annual" or "quarter"), newest first
func (client *Client) IncomeStatements(ctx context.Context, symbol, period string) ([]*data.IncomeStatement, error) {
	symbol = normalizeSymbol(symbol)
	stamp := stampHeader(symbol)
	return fetch(ctx, client, IncomeStatementPath, symbol, client.periodParams(symbol, period), func(stmt *data.IncomeStatement) {
		stamp(&stmt.StatementHeader)
	})
}

func (client *Client) BalanceSheets(ctx context.Context, symbol, period string) ([]*data.BalanceSheet, error) {
	symbol = normalizeSymbol(symbol)
	stamp := stampHeader(symbol)
	return fetch(ctx, client, BalanceSheetPath, symbol, client.periodParams(symbol, period), func(stmt *data.BalanceSheet) {
		stamp(&stmt.StatementHeader)
	})
}

func (client *Client) CashFlowStatements(ctx context.Context, symbol, period string) ([]*data.CashFlowStatement, error) {
	symbol = normalizeSymbol(symbol)
	stamp := stampHeader(symbol)
	return fetch(ctx, client, CashFlowPath, symbol, client.periodParams(symbol, period), func(stmt *data.CashFlowStatement) {
		stamp(&stmt.StatementHeader)
	})
}

func (client *Client) Ratios(ctx context.Context, symbol, period string) ([]*data.Ratios, error) {
	symbol = normalizeSymbol(symbol)
	return fetch(ctx, client, RatiosPath, symbol, client.periodParams(symbol, period), func(ratios *data.Ratios) {
		if ratios.Symbol == "" {
			ratios.Symbol = symbol
		}
		ratios.Symbol = normalizeSymbol(ratios.Symbol)
	})
}

// AnalystEstimates returns consensus estimates. The response does not
// include the period so the requested one is recorded on each estimate.
func (client *Client) AnalystEstimates(ctx context.Context, symbol, period string) ([]*data.AnalystEstimate, error) {
	symbol = normalizeSymbol(symbol)
	params := client.pageParams(symbol)
	params["period"] = period

	return fetch(ctx, client, AnalystEstimatesPath, symbol, params, func(estimate *data.AnalystEstimate) {
		if estimate.Symbol == "" {
			estimate.Symbol = symbol
		}
		estimate.Symbol = normalizeSymbol(estimate.Symbol)
		estimate.Period = period
	})
}

// peerResponse is a single element of the /stock-peers response; its
// symbol field is the peer, not the symbol that was queried
type peerResponse struct {
	Symbol      string   `json:"symbol"`
	CompanyName string   `json:"companyName"`
	Price       *float64 `json:"price"`
	MarketCap   *float64 `json:"mktCap"`
}

// StockPeers returns the distinct peers of symbol. The symbol itself is
// never reported as its own peer.
func (client *Client) StockPeers(ctx context.Context, symbol string) ([]*data.StockPeer, error) {
	symbol = normalizeSymbol(symbol)

	items, err := decode[peerResponse](ctx, client, StockPeersPath, symbol, map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(items))
	peers := make([]*data.StockPeer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		peer := &data.StockPeer{
			Symbol:      symbol,
			PeerSymbol:  normalizeSymbol(item.Symbol),
			CompanyName: item.CompanyName,
			Price:       item.Price,
			MarketCap:   item.MarketCap,
		}

		if peer.PeerSymbol == symbol || seen[peer.PeerSymbol] || !keep(ctx, StockPeersPath, symbol, peer) {
			continue
		}
		seen[peer.PeerSymbol] = true

		peers = append(peers, peer)
	}

	return peers, nil
}

// PriceTargets returns the most recent price target announcements
func (client *Client) PriceTargets(ctx context.Context, symbol string) ([]*data.PriceTarget, error) {
	symbol = normalizeSymbol(symbol)
	return fetch(ctx, client, PriceTargetNewsPath, symbol, client.pageParams(symbol), func(target *data.PriceTarget) {
		if target.Symbol == "" {
			target.Symbol = symbol
		}
		target.Symbol = normalizeSymbol(target.Symbol)
		target.NewsTitle = normalizeText(target.NewsTitle)
	})
}

// PressReleases returns the most recent press releases. The endpoint takes
// a comma separated `symbols` parameter; only one symbol is ever sent.
func (client *Client) PressReleases(ctx context.Context, symbol string) ([]*data.PressRelease, error) {
	symbol = normalizeSymbol(symbol)
	params := map[string]string{
		"symbols": symbol,
		"limit":   strconv.Itoa(client.limit),
	}

	return fetch(ctx, client, PressReleasesPath, symbol, params, func(release *data.PressRelease) {
		if release.Symbol == "" {
			release.Symbol = symbol
		}
		release.Symbol = normalizeSymbol(release.Symbol)
		release.Title = normalizeText(release.Title)
		release.Text = normalizeText(release.Text)
	})
}

// Quarter is a calendar quarter, e.g. {2024, 3}
type Quarter struct {
	Year    int
	Quarter int
}

func (q Quarter) String() string {
	return fmt.Sprintf("%dQ%d", q.Year, q.Quarter)
}

// ParseQuarter parses the form produced by Quarter.String
func ParseQuarter(value string) (Quarter, error) {
	var q Quarter
	if _, err := fmt.Sscanf(value, "%dQ%d", &q.Year, &q.Quarter); err != nil {
		return Quarter{}, fmt.Errorf("invalid quarter %q: %w", value, err)
	}

	if q.Quarter < 1 || q.Quarter > 4 {
		return Quarter{}, fmt.Errorf("invalid quarter %q", value)
	}

	return q, nil
}

// RecentQuarters returns the n quarters before the one containing now,
// most recent first. The current quarter is skipped since its call has
// usually not happened yet.
func RecentQuarters(now time.Time, n int) []Quarter {
	quarters := make([]Quarter, 0, n)

	year, quarter := now.Year(), (int(now.Month())-1)/3+1
	for len(quarters) < n {
		quarter--
		if quarter == 0 {
			year--
			quarter = 4
		}
		quarters = append(quarters, Quarter{Year: year, Quarter: quarter})
	}

	return quarters
}

// EarningsTranscripts returns the transcript of the earnings call held for
// the given fiscal year and quarter. FMP answers with an empty array when
// there is no transcript.
func (client *Client) EarningsTranscripts(ctx context.Context, symbol string, quarter Quarter) ([]*data.EarningsTranscript, error) {
	symbol = normalizeSymbol(symbol)
	params := map[string]string{
		"symbol":  symbol,
		"year":    strconv.Itoa(quarter.Year),
		"quarter": strconv.Itoa(quarter.Quarter),
	}

	return fetch(ctx, client, TranscriptPath, symbol, params, func(transcript *data.EarningsTranscript) {
		if transcript.Symbol == "" {
			transcript.Symbol = symbol
		}
		transcript.Symbol = normalizeSymbol(transcript.Symbol)
		if transcript.Period == "" {
			transcript.Period = "Q" + strconv.Itoa(quarter.Quarter)
		}
		if transcript.Year == 0 {
			transcript.Year = data.Year(quarter.Year)
		}
		transcript.Content = normalizeText(transcript.Content)
	})
}
