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
package data

import "sort"

// DataType describes one kind of record fetched from the API: where it is
// written on disk, which table stores it, and which columns form its
// natural key.
type DataType struct {
	Name        string
	Description string
	Table       string
	Key         []string

	// MetricType is the metric_type value used for the record in the
	// consolidated tables; empty when the record is not consolidated
	MetricType string
}

const (
	IncomeStatementKey  = "income-statement"
	BalanceSheetKey     = "balance-sheet-statement"
	CashFlowKey         = "cash-flow-statement"
	RatiosKey           = "ratios"
	AnalystEstimatesKey = "analyst-estimates"
	PressReleasesKey    = "press-releases"
	TranscriptsKey      = "earning-call-transcript"
	StockPeersKey       = "stock-peers"
	PriceTargetsKey     = "price-target-news"
)

const (
	MetricIncome     = "income"
	MetricBalance    = "balance"
	MetricCashFlow   = "cash_flow"
	MetricRatio      = "ratio"
	MetricAnalyst    = "analyst"
	MetricNews       = "news"
	MetricTranscript = "transcript"
)

const (
	FinancialMetricsTable = "financial_metrics"
	TextMetricsTable      = "text_metrics"
	StockPeersTable       = "stock_peers"
	PriceTargetsTable     = "price_targets"
)

var (
	FinancialMetricsKey = []string{"symbol", "metric_type", "period", "date"}
	TextMetricsKey      = []string{"symbol", "metric_type", "date", "title"}
)

var periodKey = []string{"symbol", "period", "date"}

var DataTypes = map[string]*DataType{
	IncomeStatementKey: {
		Name:        IncomeStatementKey,
		Description: "Revenue, expenses, and earnings for each reporting period.",
		Table:       "income_statements",
		Key:         periodKey,
		MetricType:  MetricIncome,
	},
	BalanceSheetKey: {
		Name:        BalanceSheetKey,
		Description: "Assets, liabilities, and shareholder equity at the end of each reporting period.",
		Table:       "balance_sheets",
		Key:         periodKey,
		MetricType:  MetricBalance,
	},
	CashFlowKey: {
		Name:        CashFlowKey,
		Description: "Operating, investing, and financing cash flows for each reporting period.",
		Table:       "cash_flow_statements",
		Key:         periodKey,
		MetricType:  MetricCashFlow,
	},
	RatiosKey: {
		Name:        RatiosKey,
		Description: "Profitability, liquidity, leverage, and valuation ratios.",
		Table:       "financial_ratios",
		Key:         periodKey,
		MetricType:  MetricRatio,
	},
	AnalystEstimatesKey: {
		Name:        AnalystEstimatesKey,
		Description: "Consensus analyst estimates of revenue, EBITDA, net income, and EPS.",
		Table:       "analyst_estimates",
		Key:         periodKey,
		MetricType:  MetricAnalyst,
	},
	PressReleasesKey: {
		Name:        PressReleasesKey,
		Description: "Company press releases.",
		Table:       "company_news",
		Key:         []string{"symbol", "published_date", "title"},
		MetricType:  MetricNews,
	},
	TranscriptsKey: {
		Name:        TranscriptsKey,
		Description: "Earnings call transcripts, one per fiscal quarter.",
		Table:       "earnings_transcripts",
		Key:         []string{"symbol", "fiscal_year", "period"},
		MetricType:  MetricTranscript,
	},
	StockPeersKey: {
		Name:        StockPeersKey,
		Description: "Companies that trade on the same exchange, in the same sector, with a similar market cap.",
		Table:       StockPeersTable,
		Key:         []string{"symbol", "peer_symbol"},
	},
	PriceTargetsKey: {
		Name:        PriceTargetsKey,
		Description: "Analyst price targets together with the news article that announced them.",
		Table:       PriceTargetsTable,
		Key:         []string{"symbol", "published_date", "analyst_company", "analyst_name"},
	},
}

// MetricTypes returns the metric_type values stored in financial_metrics
func MetricTypes() []string {
	types := make([]string, 0, len(DataTypes))
	for _, dataType := range DataTypes {
		switch dataType.MetricType {
		case "", MetricNews, MetricTranscript:
			continue
		}
		types = append(types, dataType.MetricType)
	}

	sort.Strings(types)
	return types
}
