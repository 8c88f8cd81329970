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
	"slices"
	"strconv"
	"strings"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/goccy/go-json"
	"github.com/penny-vault/finmetrics/data"
	"github.com/shopspring/decimal"
)

// recent rows considered when listing metric names
const metricNameSample = 50

// PeerMarginKeys are the ratio metrics reported for each peer
var PeerMarginKeys = []string{
	"grossProfitMargin",
	"ebitMargin",
	"ebitdaMargin",
	"operatingProfitMargin",
	"pretaxProfitMargin",
	"continuousOperationsProfitMargin",
	"netProfitMargin",
}

// PeerMetric summarizes the latest ratios and revenue of one peer
type PeerMetric struct {
	Symbol      string              `json:"symbol"`
	CompanyName string              `json:"companyName"`
	Date        string              `json:"date"`
	Revenue     *float64            `json:"revenue"`
	Margins     map[string]*float64 `json:"-"`
}

// MarshalJSON flattens the margins next to the identifying fields
func (peer PeerMetric) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(peer.Margins)+4)
	for key, val := range peer.Margins {
		out[key] = val
	}

	out["symbol"] = peer.Symbol
	out["companyName"] = peer.CompanyName
	out["date"] = peer.Date
	out["revenue"] = peer.Revenue

	return json.Marshal(out)
}

// PriceTargetNews is a stored price target with the percent move it implies
// from the price when it was posted
type PriceTargetNews struct {
	data.PriceTarget
	Upside *float64 `json:"upside" db:"-"`
}

// FinancialMetric is a financial_metrics row with its values decoded
type FinancialMetric struct {
	data.MetricRow
	Values map[string]float64 `json:"metric_values" db:"-"`
}

// FinancialFilter narrows Financials. Zero values match everything.
type FinancialFilter struct {
	MetricType string
	Year       int
	Quarter    int
}

// TimeSeriesFilter narrows TimeSeries. Period is "annual", "quarter" or
// empty for both.
type TimeSeriesFilter struct {
	Metrics   []string
	StartYear int
	EndYear   int
	Period    string
}

// TimeSeriesPoint holds the requested metrics of every metric type for a
// single reporting period
type TimeSeriesPoint struct {
	Date          string             `json:"date"`
	Period        string             `json:"period"`
	FiscalYear    data.Year          `json:"fiscalYear"`
	FiscalQuarter *int               `json:"fiscalQuarter"`
	Metrics       map[string]float64 `json:"metrics"`
}

// ParseQuarter accepts "Q2", "q2" or "2"
func ParseQuarter(s string) (int, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "Q")
	quarter, err := strconv.Atoi(s)
	if err != nil || quarter < 1 || quarter > 4 {
		return 0, fmt.Errorf("invalid quarter %q", s)
	}

	return quarter, nil
}

// Upside returns the percentage difference between the target and the price
// when the target was posted, rounded to two places. The adjusted target is
// preferred when present.
func Upside(target *data.PriceTarget) *float64 {
	priceTarget := target.AdjPriceTarget
	if priceTarget == nil || *priceTarget == 0 {
		priceTarget = target.PriceTarget
	}

	if priceTarget == nil || target.PriceWhenPosted == nil || *target.PriceWhenPosted == 0 {
		return nil
	}

	posted := decimal.NewFromFloat(*target.PriceWhenPosted)
	upside := decimal.NewFromFloat(*priceTarget).Sub(posted).
		Div(posted).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()

	return &upside
}

func (myLibrary *Library) metricColumns() string {
	return strings.Join([]string{
		"symbol",
		myLibrary.Dialect.Date("date") + " AS date",
		"period",
		"reported_currency",
		"fiscal_year",
		"fiscal_quarter",
		"data_source",
		"metric_type",
		myLibrary.Dialect.JSON("metric_values") + " AS metric_values",
	}, ", ")
}

// selectColumns lists the columns of rec's table with the date column
// rendered as text
func (myLibrary *Library) selectColumns(rec any) string {
	columns := data.RowOf(rec).Columns
	for idx, col := range columns {
		if col == "date" {
			columns[idx] = myLibrary.Dialect.Date("date") + " AS date"
		}
	}

	return strings.Join(columns, ", ")
}

func (myLibrary *Library) latestMetric(ctx context.Context, symbol, metricType string) (*data.MetricRow, error) {
	q := myLibrary.Dialect.newQuery("SELECT " + myLibrary.metricColumns() + " FROM financial_metrics").
		bind(" WHERE symbol = ? AND metric_type = ?", symbol, metricType).
		bind(" ORDER BY date DESC LIMIT 1")

	row := &data.MetricRow{}
	if err := sqlscan.Get(ctx, myLibrary.DB, row, q.String(), q.args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return row, nil
}

// PeerMetrics returns the latest margins and revenue of each peer of
// symbol. Peers with no stored ratios are left out.
func (myLibrary *Library) PeerMetrics(ctx context.Context, symbol string) ([]*PeerMetric, error) {
	q := myLibrary.Dialect.newQuery("SELECT symbol, peer_symbol, company_name, price, market_cap FROM stock_peers").
		bind(" WHERE symbol = ?", symbol).
		bind(" ORDER BY peer_symbol")

	var peers []*data.StockPeer
	if err := sqlscan.Select(ctx, myLibrary.DB, &peers, q.String(), q.args...); err != nil {
		return nil, err
	}

	results := make([]*PeerMetric, 0, len(peers))
	for _, peer := range peers {
		ratio, err := myLibrary.latestMetric(ctx, peer.PeerSymbol, data.MetricRatio)
		if err != nil {
			return nil, err
		}

		if ratio == nil {
			continue
		}

		ratioValues, err := ratio.Values()
		if err != nil {
			return nil, err
		}

		metric := &PeerMetric{
			Symbol:      peer.PeerSymbol,
			CompanyName: peer.CompanyName,
			Date:        ratio.Date,
			Margins:     make(map[string]*float64, len(PeerMarginKeys)),
		}

		for _, key := range PeerMarginKeys {
			if val, ok := ratioValues[key]; ok {
				metric.Margins[key] = &val
			} else {
				metric.Margins[key] = nil
			}
		}

		income, err := myLibrary.latestMetric(ctx, peer.PeerSymbol, data.MetricIncome)
		if err != nil {
			return nil, err
		}

		if income != nil {
			incomeValues, err := income.Values()
			if err != nil {
				return nil, err
			}
			if revenue, ok := incomeValues["revenue"]; ok {
				metric.Revenue = &revenue
			}
		}

		results = append(results, metric)
	}

	return results, nil
}

// PriceTargets returns the stored price targets for symbol, newest first
func (myLibrary *Library) PriceTargets(ctx context.Context, symbol string) ([]*PriceTargetNews, error) {
	q := myLibrary.Dialect.newQuery("SELECT " + myLibrary.selectColumns(&data.PriceTarget{}) + " FROM price_targets").
		bind(" WHERE symbol = ?", symbol).
		bind(" ORDER BY published_date DESC, analyst_company, analyst_name")

	targets := make([]*PriceTargetNews, 0)
	if err := sqlscan.Select(ctx, myLibrary.DB, &targets, q.String(), q.args...); err != nil {
		return nil, err
	}

	for _, target := range targets {
		target.Upside = Upside(&target.PriceTarget)
	}

	return targets, nil
}

// AnalystEstimates returns the stored estimates for symbol, newest first
func (myLibrary *Library) AnalystEstimates(ctx context.Context, symbol string) ([]*data.AnalystEstimate, error) {
	q := myLibrary.Dialect.newQuery("SELECT " + myLibrary.selectColumns(&data.AnalystEstimate{}) + " FROM analyst_estimates").
		bind(" WHERE symbol = ?", symbol).
		bind(" ORDER BY date DESC, period")

	estimates := make([]*data.AnalystEstimate, 0)
	if err := sqlscan.Select(ctx, myLibrary.DB, &estimates, q.String(), q.args...); err != nil {
		return nil, err
	}

	return estimates, nil
}

// Companies lists every symbol with consolidated metrics
func (myLibrary *Library) Companies(ctx context.Context) ([]string, error) {
	symbols := make([]string, 0)
	err := sqlscan.Select(ctx, myLibrary.DB, &symbols, "SELECT DISTINCT symbol FROM financial_metrics ORDER BY symbol")
	return symbols, err
}

// MetricNames lists the metric names recently stored for metricType
func (myLibrary *Library) MetricNames(ctx context.Context, metricType string) ([]string, error) {
	q := myLibrary.Dialect.newQuery("SELECT " + myLibrary.Dialect.JSON("metric_values") + " AS metric_values FROM financial_metrics").
		bind(" WHERE metric_type = ?", metricType).
		bind(" ORDER BY date DESC LIMIT ?", metricNameSample)

	var rows []string
	if err := sqlscan.Select(ctx, myLibrary.DB, &rows, q.String(), q.args...); err != nil {
		return nil, err
	}

	names := make([]string, 0)
	for _, raw := range rows {
		values := make(map[string]float64)
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return nil, err
		}
		for name := range values {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}

	slices.Sort(names)
	return names, nil
}

// Financials returns the consolidated rows of symbol, newest first
func (myLibrary *Library) Financials(ctx context.Context, symbol string, filter FinancialFilter) ([]*FinancialMetric, error) {
	q := myLibrary.Dialect.newQuery("SELECT " + myLibrary.metricColumns() + " FROM financial_metrics").
		bind(" WHERE symbol = ?", symbol)

	if filter.MetricType != "" {
		q.bind(" AND metric_type = ?", filter.MetricType)
	}

	if filter.Year != 0 {
		q.bind(" AND fiscal_year = ?", filter.Year)
	}

	if filter.Quarter != 0 {
		q.bind(" AND fiscal_quarter = ?", filter.Quarter)
	}

	q.bind(" ORDER BY date DESC, metric_type")

	rows := make([]*FinancialMetric, 0)
	if err := sqlscan.Select(ctx, myLibrary.DB, &rows, q.String(), q.args...); err != nil {
		return nil, err
	}

	for _, row := range rows {
		values, err := row.MetricRow.Values()
		if err != nil {
			return nil, err
		}
		row.Values = values
	}

	return rows, nil
}

// TimeSeries merges every metric type of symbol into one point per
// reporting period, oldest first
func (myLibrary *Library) TimeSeries(ctx context.Context, symbol string, filter TimeSeriesFilter) ([]*TimeSeriesPoint, error) {
	q := myLibrary.Dialect.newQuery("SELECT " + myLibrary.metricColumns() + " FROM financial_metrics").
		bind(" WHERE symbol = ?", symbol)

	if filter.StartYear != 0 {
		q.bind(" AND fiscal_year >= ?", filter.StartYear)
	}

	if filter.EndYear != 0 {
		q.bind(" AND fiscal_year <= ?", filter.EndYear)
	}

	switch strings.ToLower(filter.Period) {
	case "annual", "fy":
		q.bind(" AND period IN ('FY', 'annual')")
	case "quarter", "q":
		q.bind(" AND (period LIKE 'Q%' OR period = 'quarter')")
	}

	q.bind(" ORDER BY date, period, metric_type")

	var rows []*data.MetricRow
	if err := sqlscan.Select(ctx, myLibrary.DB, &rows, q.String(), q.args...); err != nil {
		return nil, err
	}

	points := make([]*TimeSeriesPoint, 0)
	index := make(map[string]*TimeSeriesPoint)

	for _, row := range rows {
		values, err := row.Values()
		if err != nil {
			return nil, err
		}

		key := row.Date + "|" + row.Period
		point, ok := index[key]
		if !ok {
			point = &TimeSeriesPoint{
				Date:          row.Date,
				Period:        row.Period,
				FiscalYear:    row.FiscalYear,
				FiscalQuarter: row.FiscalQuarter,
				Metrics:       make(map[string]float64),
			}
			index[key] = point
			points = append(points, point)
		}

		for name, val := range values {
			if len(filter.Metrics) == 0 || slices.Contains(filter.Metrics, name) {
				point.Metrics[name] = val
			}
		}
	}

	return points, nil
}
