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

// AnalystEstimate is the consensus estimate for one fiscal period. FMP does
// not echo the period back, so the client stamps the requested period
// (annual or quarter) on every record.
type AnalystEstimate struct {
	Symbol string `json:"symbol" csv:"symbol" db:"symbol"`
	Date   string `json:"date" csv:"date" db:"date"`
	Period string `json:"period" csv:"period" db:"period"`

	RevenueLow         *float64 `json:"revenueLow" csv:"revenueLow,omitempty" db:"revenue_low"`
	RevenueHigh        *float64 `json:"revenueHigh" csv:"revenueHigh,omitempty" db:"revenue_high"`
	RevenueAvg         *float64 `json:"revenueAvg" csv:"revenueAvg,omitempty" db:"revenue_avg"`
	EBITDALow          *float64 `json:"ebitdaLow" csv:"ebitdaLow,omitempty" db:"ebitda_low"`
	EBITDAHigh         *float64 `json:"ebitdaHigh" csv:"ebitdaHigh,omitempty" db:"ebitda_high"`
	EBITDAAvg          *float64 `json:"ebitdaAvg" csv:"ebitdaAvg,omitempty" db:"ebitda_avg"`
	EBITLow            *float64 `json:"ebitLow" csv:"ebitLow,omitempty" db:"ebit_low"`
	EBITHigh           *float64 `json:"ebitHigh" csv:"ebitHigh,omitempty" db:"ebit_high"`
	EBITAvg            *float64 `json:"ebitAvg" csv:"ebitAvg,omitempty" db:"ebit_avg"`
	NetIncomeLow       *float64 `json:"netIncomeLow" csv:"netIncomeLow,omitempty" db:"net_income_low"`
	NetIncomeHigh      *float64 `json:"netIncomeHigh" csv:"netIncomeHigh,omitempty" db:"net_income_high"`
	NetIncomeAvg       *float64 `json:"netIncomeAvg" csv:"netIncomeAvg,omitempty" db:"net_income_avg"`
	EPSLow             *float64 `json:"epsLow" csv:"epsLow,omitempty" db:"eps_low"`
	EPSHigh            *float64 `json:"epsHigh" csv:"epsHigh,omitempty" db:"eps_high"`
	EPSAvg             *float64 `json:"epsAvg" csv:"epsAvg,omitempty" db:"eps_avg"`
	NumAnalystsRevenue *int     `json:"numAnalystsRevenue" csv:"numAnalystsRevenue,omitempty" db:"num_analysts_revenue"`
	NumAnalystsEPS     *int     `json:"numAnalystsEps" csv:"numAnalystsEps,omitempty" db:"num_analysts_eps"`
}

func (estimate *AnalystEstimate) DataType() *DataType {
	return DataTypes[AnalystEstimatesKey]
}

func (estimate *AnalystEstimate) Validate() error {
	header := StatementHeader{Symbol: estimate.Symbol, Date: estimate.Date, Period: estimate.Period}
	return header.validate(estimate.DataType())
}

func (estimate *AnalystEstimate) MetricRow() (*MetricRow, error) {
	return newMetricRow(estimate.DataType(), periodIdentity{
		symbol: estimate.Symbol,
		date:   estimate.Date,
		period: estimate.Period,
	}, estimate)
}
