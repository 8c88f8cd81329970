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

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// DataSource identifies where consolidated rows came from
const DataSource = "fmp"

// MetricRow is a row of financial_metrics: the identity of a reporting
// period plus every numeric field of the source record as a JSON object.
type MetricRow struct {
	Symbol           string `db:"symbol" json:"symbol"`
	Date             string `db:"date" json:"date"`
	Period           string `db:"period" json:"period"`
	ReportedCurrency string `db:"reported_currency" json:"reportedCurrency"`
	FiscalYear       Year   `db:"fiscal_year" json:"fiscalYear"`
	FiscalQuarter    *int   `db:"fiscal_quarter" json:"fiscalQuarter"`
	DataSource       string `db:"data_source" json:"dataSource"`
	MetricType       string `db:"metric_type" json:"metricType"`
	MetricValues     string `db:"metric_values" json:"-"`
}

// TextRow is a row of text_metrics
type TextRow struct {
	Symbol        string `db:"symbol" json:"symbol"`
	Date          string `db:"date" json:"date"`
	Period        string `db:"period" json:"period"`
	FiscalYear    Year   `db:"fiscal_year" json:"fiscalYear"`
	FiscalQuarter *int   `db:"fiscal_quarter" json:"fiscalQuarter"`
	MetricType    string `db:"metric_type" json:"metricType"`
	Title         string `db:"title" json:"title"`
	Content       string `db:"content" json:"content"`
	Metadata      string `db:"metadata" json:"-"`
}

type periodIdentity struct {
	symbol           string
	date             string
	period           string
	reportedCurrency string
	fiscalYear       Year
}

func newMetricRow(dataType *DataType, id periodIdentity, rec any) (*MetricRow, error) {
	values, err := json.Marshal(metricValues(rec))
	if err != nil {
		return nil, err
	}

	fiscalYear := id.fiscalYear
	if fiscalYear == 0 {
		fiscalYear = yearOf(id.date)
	}

	return &MetricRow{
		Symbol:           id.symbol,
		Date:             id.date,
		Period:           id.period,
		ReportedCurrency: id.reportedCurrency,
		FiscalYear:       fiscalYear,
		FiscalQuarter:    FiscalQuarter(id.period),
		DataSource:       DataSource,
		MetricType:       dataType.MetricType,
		MetricValues:     string(values),
	}, nil
}

// Values decodes the metric_values JSON object
func (row *MetricRow) Values() (map[string]float64, error) {
	values := make(map[string]float64)
	if row.MetricValues == "" {
		return values, nil
	}

	err := json.Unmarshal([]byte(row.MetricValues), &values)
	return values, err
}

func (row *MetricRow) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", row.Symbol)
	e.Str("MetricType", row.MetricType)
	e.Str("Period", row.Period)
	e.Str("Date", row.Date)
}

// MetadataMap decodes the metadata JSON object
func (row *TextRow) MetadataMap() (map[string]string, error) {
	metadata := make(map[string]string)
	if row.Metadata == "" {
		return metadata, nil
	}

	err := json.Unmarshal([]byte(row.Metadata), &metadata)
	return metadata, err
}
