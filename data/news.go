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
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

type PressRelease struct {
	Symbol        string `json:"symbol" csv:"symbol" db:"symbol"`
	PublishedDate string `json:"publishedDate" csv:"publishedDate" db:"published_date"`
	Title         string `json:"title" csv:"title" db:"title"`
	Publisher     string `json:"publisher" csv:"publisher" db:"publisher"`
	Site          string `json:"site" csv:"site" db:"site"`
	URL           string `json:"url" csv:"url" db:"url"`
	Image         string `json:"image" csv:"image" db:"image"`
	Text          string `json:"text" csv:"text" db:"content"`
}

func (release *PressRelease) DataType() *DataType {
	return DataTypes[PressReleasesKey]
}

func (release *PressRelease) Validate() error {
	switch {
	case release.Symbol == "":
		return missing(release.DataType(), "symbol")
	case !validDate(release.PublishedDate):
		return missing(release.DataType(), "published date")
	case release.Title == "":
		return missing(release.DataType(), "title")
	}

	return nil
}

func (release *PressRelease) TextRow() (*TextRow, error) {
	if err := release.Validate(); err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(map[string]string{
		"publishedDate": release.PublishedDate,
		"publisher":     release.Publisher,
		"site":          release.Site,
		"url":           release.URL,
		"image":         release.Image,
	})
	if err != nil {
		return nil, err
	}

	date := release.PublishedDate[:len(dateLayout)]

	return &TextRow{
		Symbol:     release.Symbol,
		Date:       date,
		FiscalYear: yearOf(date),
		MetricType: release.DataType().MetricType,
		Title:      release.Title,
		Content:    release.Text,
		Metadata:   string(metadata),
	}, nil
}

// EarningsTranscript is the transcript of one earnings call. FMP reports
// the fiscal quarter as period ("Q3") and the fiscal year separately.
type EarningsTranscript struct {
	Symbol  string `json:"symbol" csv:"symbol" db:"symbol"`
	Period  string `json:"period" csv:"period" db:"period"`
	Year    Year   `json:"year" csv:"year" db:"fiscal_year"`
	Date    string `json:"date" csv:"date" db:"date"`
	Content string `json:"content" csv:"content" db:"content"`
}

func (transcript *EarningsTranscript) DataType() *DataType {
	return DataTypes[TranscriptsKey]
}

func (transcript *EarningsTranscript) Validate() error {
	switch {
	case transcript.Symbol == "":
		return missing(transcript.DataType(), "symbol")
	case transcript.Year == 0:
		return missing(transcript.DataType(), "year")
	case FiscalQuarter(transcript.Period) == nil:
		return fmt.Errorf("%w: %s period %q is not a quarter", ErrInvalidField, transcript.DataType().Name, transcript.Period)
	case !validDate(transcript.Date):
		return missing(transcript.DataType(), "date")
	}

	return nil
}

// Title names the call, e.g. "AAPL Q3 2024 Earnings Call"
func (transcript *EarningsTranscript) Title() string {
	return fmt.Sprintf("%s %s %d Earnings Call", transcript.Symbol, transcript.Period, transcript.Year)
}

func (transcript *EarningsTranscript) TextRow() (*TextRow, error) {
	if err := transcript.Validate(); err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(map[string]string{
		"date":    transcript.Date,
		"year":    strconv.Itoa(int(transcript.Year)),
		"quarter": transcript.Period,
	})
	if err != nil {
		return nil, err
	}

	return &TextRow{
		Symbol:        transcript.Symbol,
		Date:          transcript.Date[:len(dateLayout)],
		Period:        transcript.Period,
		FiscalYear:    transcript.Year,
		FiscalQuarter: FiscalQuarter(transcript.Period),
		MetricType:    transcript.DataType().MetricType,
		Title:         transcript.Title(),
		Content:       transcript.Content,
		Metadata:      string(metadata),
	}, nil
}
