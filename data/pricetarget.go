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

import "github.com/rs/zerolog"

// PriceTarget is an analyst price target and the article that published it
type PriceTarget struct {
	Symbol          string   `json:"symbol" csv:"symbol" db:"symbol"`
	PublishedDate   string   `json:"publishedDate" csv:"publishedDate" db:"published_date"`
	NewsURL         string   `json:"newsURL" csv:"newsURL" db:"news_url"`
	NewsTitle       string   `json:"newsTitle" csv:"newsTitle" db:"news_title"`
	AnalystName     string   `json:"analystName" csv:"analystName" db:"analyst_name"`
	AnalystCompany  string   `json:"analystCompany" csv:"analystCompany" db:"analyst_company"`
	PriceTarget     *float64 `json:"priceTarget" csv:"priceTarget,omitempty" db:"price_target"`
	AdjPriceTarget  *float64 `json:"adjPriceTarget" csv:"adjPriceTarget,omitempty" db:"adj_price_target"`
	PriceWhenPosted *float64 `json:"priceWhenPosted" csv:"priceWhenPosted,omitempty" db:"price_when_posted"`
	NewsPublisher   string   `json:"newsPublisher" csv:"newsPublisher" db:"news_publisher"`
	NewsBaseURL     string   `json:"newsBaseURL" csv:"newsBaseURL" db:"news_base_url"`
}

func (target *PriceTarget) DataType() *DataType {
	return DataTypes[PriceTargetsKey]
}

func (target *PriceTarget) Validate() error {
	switch {
	case target.Symbol == "":
		return missing(target.DataType(), "symbol")
	case !validDate(target.PublishedDate):
		return missing(target.DataType(), "published date")
	}

	return nil
}

func (target *PriceTarget) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", target.Symbol)
	e.Str("PublishedDate", target.PublishedDate)
	e.Str("AnalystCompany", target.AnalystCompany)
}
