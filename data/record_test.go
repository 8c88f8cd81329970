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
package data_test

import (
	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/finmetrics/data"
)

func ptr[T any](v T) *T {
	return &v
}

var _ = Describe("Records", func() {
	var income *data.IncomeStatement

	BeforeEach(func() {
		income = &data.IncomeStatement{
			StatementHeader: data.StatementHeader{
				Date:             "2024-09-28",
				Symbol:           "AAPL",
				ReportedCurrency: "USD",
				FiscalYear:       2024,
				Period:           "FY",
			},
			Revenue:   ptr(391035000000.0),
			NetIncome: ptr(93736000000.0),
		}
	})

	Describe("RowOf", func() {
		It("flattens embedded headers and keeps declaration order", func() {
			row := data.RowOf(income)
			Expect(row.Columns[:8]).To(Equal([]string{"date", "symbol", "reported_currency", "cik",
				"filing_date", "accepted_date", "fiscal_year", "period"}))
			Expect(row.Columns).To(ContainElements("revenue", "net_income", "eps_diluted"))
			Expect(row.Values).To(HaveLen(len(row.Columns)))
		})

		It("dereferences set pointers and maps nil pointers to NULL", func() {
			row := data.RowOf(income)

			revenue, ok := row.Value("revenue")
			Expect(ok).To(BeTrue())
			Expect(revenue).To(Equal(391035000000.0))

			ebitda, ok := row.Value("ebitda")
			Expect(ok).To(BeTrue())
			Expect(ebitda).To(BeNil())

			_, ok = row.Value("does_not_exist")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Year", func() {
		DescribeTable("decodes strings, numbers and null",
			func(payload string, expected data.Year) {
				var year data.Year
				Expect(json.Unmarshal([]byte(payload), &year)).To(Succeed())
				Expect(year).To(Equal(expected))
			},
			Entry("string", `"2024"`, data.Year(2024)),
			Entry("number", `2023`, data.Year(2023)),
			Entry("null", `null`, data.Year(0)),
			Entry("empty string", `""`, data.Year(0)),
		)

		It("rejects garbage", func() {
			var year data.Year
			Expect(json.Unmarshal([]byte(`"FY24"`), &year)).NotTo(Succeed())
		})

		It("stores unknown years as NULL", func() {
			Expect(data.Year(0).Value()).To(BeNil())
			Expect(data.Year(2024).Value()).To(Equal(int64(2024)))
		})
	})

	DescribeTable("FiscalQuarter",
		func(period string, expected *int) {
			Expect(data.FiscalQuarter(period)).To(Equal(expected))
		},
		Entry("annual", "FY", nil),
		Entry("quarter", "Q3", ptr(3)),
		Entry("lower case", "q1", ptr(1)),
		Entry("out of range", "Q5", nil),
		Entry("empty", "", nil),
	)

	Describe("MetricRow", func() {
		It("stores only the numeric fields that were reported", func() {
			row, err := income.MetricRow()
			Expect(err).NotTo(HaveOccurred())
			Expect(row.MetricType).To(Equal(data.MetricIncome))
			Expect(row.FiscalYear).To(Equal(data.Year(2024)))
			Expect(row.FiscalQuarter).To(BeNil())

			values, err := row.Values()
			Expect(err).NotTo(HaveOccurred())
			Expect(values).To(Equal(map[string]float64{
				"revenue":   391035000000.0,
				"netIncome": 93736000000.0,
			}))
		})

		It("is deterministic", func() {
			first, err := income.MetricRow()
			Expect(err).NotTo(HaveOccurred())
			second, err := income.MetricRow()
			Expect(err).NotTo(HaveOccurred())
			Expect(first.MetricValues).To(Equal(second.MetricValues))
		})

		It("derives the fiscal year of estimates from the date", func() {
			estimate := &data.AnalystEstimate{Symbol: "AAPL", Date: "2026-09-27", Period: "annual",
				EPSAvg: ptr(8.49), NumAnalystsEPS: ptr(12)}
			row, err := estimate.MetricRow()
			Expect(err).NotTo(HaveOccurred())
			Expect(row.FiscalYear).To(Equal(data.Year(2026)))
			Expect(row.MetricValues).To(MatchJSON(`{"epsAvg": 8.49, "numAnalystsEps": 12}`))
		})
	})

	Describe("Validate", func() {
		It("accepts complete statements", func() {
			Expect(income.Validate()).To(Succeed())
		})

		It("requires a date", func() {
			income.Date = ""
			Expect(income.Validate()).To(MatchError(data.ErrMissingField))
		})

		It("rejects a symbol listed as its own peer", func() {
			peer := &data.StockPeer{Symbol: "AAPL", PeerSymbol: "aapl"}
			Expect(peer.Validate()).To(MatchError(data.ErrInvalidField))
		})

		It("requires a published date on price targets", func() {
			target := &data.PriceTarget{Symbol: "AAPL", PublishedDate: "yesterday"}
			Expect(target.Validate()).To(MatchError(data.ErrMissingField))
		})
	})

	Describe("PressRelease", func() {
		It("becomes a news row in text_metrics", func() {
			release := &data.PressRelease{
				Symbol:        "AAPL",
				PublishedDate: "2025-01-30 16:30:00",
				Title:         "Apple reports first quarter results",
				Publisher:     "Business Wire",
				Text:          "CUPERTINO, California",
			}

			row, err := release.TextRow()
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Date).To(Equal("2025-01-30"))
			Expect(row.FiscalYear).To(Equal(data.Year(2025)))
			Expect(row.MetricType).To(Equal(data.MetricNews))
			Expect(row.Content).To(Equal("CUPERTINO, California"))

			metadata, err := row.MetadataMap()
			Expect(err).NotTo(HaveOccurred())
			Expect(metadata).To(HaveKeyWithValue("publisher", "Business Wire"))
		})
	})

	Describe("EarningsTranscript", func() {
		var transcript *data.EarningsTranscript

		BeforeEach(func() {
			transcript = &data.EarningsTranscript{
				Symbol:  "AAPL",
				Period:  "Q3",
				Year:    2024,
				Date:    "2024-08-01",
				Content: "Good afternoon and welcome.",
			}
		})

		It("becomes a transcript row in text_metrics", func() {
			row, err := transcript.TextRow()
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Date).To(Equal("2024-08-01"))
			Expect(row.Period).To(Equal("Q3"))
			Expect(row.FiscalYear).To(Equal(data.Year(2024)))
			Expect(*row.FiscalQuarter).To(Equal(3))
			Expect(row.MetricType).To(Equal(data.MetricTranscript))
			Expect(row.Title).To(Equal("AAPL Q3 2024 Earnings Call"))
			Expect(row.Content).To(Equal("Good afternoon and welcome."))

			metadata, err := row.MetadataMap()
			Expect(err).NotTo(HaveOccurred())
			Expect(metadata).To(HaveKeyWithValue("year", "2024"))
		})

		It("maps the fiscal year to its own column", func() {
			row := data.RowOf(transcript)
			Expect(row.Columns).To(Equal([]string{"symbol", "period", "fiscal_year", "date", "content"}))
		})

		It("requires a quarterly period", func() {
			transcript.Period = "FY"
			Expect(transcript.Validate()).To(MatchError(data.ErrInvalidField))
		})

		It("requires a year", func() {
			transcript.Year = 0
			Expect(transcript.Validate()).To(MatchError(data.ErrMissingField))
		})
	})

	Describe("Batch", func() {
		It("keeps the typed rows and the generic records in sync", func() {
			batch := data.NewBatch(income.DataType(), "AAPL", []*data.IncomeStatement{income})
			Expect(batch.Len()).To(Equal(1))
			Expect(batch.Rows()).To(Equal([]*data.IncomeStatement{income}))
			Expect(batch.Records[0]).To(BeIdenticalTo(income))
		})
	})

	It("lists the financial metric types", func() {
		Expect(data.MetricTypes()).To(Equal([]string{"analyst", "balance", "cash_flow", "income", "ratio"}))
	})
})
