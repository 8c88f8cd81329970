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
package fmp_test

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/penny-vault/finmetrics/config"
	"github.com/penny-vault/finmetrics/data"
	"github.com/penny-vault/finmetrics/fmp"
)

var jsonHeader = http.Header{"Content-Type": []string{"application/json"}}

var _ = Describe("Client", func() {
	var (
		server *ghttp.Server
		client *fmp.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		client = fmp.New(config.FMP{
			APIKey:    "test-key",
			BaseURL:   server.URL(),
			Period:    config.PeriodAnnual,
			Limit:     5,
			RateLimit: 60000,
			Timeout:   5 * time.Second,
		})
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("IncomeStatements", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, fmp.IncomeStatementPath, "apikey=test-key&symbol=AAPL&period=annual&limit=5"),
				ghttp.RespondWith(http.StatusOK, `[
					{"date": "2024-09-28", "symbol": "AAPL", "reportedCurrency": "USD", "fiscalYear": "2024",
					 "period": "FY", "revenue": 391035000000, "netIncome": 93736000000, "eps": 6.11},
					{"date": "2023-09-30", "reportedCurrency": "USD", "fiscalYear": 2023, "period": "FY",
					 "revenue": 383285000000, "eps": null},
					{"symbol": "AAPL", "period": "FY", "revenue": 1}
				]`, jsonHeader),
			))
		})

		It("serializes the query and decodes typed records", func() {
			statements, err := client.IncomeStatements(ctx, " aapl ", config.PeriodAnnual)
			Expect(err).NotTo(HaveOccurred())
			Expect(server.ReceivedRequests()).To(HaveLen(1))

			Expect(statements).To(HaveLen(2))
			Expect(statements[0].FiscalYear).To(Equal(data.Year(2024)))
			Expect(*statements[0].Revenue).To(Equal(391035000000.0))
			Expect(*statements[0].EPS).To(Equal(6.11))
			Expect(statements[0].EBITDA).To(BeNil())
		})

		It("fills in a missing symbol and drops records without a date", func() {
			statements, err := client.IncomeStatements(ctx, "AAPL", config.PeriodAnnual)
			Expect(err).NotTo(HaveOccurred())
			Expect(statements).To(HaveLen(2))
			Expect(statements[1].Symbol).To(Equal("AAPL"))
			Expect(statements[1].FiscalYear).To(Equal(data.Year(2023)))
			Expect(statements[1].EPS).To(BeNil())
		})
	})

	It("requests the period it is given", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodGet, fmp.RatiosPath, "apikey=test-key&symbol=AAPL&period=quarter&limit=5"),
			ghttp.RespondWith(http.StatusOK, `[{"date": "2024-12-28", "symbol": "AAPL", "fiscalYear": "2025", "period": "Q1"}]`, jsonHeader),
		))

		ratios, err := client.Ratios(ctx, "AAPL", config.PeriodQuarter)
		Expect(err).NotTo(HaveOccurred())
		Expect(ratios).To(HaveLen(1))
		Expect(ratios[0].Period).To(Equal("Q1"))
	})

	It("lists the configured periods", func() {
		Expect(client.Periods()).To(Equal([]string{config.PeriodAnnual}))

		both := fmp.New(config.FMP{APIKey: "test-key", BaseURL: server.URL(), Period: config.PeriodBoth})
		Expect(both.Periods()).To(Equal([]string{config.PeriodAnnual, config.PeriodQuarter}))
	})

	DescribeTable("reports upstream failures",
		func(status int, body string, expected error) {
			server.AppendHandlers(ghttp.RespondWith(status, body, jsonHeader))

			_, err := client.Ratios(ctx, "AAPL", config.PeriodAnnual)
			Expect(err).To(MatchError(fmp.ErrUpstream))
			Expect(err).To(MatchError(expected))
		},
		Entry("server error", http.StatusInternalServerError, `{"message": "boom"}`, fmp.ErrStatus),
		Entry("unauthorized", http.StatusUnauthorized, ``, fmp.ErrStatus),
		Entry("error object", http.StatusOK, `{"Error Message": "Invalid API KEY."}`, fmp.ErrMalformedPayload),
		Entry("object instead of array", http.StatusOK, `{"symbol": "AAPL"}`, fmp.ErrMalformedPayload),
		Entry("invalid json", http.StatusOK, `[{"symbol": `, fmp.ErrMalformedPayload),
		Entry("wrong field type", http.StatusOK, `[{"symbol": "AAPL", "grossProfitMargin": "high"}]`, fmp.ErrMalformedPayload),
	)

	It("reports transport failures as upstream errors", func() {
		server.Close()

		_, err := client.BalanceSheets(ctx, "AAPL", config.PeriodAnnual)
		Expect(err).To(MatchError(fmp.ErrUpstream))
	})

	It("returns an empty sequence for an empty array", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `[]`, jsonHeader))

		flows, err := client.CashFlowStatements(ctx, "AAPL", config.PeriodQuarter)
		Expect(err).NotTo(HaveOccurred())
		Expect(flows).To(BeEmpty())
	})

	Describe("AnalystEstimates", func() {
		It("requests the first page and stamps the requested period", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, fmp.AnalystEstimatesPath, "apikey=test-key&symbol=MSFT&period=annual&page=0&limit=5"),
				ghttp.RespondWith(http.StatusOK, `[{"symbol": "MSFT", "date": "2026-06-30", "revenueAvg": 318000000000,
					"epsAvg": 15.2, "numAnalystsRevenue": 21, "numAnalystsEps": 19}]`, jsonHeader),
			))

			estimates, err := client.AnalystEstimates(ctx, "MSFT", config.PeriodAnnual)
			Expect(err).NotTo(HaveOccurred())
			Expect(estimates).To(HaveLen(1))
			Expect(estimates[0].Period).To(Equal(config.PeriodAnnual))
			Expect(*estimates[0].NumAnalystsEPS).To(Equal(19))
		})
	})

	Describe("StockPeers", func() {
		It("relates every distinct peer to the queried symbol", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, fmp.StockPeersPath, "apikey=test-key&symbol=AAPL"),
				ghttp.RespondWith(http.StatusOK, `[
					{"symbol": "MSFT", "companyName": "Microsoft Corporation", "price": 410.5, "mktCap": 3050000000000},
					{"symbol": "AAPL", "companyName": "Apple Inc."},
					{"symbol": "GOOGL", "companyName": "Alphabet Inc."},
					{"symbol": "msft", "companyName": "Microsoft Corporation"}
				]`, jsonHeader),
			))

			peers, err := client.StockPeers(ctx, "AAPL")
			Expect(err).NotTo(HaveOccurred())
			Expect(peers).To(HaveLen(2))
			Expect(peers[0]).To(Equal(&data.StockPeer{
				Symbol:      "AAPL",
				PeerSymbol:  "MSFT",
				CompanyName: "Microsoft Corporation",
				Price:       peers[0].Price,
				MarketCap:   peers[0].MarketCap,
			}))
			Expect(*peers[0].MarketCap).To(Equal(3050000000000.0))
			Expect(peers[1].PeerSymbol).To(Equal("GOOGL"))
		})
	})

	Describe("PriceTargets", func() {
		It("decodes the news fields", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, fmp.PriceTargetNewsPath, "apikey=test-key&symbol=AAPL&page=0&limit=5"),
				ghttp.RespondWith(http.StatusOK, `[{"symbol": "AAPL", "publishedDate": "2025-02-06T14:21:00.000Z",
					"newsURL": "https://example.com/a", "newsTitle": "Raised", "analystName": null,
					"priceTarget": 275, "adjPriceTarget": 275, "priceWhenPosted": 232.8,
					"newsPublisher": "TheFly", "newsBaseURL": "example.com", "analystCompany": "Wedbush"}]`, jsonHeader),
			))

			targets, err := client.PriceTargets(ctx, "AAPL")
			Expect(err).NotTo(HaveOccurred())
			Expect(targets).To(HaveLen(1))
			Expect(targets[0].AnalystName).To(BeEmpty())
			Expect(targets[0].AnalystCompany).To(Equal("Wedbush"))
			Expect(*targets[0].PriceWhenPosted).To(Equal(232.8))
		})
	})

	Describe("PressReleases", func() {
		It("sends the symbols parameter", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, fmp.PressReleasesPath, "apikey=test-key&symbols=AAPL&limit=5"),
				ghttp.RespondWith(http.StatusOK, `[{"symbol": "AAPL", "publishedDate": "2025-01-30 16:30:00",
					"publisher": "Business Wire", "title": "Apple reports first quarter results", "text": "..."}]`, jsonHeader),
			))

			releases, err := client.PressReleases(ctx, "AAPL")
			Expect(err).NotTo(HaveOccurred())
			Expect(releases).To(HaveLen(1))
			Expect(releases[0].Publisher).To(Equal("Business Wire"))
		})

		It("normalizes line endings in the title and text", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `[{"symbol": "AAPL", "publishedDate": "2025-01-30 16:30:00",
				"title": "Apple reports\r\nresults", "text": "first line\r\nsecond line\rthird line"}]`, jsonHeader))

			releases, err := client.PressReleases(ctx, "AAPL")
			Expect(err).NotTo(HaveOccurred())
			Expect(releases).To(HaveLen(1))
			Expect(releases[0].Title).To(Equal("Apple reports\nresults"))
			Expect(releases[0].Text).To(Equal("first line\nsecond line\nthird line"))
		})
	})

	Describe("EarningsTranscripts", func() {
		It("requests the year and quarter and fills in missing fields", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, fmp.TranscriptPath, "apikey=test-key&symbol=AAPL&year=2024&quarter=4"),
				ghttp.RespondWith(http.StatusOK, `[{"date": "2024-10-31 17:00:00",
					"content": "Operator: Good day.\r\nTim Cook: Thank you."}]`, jsonHeader),
			))

			transcripts, err := client.EarningsTranscripts(ctx, "aapl", fmp.Quarter{Year: 2024, Quarter: 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(transcripts).To(HaveLen(1))
			Expect(transcripts[0].Symbol).To(Equal("AAPL"))
			Expect(transcripts[0].Period).To(Equal("Q4"))
			Expect(transcripts[0].Year).To(Equal(data.Year(2024)))
			Expect(transcripts[0].Content).To(Equal("Operator: Good day.\nTim Cook: Thank you."))
		})

		It("returns nothing when no call was transcribed", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `[]`, jsonHeader))

			transcripts, err := client.EarningsTranscripts(ctx, "AAPL", fmp.Quarter{Year: 2024, Quarter: 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(transcripts).To(BeEmpty())
		})
	})
})

var _ = Describe("Quarter", func() {
	DescribeTable("lists the completed quarters before now",
		func(now string, n int, expected []string) {
			at, err := time.Parse("2006-01-02", now)
			Expect(err).NotTo(HaveOccurred())

			quarters := fmp.RecentQuarters(at, n)
			names := make([]string, len(quarters))
			for idx, quarter := range quarters {
				names[idx] = quarter.String()
			}
			Expect(names).To(Equal(expected))
		},
		Entry("mid year", "2024-08-15", 3, []string{"2024Q2", "2024Q1", "2023Q4"}),
		Entry("first quarter", "2025-01-02", 2, []string{"2024Q4", "2024Q3"}),
		Entry("none", "2025-01-02", 0, []string{}),
	)

	It("parses its own string form", func() {
		quarter, err := fmp.ParseQuarter("2024Q3")
		Expect(err).NotTo(HaveOccurred())
		Expect(quarter).To(Equal(fmp.Quarter{Year: 2024, Quarter: 3}))

		_, err = fmp.ParseQuarter("2024Q5")
		Expect(err).To(HaveOccurred())
		_, err = fmp.ParseQuarter("annual")
		Expect(err).To(HaveOccurred())
	})
})
