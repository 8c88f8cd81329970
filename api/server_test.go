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
package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/finmetrics/api"
	"github.com/penny-vault/finmetrics/config"
	"github.com/penny-vault/finmetrics/data"
	"github.com/penny-vault/finmetrics/library"
)

func ptr[T any](v T) *T {
	return &v
}

var errBroken = errors.New("connection reset")

// brokenStore fails every query
type brokenStore struct{}

func (brokenStore) Ping(context.Context) error { return errBroken }
func (brokenStore) PeerMetrics(context.Context, string) ([]*library.PeerMetric, error) {
	return nil, errBroken
}
func (brokenStore) PriceTargets(context.Context, string) ([]*library.PriceTargetNews, error) {
	return nil, errBroken
}
func (brokenStore) AnalystEstimates(context.Context, string) ([]*data.AnalystEstimate, error) {
	return nil, errBroken
}
func (brokenStore) Companies(context.Context) ([]string, error) { return nil, errBroken }
func (brokenStore) MetricNames(context.Context, string) ([]string, error) {
	return nil, errBroken
}
func (brokenStore) Financials(context.Context, string, library.FinancialFilter) ([]*library.FinancialMetric, error) {
	return nil, errBroken
}
func (brokenStore) TimeSeries(context.Context, string, library.TimeSeriesFilter) ([]*library.TimeSeriesPoint, error) {
	return nil, errBroken
}

func get(server *api.Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeList(rec *httptest.ResponseRecorder) []map[string]any {
	var out []map[string]any
	Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
	return out
}

var _ = Describe("Server", func() {
	var server *api.Server

	Context("backed by a library", func() {
		BeforeEach(func() {
			ctx := context.Background()
			myLibrary, err := library.Connect(ctx, config.Database{
				Type: config.SQLite,
				Path: filepath.Join(GinkgoT().TempDir(), "api.db"),
			})
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(myLibrary.Close)
			Expect(myLibrary.EnsureSchema(ctx)).To(Succeed())

			result := myLibrary.Load(ctx, []data.Record{
				&data.StockPeer{Symbol: "AAPL", PeerSymbol: "MSFT", CompanyName: "Microsoft Corporation"},
				&data.Ratios{Symbol: "MSFT", Date: "2024-06-30", Period: "FY", FiscalYear: 2024, GrossProfitMargin: ptr(0.6982)},
				&data.IncomeStatement{
					StatementHeader: data.StatementHeader{Symbol: "MSFT", Date: "2024-06-30", Period: "FY", FiscalYear: 2024},
					Revenue:         ptr(245122000000.0),
				},
				&data.IncomeStatement{
					StatementHeader: data.StatementHeader{Symbol: "MSFT", Date: "2020-12-31", Period: "Q2", FiscalYear: 2021},
					Revenue:         ptr(43076000000.0),
				},
				&data.PriceTarget{Symbol: "AAPL", PublishedDate: "2024-11-01T09:00:00.000Z", AnalystCompany: "Wedbush",
					PriceTarget: ptr(300.0), PriceWhenPosted: ptr(250.0)},
				&data.AnalystEstimate{Symbol: "AAPL", Date: "2025-09-27", Period: "annual", EPSAvg: ptr(7.35)},
			})
			Expect(result.Failed).To(Equal(0))

			server = api.New(myLibrary)
		})

		It("describes itself at the root", func() {
			rec := get(server, "/")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"name":"finmetrics"`))
			Expect(rec.Body.String()).To(ContainSubstring("/peer-metrics/{symbol}"))
		})

		It("reports health", func() {
			rec := get(server, "/health")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"ok"`))
		})

		It("returns peer metrics with flattened margins", func() {
			rec := get(server, "/peer-metrics/aapl")
			Expect(rec.Code).To(Equal(http.StatusOK))

			peers := decodeList(rec)
			Expect(peers).To(HaveLen(1))
			Expect(peers[0]).To(HaveKeyWithValue("symbol", "MSFT"))
			Expect(peers[0]).To(HaveKeyWithValue("grossProfitMargin", 0.6982))
			Expect(peers[0]).To(HaveKeyWithValue("revenue", 245122000000.0))
			Expect(peers[0]).To(HaveKeyWithValue("ebitMargin", BeNil()))
		})

		It("returns price targets with upside", func() {
			rec := get(server, "/price-target-news/AAPL")
			Expect(rec.Code).To(Equal(http.StatusOK))

			targets := decodeList(rec)
			Expect(targets).To(HaveLen(1))
			Expect(targets[0]).To(HaveKeyWithValue("analystCompany", "Wedbush"))
			Expect(targets[0]).To(HaveKeyWithValue("upside", 20.0))
		})

		It("returns analyst estimates", func() {
			rec := get(server, "/analyst-estimates/AAPL")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decodeList(rec)[0]).To(HaveKeyWithValue("epsAvg", 7.35))
		})

		It("returns an empty array when nothing matches", func() {
			for _, target := range []string{"/peer-metrics/ZZZZ", "/price-target-news/ZZZZ", "/analyst-estimates/ZZZZ",
				"/financial/ZZZZ", "/time-series/ZZZZ", "/metrics/bogus"} {
				rec := get(server, target)
				Expect(rec.Code).To(Equal(http.StatusOK), target)
				Expect(rec.Body.String()).To(MatchJSON(`[]`), target)
			}
		})

		It("rejects malformed symbols with 404", func() {
			rec := get(server, "/peer-metrics/NOT_A_TICKER!")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(rec.Body.String()).To(ContainSubstring(`"error"`))

			Expect(get(server, "/financial/WAYTOOLONGSYMBOL").Code).To(Equal(http.StatusNotFound))
			Expect(get(server, "/time-series/...").Code).To(Equal(http.StatusNotFound))
		})

		It("lists companies and metric names", func() {
			rec := get(server, "/companies")
			Expect(rec.Body.String()).To(MatchJSON(`["AAPL", "MSFT"]`))

			rec = get(server, "/metrics/income")
			Expect(rec.Body.String()).To(MatchJSON(`["revenue"]`))
		})

		It("filters financial rows by year and quarter", func() {
			rec := get(server, "/financial/MSFT?metric_type=income&year=2021&quarter=Q2")
			Expect(rec.Code).To(Equal(http.StatusOK))

			rows := decodeList(rec)
			Expect(rows).To(HaveLen(1))
			Expect(rows[0]).To(HaveKeyWithValue("date", "2020-12-31"))
			Expect(rows[0]).To(HaveKeyWithValue("metric_values", HaveKeyWithValue("revenue", 43076000000.0)))
		})

		It("rejects invalid query parameters", func() {
			Expect(get(server, "/financial/MSFT?year=soon").Code).To(Equal(http.StatusBadRequest))
			Expect(get(server, "/financial/MSFT?quarter=Q7").Code).To(Equal(http.StatusBadRequest))
			Expect(get(server, "/financial/MSFT?metric_type=vibes").Code).To(Equal(http.StatusBadRequest))
			Expect(get(server, "/time-series/MSFT?period=weekly").Code).To(Equal(http.StatusBadRequest))
		})

		It("returns time series points", func() {
			rec := get(server, "/time-series/MSFT?metrics=revenue&period=annual&start_year=2024")
			Expect(rec.Code).To(Equal(http.StatusOK))

			points := decodeList(rec)
			Expect(points).To(HaveLen(1))
			Expect(points[0]).To(HaveKeyWithValue("metrics", HaveKeyWithValue("revenue", 245122000000.0)))
			Expect(points[0]["metrics"]).NotTo(HaveKey("grossProfitMargin"))
		})

		It("exposes request counters", func() {
			get(server, "/companies")
			rec := get(server, "/prometheus")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`finmetrics_http_requests_total{method="GET",path="/companies",status="200"} 1`))
		})
	})

	Context("when storage fails", func() {
		BeforeEach(func() {
			server = api.New(brokenStore{})
		})

		It("answers with a generic 500", func() {
			for _, target := range []string{"/peer-metrics/AAPL", "/price-target-news/AAPL", "/analyst-estimates/AAPL",
				"/companies", "/metrics/income", "/financial/AAPL", "/time-series/AAPL"} {
				rec := get(server, target)
				Expect(rec.Code).To(Equal(http.StatusInternalServerError), target)
				Expect(rec.Body.String()).To(MatchJSON(`{"error": "internal server error"}`), target)
				Expect(rec.Body.String()).NotTo(ContainSubstring("connection reset"))
			}
		})

		It("reports unhealthy", func() {
			Expect(get(server, "/health").Code).To(Equal(http.StatusServiceUnavailable))
		})
	})
})
