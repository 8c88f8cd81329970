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
package cmd

import (
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/finmetrics/config"
	"github.com/penny-vault/finmetrics/etl"
)

var _ = Describe("Run command", func() {
	AfterEach(func() {
		runSymbols = nil
		runLimit = defaultRunLimit
		peersOnly = false
		peersWithData = false
		priceTargetsOnly = false
	})

	Describe("mode selection", func() {
		It("defaults to a full run", func() {
			Expect(runMode()).To(Equal(etl.ModeFull))
		})

		It("maps each mode flag", func() {
			peersOnly = true
			Expect(runMode()).To(Equal(etl.ModePeersOnly))

			peersOnly = false
			peersWithData = true
			Expect(runMode()).To(Equal(etl.ModePeersWithData))

			peersWithData = false
			priceTargetsOnly = true
			Expect(runMode()).To(Equal(etl.ModePriceTargetsOnly))
		})
	})

	Describe("symbol list", func() {
		conf := &config.Config{Symbols: []string{"aapl", "MSFT", "GOOGL", "AMZN"}}

		It("uses the configured symbols truncated to the limit", func() {
			runLimit = 2
			Expect(runSymbolList(conf)).To(Equal([]string{"AAPL", "MSFT"}))
		})

		It("processes the first three configured symbols by default", func() {
			Expect(runCmd.Flags().Lookup("limit").DefValue).To(Equal("3"))
			Expect(runSymbolList(conf)).To(Equal([]string{"AAPL", "MSFT", "GOOGL"}))
		})

		It("uses every configured symbol when the limit is 0", func() {
			runLimit = 0
			Expect(runSymbolList(conf)).To(HaveLen(4))
		})

		It("prefers explicit symbols and ignores the limit", func() {
			runSymbols = []string{" tsla", "nvda", "TSLA"}
			runLimit = 1
			Expect(runSymbolList(conf)).To(Equal([]string{"TSLA", "NVDA"}))
		})
	})

	Describe("summary output", func() {
		var summary *etl.Summary

		BeforeEach(func() {
			started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			summary = &etl.Summary{
				RunID:      uuid.MustParse("5b0b6f3c-0d3e-4c36-8d0a-1f7f3f8a9c10"),
				Mode:       etl.ModeFull,
				StartedAt:  started,
				FinishedAt: started.Add(90 * time.Second),
				Requested:  []string{"AAPL", "BAD"},
				Symbols: []*etl.SymbolResult{
					{
						Symbol: "AAPL",
						Peers:  []string{"MSFT"},
						Datasets: []*etl.DatasetResult{
							{Dataset: "ratios", Fetched: 2, Loaded: 2},
							{Dataset: "stock-peers", Fetched: 1, Loaded: 1},
						},
					},
					{
						Symbol: "BAD",
						Datasets: []*etl.DatasetResult{
							{Dataset: "ratios", Err: errors.New("boom")},
						},
					},
				},
			}
		})

		It("renders each symbol with failed datasets", func() {
			out := renderSummary(summary)
			Expect(out).To(ContainSubstring("5b0b6f3c-0d3e-4c36-8d0a-1f7f3f8a9c10"))
			Expect(out).To(ContainSubstring("2 requested, 1 failed"))
			Expect(out).To(ContainSubstring("peers: MSFT"))
			Expect(out).To(ContainSubstring("failed: ratios"))
		})

		It("builds the healthcheck body", func() {
			Expect(summaryText(summary)).To(HavePrefix("run 5b0b6f3c-0d3e-4c36-8d0a-1f7f3f8a9c10 mode=full symbols=2 failed=1 records=3"))
		})
	})

	It("documents every dataset and mode", func() {
		doc := datasetsDocument()
		for name := range etl.Datasets {
			Expect(doc).To(ContainSubstring("| " + name + " |"))
		}
		Expect(doc).To(ContainSubstring("* **peers-with-data**: stock-peers"))
	})
})
