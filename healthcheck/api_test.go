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
package healthcheck_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/penny-vault/finmetrics/config"
	"github.com/penny-vault/finmetrics/healthcheck"
)

var _ = Describe("Client", func() {
	var (
		server *ghttp.Server
		client *healthcheck.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = ghttp.NewServer()
		DeferCleanup(server.Close)

		client = healthcheck.New(config.Healthchecks{PingURL: server.URL() + "/", CheckID: "abc-123"})
	})

	It("pings the start endpoint", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/abc-123/start"),
			ghttp.RespondWith(http.StatusOK, "OK"),
		))

		Expect(client.Start(ctx)).To(Succeed())
		Expect(server.ReceivedRequests()).To(HaveLen(1))
	})

	It("sends the run summary on success", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/abc-123"),
			ghttp.VerifyBody([]byte("2 symbols, 0 failed")),
			ghttp.RespondWith(http.StatusOK, "OK"),
		))

		Expect(client.Success(ctx, "2 symbols, 0 failed")).To(Succeed())
	})

	It("pings the fail endpoint", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/abc-123/fail"),
			ghttp.RespondWith(http.StatusOK, "OK"),
		))

		Expect(client.Fail(ctx, "every symbol failed")).To(Succeed())
	})

	It("reports rejected pings", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, "not found"))

		Expect(client.Start(ctx)).To(MatchError(healthcheck.ErrStatus))
	})

	It("does nothing without a check id", func() {
		disabled := healthcheck.New(config.Healthchecks{PingURL: server.URL()})
		Expect(disabled.Enabled()).To(BeFalse())
		Expect(disabled.Start(ctx)).To(Succeed())
		Expect(disabled.Success(ctx, "done")).To(Succeed())
		Expect(server.ReceivedRequests()).To(BeEmpty())
	})
})
