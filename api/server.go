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
package api

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/penny-vault/finmetrics/data"
	"github.com/penny-vault/finmetrics/library"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// requestTimeout bounds every storage call made by a handler
const requestTimeout = 10 * time.Second

var (
	tickerPattern = regexp.MustCompile(`^[A-Z0-9.^/-]{1,10}$`)
	alphanumeric  = regexp.MustCompile(`[A-Z0-9]`)
)

// Store is the read side of the library used by the API
type Store interface {
	Ping(ctx context.Context) error
	PeerMetrics(ctx context.Context, symbol string) ([]*library.PeerMetric, error)
	PriceTargets(ctx context.Context, symbol string) ([]*library.PriceTargetNews, error)
	AnalystEstimates(ctx context.Context, symbol string) ([]*data.AnalystEstimate, error)
	Companies(ctx context.Context) ([]string, error)
	MetricNames(ctx context.Context, metricType string) ([]string, error)
	Financials(ctx context.Context, symbol string, filter library.FinancialFilter) ([]*library.FinancialMetric, error)
	TimeSeries(ctx context.Context, symbol string, filter library.TimeSeriesFilter) ([]*library.TimeSeriesPoint, error)
}

// Server serves the stored financial data as JSON
type Server struct {
	echo     *echo.Echo
	store    Store
	validate *validator.Validate
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// New builds the echo server and registers every route
func New(store Store) *Server {
	server := &Server{
		echo:     echo.New(),
		store:    store,
		validate: newValidator(),
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmetrics_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}

	server.registry.MustRegister(
		server.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	e := server.echo
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().Str("Method", v.Method).Str("URI", v.URI).Int("Status", v.Status).Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(server.countRequests)

	e.GET("/", server.root)
	e.GET("/health", server.health)
	e.GET("/companies", server.companies)
	e.GET("/metrics/:type", server.metricNames)
	e.GET("/peer-metrics/:symbol", server.peerMetrics)
	e.GET("/price-target-news/:symbol", server.priceTargetNews)
	e.GET("/analyst-estimates/:symbol", server.analystEstimates)
	e.GET("/financial/:symbol", server.financial)
	e.GET("/time-series/:symbol", server.timeSeries)
	e.GET("/prometheus", echo.WrapHandler(promhttp.HandlerFor(server.registry, promhttp.HandlerOpts{})))

	return server
}

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		ticker := fl.Field().String()
		return tickerPattern.MatchString(ticker) && alphanumeric.MatchString(ticker)
	}); err != nil {
		log.Panic().Err(err).Msg("could not register ticker validation")
	}

	return validate
}

// Handler exposes the router, e.g. for httptest
func (server *Server) Handler() http.Handler {
	return server.echo
}

// Start listens on addr until Shutdown is called
func (server *Server) Start(addr string) error {
	log.Info().Str("Addr", addr).Msg("starting api server")
	if err := server.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown gracefully stops the server
func (server *Server) Shutdown(ctx context.Context) error {
	return server.echo.Shutdown(ctx)
}

func (server *Server) countRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)

		status := c.Response().Status
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
		}

		server.requests.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
		return err
	}
}
