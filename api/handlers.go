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
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/penny-vault/finmetrics/data"
	"github.com/penny-vault/finmetrics/library"
	"github.com/penny-vault/finmetrics/pkginfo"
	"github.com/rs/zerolog/log"
)

var endpoints = []string{
	"/",
	"/health",
	"/companies",
	"/metrics/{metric_type}",
	"/peer-metrics/{symbol}",
	"/price-target-news/{symbol}",
	"/analyst-estimates/{symbol}",
	"/financial/{symbol}?metric_type=&year=&quarter=",
	"/time-series/{symbol}?metrics=&start_year=&end_year=&period=",
	"/prometheus",
}

type errorResponse struct {
	Error string `json:"error"`
}

type financialQuery struct {
	MetricType string `query:"metric_type" validate:"omitempty,oneof=income balance cash_flow ratio analyst"`
	Year       int    `query:"year" validate:"omitempty,min=1900,max=2200"`
	Quarter    string `query:"quarter"`
}

type timeSeriesQuery struct {
	Metrics   string `query:"metrics"`
	StartYear int    `query:"start_year" validate:"omitempty,min=1900,max=2200"`
	EndYear   int    `query:"end_year" validate:"omitempty,min=1900,max=2200"`
	Period    string `query:"period" validate:"omitempty,oneof=annual quarter FY Q fy q"`
}

// symbol reads and validates the :symbol path parameter
func (server *Server) symbol(c echo.Context) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if err := server.validate.Var(symbol, "required,ticker"); err != nil {
		return "", false
	}

	return symbol, true
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: "symbol not found"})
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func storageError(c echo.Context, err error) error {
	log.Error().Err(err).Str("Path", c.Path()).Msg("storage query failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

// respond writes items as a JSON array; nil slices are written as []
func respond[T any](c echo.Context, items []T, err error) error {
	if err != nil {
		return storageError(c, err)
	}

	if items == nil {
		items = []T{}
	}

	return c.JSON(http.StatusOK, items)
}

func (server *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name":      pkginfo.Name,
		"version":   pkginfo.Version,
		"endpoints": endpoints,
	})
}

func (server *Server) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := server.store.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (server *Server) companies(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	companies, err := server.store.Companies(ctx)
	return respond(c, companies, err)
}

func (server *Server) metricNames(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	metricType := strings.ToLower(c.Param("type"))
	if !slices.Contains(data.MetricTypes(), metricType) {
		return respond(c, []string{}, nil)
	}

	names, err := server.store.MetricNames(ctx, metricType)
	return respond(c, names, err)
}

func (server *Server) peerMetrics(c echo.Context) error {
	symbol, ok := server.symbol(c)
	if !ok {
		return notFound(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	peers, err := server.store.PeerMetrics(ctx, symbol)
	return respond(c, peers, err)
}

func (server *Server) priceTargetNews(c echo.Context) error {
	symbol, ok := server.symbol(c)
	if !ok {
		return notFound(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	targets, err := server.store.PriceTargets(ctx, symbol)
	return respond(c, targets, err)
}

func (server *Server) analystEstimates(c echo.Context) error {
	symbol, ok := server.symbol(c)
	if !ok {
		return notFound(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	estimates, err := server.store.AnalystEstimates(ctx, symbol)
	return respond(c, estimates, err)
}

func (server *Server) financial(c echo.Context) error {
	symbol, ok := server.symbol(c)
	if !ok {
		return notFound(c)
	}

	query := financialQuery{}
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return badRequest(c, err)
	}

	if err := server.validate.Struct(query); err != nil {
		return badRequest(c, err)
	}

	filter := library.FinancialFilter{
		MetricType: query.MetricType,
		Year:       query.Year,
	}

	if query.Quarter != "" {
		quarter, err := library.ParseQuarter(query.Quarter)
		if err != nil {
			return badRequest(c, err)
		}
		filter.Quarter = quarter
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	rows, err := server.store.Financials(ctx, symbol, filter)
	return respond(c, rows, err)
}

func (server *Server) timeSeries(c echo.Context) error {
	symbol, ok := server.symbol(c)
	if !ok {
		return notFound(c)
	}

	query := timeSeriesQuery{}
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return badRequest(c, err)
	}

	if err := server.validate.Struct(query); err != nil {
		return badRequest(c, err)
	}

	filter := library.TimeSeriesFilter{
		StartYear: query.StartYear,
		EndYear:   query.EndYear,
		Period:    query.Period,
	}

	for _, metric := range strings.Split(query.Metrics, ",") {
		if metric = strings.TrimSpace(metric); metric != "" {
			filter.Metrics = append(filter.Metrics, metric)
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	points, err := server.store.TimeSeries(ctx, symbol, filter)
	return respond(c, points, err)
}

// compile time check that the library satisfies Store
var _ Store = (*library.Library)(nil)
