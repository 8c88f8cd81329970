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
package fmp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/penny-vault/finmetrics/config"
	"github.com/penny-vault/finmetrics/data"
	"github.com/penny-vault/finmetrics/pkginfo"
)

var (
	ErrUpstream         = errors.New("fmp request failed")
	ErrStatus           = errors.New("status code is invalid")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Client calls the FMP stable API. It is safe to share between goroutines
// but the ETL uses it sequentially.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	limit   int

	periods            []string
	transcriptQuarters int
}

// New creates a client from the FMP configuration section
func New(conf config.FMP) *Client {
	client := resty.New().
		SetBaseURL(conf.BaseURL).
		SetTimeout(conf.Timeout).
		SetQueryParam("apikey", conf.APIKey).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", pkginfo.UserAgent())

	rateLimit := conf.RateLimit
	if rateLimit <= 0 {
		rateLimit = 300
	}

	return &Client{
		http:               client,
		limiter:            rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(61)), 1),
		limit:              conf.Limit,
		periods:            conf.Periods(),
		transcriptQuarters: conf.TranscriptQuarters,
	}
}

// Periods returns the reporting periods requested from period aware
// endpoints, e.g. ["annual", "quarter"]
func (client *Client) Periods() []string {
	return client.periods
}

// TranscriptQuarters returns the quarters whose earnings call transcripts
// are requested, most recent first
func (client *Client) TranscriptQuarters() []Quarter {
	return RecentQuarters(time.Now(), client.transcriptQuarters)
}

// get requests endpoint and returns the raw JSON array. Transport failures,
// non-2xx responses and bodies that are not a JSON array are all reported
// as ErrUpstream.
func (client *Client) get(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	if err := client.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
	}

	resp, err := client.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		logger.Error().Err(err).Str("Endpoint", endpoint).Msg("resty returned an error when querying fmp")
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
	}

	if resp.StatusCode() >= 300 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("Endpoint", endpoint).
			Str("Symbol", params["symbol"]).Msg("fmp returned an invalid HTTP response")
		return nil, fmt.Errorf("%w: %s: %w: %d", ErrUpstream, endpoint, ErrStatus, resp.StatusCode())
	}

	body := resp.Body()
	if err := checkPayload(body); err != nil {
		logger.Error().Err(err).Str("Endpoint", endpoint).Str("Symbol", params["symbol"]).Msg("fmp returned a malformed payload")
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
	}

	return body, nil
}

// checkPayload makes sure body is a JSON array. FMP reports some errors
// (bad API key, plan limits) as an object with a 200 status.
func checkPayload(body []byte) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: invalid json", ErrMalformedPayload)
	}

	result := gjson.ParseBytes(body)
	if msg := result.Get("Error Message"); msg.Exists() {
		return fmt.Errorf("%w: %s", ErrMalformedPayload, msg.String())
	}

	if !result.IsArray() {
		return fmt.Errorf("%w: expected a json array", ErrMalformedPayload)
	}

	return nil
}

// decode requests endpoint and unmarshals the JSON array into items of type T
func decode[T any](ctx context.Context, client *Client, endpoint, symbol string, params map[string]string) ([]*T, error) {
	body, err := client.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var items []*T
	if err := json.Unmarshal(body, &items); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("Endpoint", endpoint).Str("Symbol", symbol).Msg("could not decode fmp response")
		return nil, fmt.Errorf("%w: %s: %w: %w", ErrUpstream, endpoint, ErrMalformedPayload, err)
	}

	return items, nil
}

// fetch decodes an endpoint's array into records, lets prepare fill in
// fields FMP leaves blank, and drops records that fail validation
func fetch[T any, PT interface {
	*T
	data.Record
}](ctx context.Context, client *Client, endpoint, symbol string, params map[string]string, prepare func(PT)) ([]PT, error) {
	items, err := decode[T](ctx, client, endpoint, symbol, params)
	if err != nil {
		return nil, err
	}

	records := make([]PT, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		rec := PT(item)
		prepare(rec)
		if !keep(ctx, endpoint, symbol, rec) {
			continue
		}

		records = append(records, rec)
	}

	zerolog.Ctx(ctx).Debug().Str("Endpoint", endpoint).Str("Symbol", symbol).Int("NumRecords", len(records)).Msg("fetched records from fmp")

	return records, nil
}

func keep(ctx context.Context, endpoint, symbol string, rec data.Record) bool {
	if err := rec.Validate(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("Endpoint", endpoint).Str("Symbol", symbol).Msg("dropping invalid record")
		return false
	}

	return true
}

func (client *Client) periodParams(symbol, period string) map[string]string {
	return map[string]string{
		"symbol": symbol,
		"period": period,
		"limit":  strconv.Itoa(client.limit),
	}
}

func (client *Client) pageParams(symbol string) map[string]string {
	return map[string]string{
		"symbol": symbol,
		"page":   "0",
		"limit":  strconv.Itoa(client.limit),
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// normalizeText converts CRLF and lone CR line endings to LF so text reads
// back from a CSV snapshot exactly as it was stored
func normalizeText(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
}
