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
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/finmetrics/config"
	"github.com/penny-vault/finmetrics/pkginfo"
	"github.com/rs/zerolog"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// healthchecks.io truncates ping bodies larger than this
const maxBodySize = 100_000

// Client pings a healthchecks.io check when a run starts, succeeds or
// fails. A client without a check id does nothing.
type Client struct {
	http    *resty.Client
	checkID string
}

func New(conf config.Healthchecks) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(conf.PingURL, "/")).
		SetTimeout(10*time.Second).
		SetHeader("User-Agent", pkginfo.UserAgent())

	return &Client{
		http:    client,
		checkID: conf.CheckID,
	}
}

// Enabled reports whether a check id is configured
func (client *Client) Enabled() bool {
	return client.checkID != ""
}

// Start signals that a run has begun
func (client *Client) Start(ctx context.Context) error {
	return client.ping(ctx, "/start", "")
}

// Success signals that the run finished; body is attached to the ping
func (client *Client) Success(ctx context.Context, body string) error {
	return client.ping(ctx, "", body)
}

// Fail signals that the run failed
func (client *Client) Fail(ctx context.Context, body string) error {
	return client.ping(ctx, "/fail", body)
}

func (client *Client) ping(ctx context.Context, suffix, body string) error {
	if !client.Enabled() {
		return nil
	}

	if len(body) > maxBodySize {
		body = body[:maxBodySize]
	}

	url := fmt.Sprintf("/%s%s", client.checkID, suffix)
	resp, err := client.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(body).
		Post(url)

	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("URL", url).Msg("healthcheck ping failed")
		return err
	}

	if resp.StatusCode() != 200 {
		zerolog.Ctx(ctx).Warn().Int("StatusCode", resp.StatusCode()).Str("URL", url).Msg("healthcheck ping rejected")
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
