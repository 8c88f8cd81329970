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

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Year is a fiscal year. FMP reports it as either a string or a number; zero
// means unknown and is stored as NULL.
type Year int

func (y *Year) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*y = 0
		return nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid fiscal year %q: %w", s, err)
	}

	*y = Year(n)
	return nil
}

func (y Year) Value() (driver.Value, error) {
	if y == 0 {
		return nil, nil
	}

	return int64(y), nil
}

func (y *Year) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*y = 0
	case int64:
		*y = Year(v)
	case float64:
		*y = Year(v)
	case []byte:
		return y.UnmarshalJSON(v)
	case string:
		return y.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Year", src)
	}

	return nil
}

// FiscalQuarter returns the quarter number for periods of the form "Q3";
// annual periods return nil
func FiscalQuarter(period string) *int {
	period = strings.ToUpper(strings.TrimSpace(period))
	if len(period) != 2 || period[0] != 'Q' {
		return nil
	}

	quarter, err := strconv.Atoi(period[1:])
	if err != nil || quarter < 1 || quarter > 4 {
		return nil
	}

	return &quarter
}

// validDate reports whether s starts with a YYYY-MM-DD date
func validDate(s string) bool {
	if len(s) < len(dateLayout) {
		return false
	}

	_, err := time.Parse(dateLayout, s[:len(dateLayout)])
	return err == nil
}

// yearOf returns the calendar year of a YYYY-MM-DD date
func yearOf(date string) Year {
	if !validDate(date) {
		return 0
	}

	year, _ := strconv.Atoi(date[:4])
	return Year(year)
}
