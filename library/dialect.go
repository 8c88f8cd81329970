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
package library

import (
	"fmt"
	"slices"
	"strings"
)

// Dialect captures the SQL differences between the supported databases
type Dialect struct {
	Name string

	placeholder func(n int) string
	date        func(col string) string
	json        func(col string) string
}

var SQLiteDialect = Dialect{
	Name:        "sqlite",
	placeholder: func(int) string { return "?" },
	date:        func(col string) string { return col },
	json:        func(col string) string { return col },
}

var PostgresDialect = Dialect{
	Name:        "postgres",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	date:        func(col string) string { return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", col) },
	json:        func(col string) string { return col + "::text" },
}

// Placeholder returns the bind parameter for the nth (1-based) argument
func (d Dialect) Placeholder(n int) string {
	return d.placeholder(n)
}

// Date renders a DATE column as YYYY-MM-DD text
func (d Dialect) Date(col string) string {
	return d.date(col)
}

// JSON renders a JSON column as text
func (d Dialect) JSON(col string) string {
	return d.json(col)
}

// Upsert builds an INSERT that replaces the non-key columns of an existing
// row with the same key
func (d Dialect) Upsert(table string, columns, key []string) string {
	quoted := make([]string, len(columns))
	params := make([]string, len(columns))
	updates := make([]string, 0, len(columns))

	for idx, col := range columns {
		quoted[idx] = quote(col)
		params[idx] = d.Placeholder(idx + 1)
		if !slices.Contains(key, col) {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quote(col), quote(col)))
		}
	}

	quotedKey := make([]string, len(key))
	for idx, col := range key {
		quotedKey[idx] = quote(col)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		quote(table), strings.Join(quoted, ", "), strings.Join(params, ", "), strings.Join(quotedKey, ", "))

	if len(updates) == 0 {
		sb.WriteString("DO NOTHING")
	} else {
		sb.WriteString("DO UPDATE SET ")
		sb.WriteString(strings.Join(updates, ", "))
	}

	return sb.String()
}

// query collects SQL fragments and their arguments, numbering placeholders
// as it goes
type query struct {
	dialect Dialect
	sb      strings.Builder
	args    []any
}

func (d Dialect) newQuery(sql string) *query {
	q := &query{dialect: d}
	q.sb.WriteString(sql)
	return q
}

// bind appends fragment, replacing each '?' with the placeholder of the
// matching argument
func (q *query) bind(fragment string, args ...any) *query {
	next := 0
	for _, ch := range fragment {
		if ch == '?' && next < len(args) {
			q.args = append(q.args, args[next])
			next++
			q.sb.WriteString(q.dialect.Placeholder(len(q.args)))
			continue
		}
		q.sb.WriteRune(ch)
	}

	return q
}

func (q *query) String() string {
	return q.sb.String()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
