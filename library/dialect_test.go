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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Dialect", func() {
	It("builds a sqlite upsert that updates non-key columns", func() {
		sql := SQLiteDialect.Upsert("stock_peers", []string{"symbol", "peer_symbol", "price"}, []string{"symbol", "peer_symbol"})
		Expect(sql).To(Equal(`INSERT INTO "stock_peers" ("symbol", "peer_symbol", "price") VALUES (?, ?, ?) ` +
			`ON CONFLICT ("symbol", "peer_symbol") DO UPDATE SET "price" = EXCLUDED."price"`))
	})

	It("numbers postgres placeholders", func() {
		sql := PostgresDialect.Upsert("t", []string{"a", "b"}, []string{"a"})
		Expect(sql).To(Equal(`INSERT INTO "t" ("a", "b") VALUES ($1, $2) ON CONFLICT ("a") DO UPDATE SET "b" = EXCLUDED."b"`))
	})

	It("does nothing on conflict when every column is part of the key", func() {
		sql := SQLiteDialect.Upsert("t", []string{"a", "b"}, []string{"a", "b"})
		Expect(sql).To(HaveSuffix("ON CONFLICT (\"a\", \"b\") DO NOTHING"))
	})

	It("binds query arguments in order", func() {
		q := PostgresDialect.newQuery("SELECT * FROM t").
			bind(" WHERE a = ? AND b = ?", "x", 2).
			bind(" AND c LIKE 'Q%'").
			bind(" LIMIT ?", 5)

		Expect(q.String()).To(Equal("SELECT * FROM t WHERE a = $1 AND b = $2 AND c LIKE 'Q%' LIMIT $3"))
		Expect(q.args).To(Equal([]any{"x", 2, 5}))
	})

	It("renders dates and json as text on postgres", func() {
		Expect(PostgresDialect.Date("date")).To(Equal("to_char(date, 'YYYY-MM-DD')"))
		Expect(PostgresDialect.JSON("metric_values")).To(Equal("metric_values::text"))
		Expect(SQLiteDialect.Date("date")).To(Equal("date"))
	})
})
