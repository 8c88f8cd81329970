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
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrMissingField = errors.New("record is missing a required field")
	ErrInvalidField = errors.New("record has an invalid field")
)

// Record is a single normalized observation returned by the API. Every
// record knows its data type and can check its natural key before it is
// handed to the writers.
type Record interface {
	DataType() *DataType
	Validate() error
}

// MetricRecord is a record that also populates financial_metrics
type MetricRecord interface {
	Record
	MetricRow() (*MetricRow, error)
}

// TextRecord is a record that also populates text_metrics
type TextRecord interface {
	Record
	TextRow() (*TextRow, error)
}

// Row is a flattened table row. Columns and Values are index aligned.
type Row struct {
	Columns []string
	Values  []any
}

// RowOf flattens a struct (or pointer to struct) into a Row using the `db`
// struct tags. Nil pointers become NULL.
func RowOf(rec any) Row {
	val := reflect.ValueOf(rec)
	for val.Kind() == reflect.Pointer {
		val = val.Elem()
	}

	row := Row{}
	row.appendStruct(val)
	return row
}

func (row *Row) appendStruct(val reflect.Value) {
	typ := val.Type()
	for idx := 0; idx < typ.NumField(); idx++ {
		field := typ.Field(idx)
		if !field.IsExported() {
			continue
		}

		col := field.Tag.Get("db")
		if field.Anonymous && col == "" && field.Type.Kind() == reflect.Struct {
			row.appendStruct(val.Field(idx))
			continue
		}

		if col == "" || col == "-" {
			continue
		}

		row.Columns = append(row.Columns, col)
		row.Values = append(row.Values, fieldValue(val.Field(idx)))
	}
}

func fieldValue(field reflect.Value) any {
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return nil
		}
		field = field.Elem()
	}

	if valuer, ok := field.Interface().(driver.Valuer); ok {
		return valuer
	}

	return field.Interface()
}

// Value returns the value stored for column
func (row Row) Value(column string) (any, bool) {
	for idx, col := range row.Columns {
		if col == column {
			return row.Values[idx], true
		}
	}

	return nil, false
}

// metricValues collects every numeric optional field that is set, keyed by
// its json name
func metricValues(rec any) map[string]float64 {
	val := reflect.ValueOf(rec)
	for val.Kind() == reflect.Pointer {
		val = val.Elem()
	}

	typ := val.Type()
	values := make(map[string]float64)

	for idx := 0; idx < typ.NumField(); idx++ {
		field := typ.Field(idx)
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		fv := val.Field(idx)
		if fv.Kind() != reflect.Pointer || fv.IsNil() {
			continue
		}

		switch elem := fv.Elem(); elem.Kind() {
		case reflect.Float32, reflect.Float64:
			values[name] = elem.Float()
		case reflect.Int, reflect.Int32, reflect.Int64:
			values[name] = float64(elem.Int())
		}
	}

	return values
}

func missing(dataType *DataType, field string) error {
	return fmt.Errorf("%w: %s requires %s", ErrMissingField, dataType.Name, field)
}

// Batch is the result of fetching one data type for one symbol. Rows holds
// the typed slice so it can be written to CSV; Records holds the same
// values for the loader. Variant distinguishes several requests for the
// same symbol and data type, e.g. "annual" and "quarter".
type Batch struct {
	DataType *DataType
	Symbol   string
	Variant  string
	Records  []Record

	rows any
}

// NewBatch wraps a typed record slice
func NewBatch[T Record](dataType *DataType, symbol string, items []T) *Batch {
	records := make([]Record, len(items))
	for idx, item := range items {
		records[idx] = item
	}

	return &Batch{
		DataType: dataType,
		Symbol:   symbol,
		Records:  records,
		rows:     items,
	}
}

// Rows returns the typed slice of records, e.g. []*IncomeStatement
func (batch *Batch) Rows() any {
	return batch.rows
}

func (batch *Batch) Len() int {
	return len(batch.Records)
}
