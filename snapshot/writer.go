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
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/penny-vault/finmetrics/data"
)

var ErrIO = errors.New("snapshot i/o failed")

// Writer saves each fetched batch as <dir>/<data type>/<SYMBOL>.csv, or
// <SYMBOL>_<variant>.csv when the dataset is fetched in several variants
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Path returns the file a batch for symbol, dataType and variant is
// written to
func (writer *Writer) Path(dataType, symbol, variant string) string {
	fn := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(symbol)), "/", "-")
	if variant != "" {
		fn += "_" + variant
	}
	return filepath.Join(writer.Dir, dataType, fn+".csv")
}

// Write saves the batch, replacing any previous snapshot, and returns the
// path of the file
func (writer *Writer) Write(batch *data.Batch) (string, error) {
	fn := writer.Path(batch.DataType.Name, batch.Symbol, batch.Variant)

	if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}

	fh, err := os.Create(fn)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := gocsv.MarshalFile(batch.Rows(), fh); err != nil {
		fh.Close()
		return "", fmt.Errorf("%w: write %s: %w", ErrIO, fn, err)
	}

	if err := fh.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %w", ErrIO, fn, err)
	}

	return fn, nil
}

// Read loads a snapshot written by Write back into typed records
func Read[T any](fn string) ([]*T, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer fh.Close()

	var records []*T
	if err := gocsv.UnmarshalFile(fh, &records); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, fn, err)
	}

	return records, nil
}
