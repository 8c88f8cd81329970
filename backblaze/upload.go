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
package backblaze

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kothar/go-backblaze"
	"github.com/penny-vault/finmetrics/config"
	"github.com/rs/zerolog"
)

var (
	ErrNotConfigured  = errors.New("backblaze is not configured")
	ErrBucketNotFound = errors.New("bucket not found")
)

// Uploader copies CSV snapshots to a B2 bucket
type Uploader struct {
	conf config.Backblaze
}

// NewUploader checks that credentials and a bucket are configured
func NewUploader(conf config.Backblaze) (*Uploader, error) {
	var missing []string
	if conf.ApplicationID == "" {
		missing = append(missing, "application_id")
	}
	if conf.ApplicationKey == "" {
		missing = append(missing, "application_key")
	}
	if conf.Bucket == "" {
		missing = append(missing, "bucket")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}

	return &Uploader{conf: conf}, nil
}

// ObjectName maps a snapshot under root to its name in the bucket, e.g.
// financial_data/ratios/AAPL.csv -> <prefix>/ratios/AAPL.csv
func ObjectName(root, prefix, fn string) string {
	rel, err := filepath.Rel(root, fn)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(fn)
	}

	return path.Join(prefix, filepath.ToSlash(rel))
}

// Upload sends every file to the bucket. Files that fail are logged and the
// remaining files are still uploaded; the errors are joined.
func (uploader *Uploader) Upload(ctx context.Context, root, prefix string, files []string) error {
	logger := zerolog.Ctx(ctx)

	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          uploader.conf.ApplicationID,
		ApplicationKey: uploader.conf.ApplicationKey,
	})
	if err != nil {
		logger.Error().Err(err).Str("BucketName", uploader.conf.Bucket).Msg("authorize backblaze failed")
		return err
	}

	bucket, err := b2.Bucket(uploader.conf.Bucket)
	if err != nil {
		logger.Error().Err(err).Str("BucketName", uploader.conf.Bucket).Msg("lookup bucket failed")
		return err
	}
	if bucket == nil {
		logger.Error().Str("BucketName", uploader.conf.Bucket).Msg("bucket does not exist")
		return fmt.Errorf("%w: %s", ErrBucketNotFound, uploader.conf.Bucket)
	}

	var errs []error
	for _, fn := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := uploadFile(ctx, bucket, ObjectName(root, prefix, fn), fn); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func uploadFile(ctx context.Context, bucket *backblaze.Bucket, outName, fn string) error {
	logger := zerolog.Ctx(ctx)

	reader, err := os.Open(fn)
	if err != nil {
		logger.Error().Err(err).Str("FileName", fn).Msg("open snapshot failed")
		return err
	}
	defer reader.Close()

	metadata := make(map[string]string)

	file, err := bucket.UploadFile(outName, metadata, reader)
	if err != nil {
		logger.Error().Err(err).Str("FileName", outName).Str("BucketName", bucket.Name).Msg("save file to backblaze failed")
		return err
	}

	logger.Info().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded file to backblaze")
	return nil
}
