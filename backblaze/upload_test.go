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
package backblaze_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/finmetrics/backblaze"
	"github.com/penny-vault/finmetrics/config"
)

var _ = Describe("Uploader", func() {
	It("requires credentials and a bucket", func() {
		_, err := backblaze.NewUploader(config.Backblaze{ApplicationID: "id"})
		Expect(err).To(MatchError(backblaze.ErrNotConfigured))
		Expect(err.Error()).To(ContainSubstring("application_key, bucket"))

		uploader, err := backblaze.NewUploader(config.Backblaze{ApplicationID: "id", ApplicationKey: "key", Bucket: "snapshots"})
		Expect(err).NotTo(HaveOccurred())
		Expect(uploader).NotTo(BeNil())
	})

	DescribeTable("names objects relative to the snapshot root",
		func(fn, expected string) {
			Expect(backblaze.ObjectName("financial_data", "2024-11-01", fn)).To(Equal(expected))
		},
		Entry("nested snapshot", filepath.Join("financial_data", "ratios", "AAPL.csv"), "2024-11-01/ratios/AAPL.csv"),
		Entry("file outside the root", filepath.Join("elsewhere", "MSFT.csv"), "2024-11-01/MSFT.csv"),
	)
})
