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
package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/penny-vault/finmetrics/etl"
	"github.com/spf13/cobra"
)

// datasetsCmd represents the datasets command
var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets fetched from FMP and the run modes that use them",
	Run: func(cmd *cobra.Command, args []string) {
		printMarkdown(datasetsDocument())
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}

func datasetsDocument() string {
	names := make([]string, 0, len(etl.Datasets))
	for name := range etl.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("# Datasets\n\n")
	sb.WriteString("| Dataset | Endpoint | Table | Key |\n|---|---|---|---|\n")
	for _, name := range names {
		dataset := etl.Datasets[name]
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", dataset.Name, dataset.Endpoint,
			dataset.DataType.Table, strings.Join(dataset.DataType.Key, ", ")))
	}

	sb.WriteString("\n# Modes\n\n")
	for _, mode := range etl.Modes() {
		datasets := mode.Datasets()
		parts := make([]string, len(datasets))
		for idx, dataset := range datasets {
			parts[idx] = dataset.Name
		}
		sb.WriteString(fmt.Sprintf("* **%s**: %s\n", mode, strings.Join(parts, ", ")))
	}

	return sb.String()
}
