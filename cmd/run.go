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
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/hako/durafmt"
	"github.com/penny-vault/finmetrics/backblaze"
	"github.com/penny-vault/finmetrics/config"
	"github.com/penny-vault/finmetrics/etl"
	"github.com/penny-vault/finmetrics/fmp"
	"github.com/penny-vault/finmetrics/healthcheck"
	"github.com/penny-vault/finmetrics/library"
	"github.com/penny-vault/finmetrics/snapshot"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	runSymbols       []string
	runLimit         int
	peersOnly        bool
	peersWithData    bool
	priceTargetsOnly bool
	uploadSnapshots  bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch fundamentals for a list of symbols and load them into the database",
	Long: `The run sub-command fetches every dataset of the selected mode for each symbol,
writes a CSV snapshot per symbol and dataset, and upserts the records into the
database. Failures of a single symbol or dataset are logged and the run moves
on; the command only exits with an error when every symbol failed or the
database could not be used.

If --symbols is not given the configured symbol list is used, truncated to
--limit symbols.`,
	Example: `  finmetrics run --symbols AAPL,MSFT
  finmetrics run --db-type postgres --db-name fundamentals --peers-with-data`,
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig()
		if err := conf.FMP.Validate(); err != nil {
			log.Fatal().Err(err).Msg("set fmp.api_key in the config file or FMP_API_KEY in the environment")
		}

		mode := runMode()
		symbols := runSymbolList(conf)
		if len(symbols) == 0 {
			log.Fatal().Msg("no symbols to process")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = log.Logger.WithContext(ctx)

		monitor := healthcheck.New(conf.Healthchecks)
		if err := monitor.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("healthcheck start ping failed")
		}

		myLibrary, err := library.Connect(ctx, conf.Database)
		if err != nil {
			failRun(ctx, monitor, err)
			log.Fatal().Err(err).Str("Database", conf.Database.Redacted()).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		pipeline := etl.New(fmp.New(conf.FMP), snapshot.NewWriter(conf.OutputDir), myLibrary, mode)

		summary, err := pipeline.Run(ctx, symbols)
		if err != nil {
			failRun(ctx, monitor, err)
			myLibrary.Close()
			log.Fatal().Err(err).Msg("etl run aborted")
		}

		fmt.Println(renderSummary(summary))

		if uploadSnapshots {
			upload(ctx, conf, summary)
		}

		if summary.AllFailed() {
			failRun(ctx, monitor, fmt.Errorf("all %d symbols failed", len(summary.Requested)))
			myLibrary.Close()
			log.Fatal().Str("RunID", summary.RunID.String()).Msg("every symbol failed")
		}

		if err := monitor.Success(ctx, summaryText(summary)); err != nil {
			log.Warn().Err(err).Msg("healthcheck success ping failed")
		}
	},
}

const defaultRunLimit = 3

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runSymbols, "symbols", nil, "comma separated list of symbols to process")
	runCmd.Flags().IntVar(&runLimit, "limit", defaultRunLimit, "only process the first N configured symbols; 0 processes all (ignored with --symbols)")
	runCmd.Flags().BoolVar(&peersOnly, "peers-only", false, "only fetch stock peers")
	runCmd.Flags().BoolVar(&peersWithData, "peers-with-data", false, "fetch stock peers, then ratios and income statements for every peer")
	runCmd.Flags().BoolVar(&priceTargetsOnly, "price-targets-only", false, "only fetch price target news")
	runCmd.Flags().BoolVar(&uploadSnapshots, "upload", false, "upload the CSV snapshots to Backblaze B2 when the run finishes")
	runCmd.MarkFlagsMutuallyExclusive("peers-only", "peers-with-data", "price-targets-only")

	runCmd.Flags().String("db-type", config.SQLite, "database type (sqlite or postgres)")
	runCmd.Flags().String("db-name", "finmetrics", "postgres database name; created when missing")
	runCmd.Flags().String("db-path", "", "sqlite database file")
	runCmd.Flags().String("period", config.PeriodBoth, "statement period (annual, quarter or both)")
	runCmd.Flags().String("output-dir", "financial_data", "directory CSV snapshots are written to")

	for key, flag := range map[string]string{
		"db.type":    "db-type",
		"db.name":    "db-name",
		"db.path":    "db-path",
		"fmp.period": "period",
		"output_dir": "output-dir",
	} {
		if err := viper.BindPFlag(key, runCmd.Flags().Lookup(flag)); err != nil {
			log.Panic().Err(err).Str("Flag", flag).Msg("BindPFlag failed")
		}
	}
}

func runMode() etl.Mode {
	switch {
	case peersOnly:
		return etl.ModePeersOnly
	case peersWithData:
		return etl.ModePeersWithData
	case priceTargetsOnly:
		return etl.ModePriceTargetsOnly
	default:
		return etl.ModeFull
	}
}

func runSymbolList(conf *config.Config) []string {
	if len(runSymbols) > 0 {
		return etl.NormalizeSymbols(runSymbols)
	}

	symbols := etl.NormalizeSymbols(conf.Symbols)
	if runLimit > 0 && runLimit < len(symbols) {
		symbols = symbols[:runLimit]
	}

	return symbols
}

func failRun(ctx context.Context, monitor *healthcheck.Client, cause error) {
	if err := monitor.Fail(ctx, cause.Error()); err != nil {
		log.Warn().Err(err).Msg("healthcheck fail ping failed")
	}
}

func upload(ctx context.Context, conf *config.Config, summary *etl.Summary) {
	uploader, err := backblaze.NewUploader(conf.Backblaze)
	if err != nil {
		log.Error().Err(err).Msg("skipping snapshot upload")
		return
	}

	files := summary.CSVPaths()
	prefix := summary.StartedAt.UTC().Format("2006-01-02")
	if err := uploader.Upload(ctx, conf.OutputDir, prefix, files); err != nil {
		log.Error().Err(err).Msg("snapshot upload incomplete")
		return
	}

	log.Info().Int("NumFiles", len(files)).Str("Bucket", conf.Backblaze.Bucket).Msg("uploaded snapshots")
}

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	peerStyle  = lipgloss.NewStyle().Faint(true)
)

// renderSummary draws the per-symbol results of a run in a box
func renderSummary(summary *etl.Summary) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Run %s (%s)", summary.RunID, summary.Mode)),
		fmt.Sprintf("Duration: %s", durafmt.Parse(summary.Duration()).LimitFirstN(2).String()),
		fmt.Sprintf("Symbols:  %d requested, %d failed", len(summary.Requested), summary.NumFailed()),
		fmt.Sprintf("Records:  %d loaded, %d rejected", summary.NumRecords(), summary.NumRecordErrors()),
		"",
	}

	for _, result := range summary.Symbols {
		line := fmt.Sprintf("%-8s %5d records", result.Symbol, result.NumRecords())
		if len(result.Peers) > 0 {
			line += fmt.Sprintf("  peers: %s", strings.Join(result.Peers, ","))
		}

		var failed []string
		for _, dataset := range result.Datasets {
			if dataset.Err != nil {
				failed = append(failed, dataset.Name())
			}
		}
		if len(failed) > 0 {
			line += failStyle.Render("  failed: " + strings.Join(failed, ","))
		}

		if result.IsPeer {
			line = peerStyle.Render(line)
		}

		lines = append(lines, line)
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}

// summaryText is the plain text body sent with the healthcheck ping
func summaryText(summary *etl.Summary) string {
	return fmt.Sprintf("run %s mode=%s symbols=%d failed=%d records=%d record_errors=%d duration=%s",
		summary.RunID, summary.Mode, len(summary.Requested), summary.NumFailed(),
		summary.NumRecords(), summary.NumRecordErrors(), durafmt.Parse(summary.Duration()).LimitFirstN(2).String())
}
