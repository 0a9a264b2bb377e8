package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chmatch/internal/batch"
	"github.com/sells-group/chmatch/internal/export"
	"github.com/sells-group/chmatch/internal/ingest"
	"github.com/sells-group/chmatch/internal/model"
)

var (
	batchInput     string
	batchColumn    string
	batchOutput    string
	batchLimit     int
	batchSheet     string
	batchDelimiter string
	batchCharset   string
	batchDryRun    bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve every company name in a CSV or XLSX table",
	Long: `Reads a tabular file (local path, http(s) URL, or ftp URL), resolves
the name in the given column for every row, and writes the input rows
with resolution columns appended to a results CSV.

Rows are processed strictly in order, one registry call at a time, with
fixed pacing to respect the Companies House quota. Ctrl-C stops cleanly
at the next row boundary and keeps the rows finished so far.

Examples:
  # Dry run: parse the input and print rows, no registry calls
  chmatch batch --input companies.csv --column "Company Name" --dry-run

  # Full run over a spreadsheet
  chmatch batch --input companies.xlsx --column Name --output results.csv

  # Remote input
  chmatch batch --input https://example.org/targets.csv --column name`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		table, err := ingest.Load(ctx, batchInput, ingestOptions())
		if err != nil {
			return eris.Wrap(err, "batch: load input")
		}
		zap.L().Info("batch: input loaded",
			zap.String("input", batchInput),
			zap.Int("rows", len(table.Rows)),
			zap.Strings("columns", table.Header),
		)

		if batchLimit > 0 && batchLimit < len(table.Rows) {
			table.Rows = table.Rows[:batchLimit]
		}

		if batchDryRun {
			return printRowsJSON(table.Rows)
		}

		if !hasColumn(table.Header, batchColumn) {
			return eris.Errorf("batch: column %q not found in input (have %v)", batchColumn, table.Header)
		}

		env, err := initResolver(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		runner := batch.New(env.Resolver,
			batch.WithRowInterval(time.Duration(cfg.Batch.RowIntervalMS)*time.Millisecond),
		)

		result := runner.Run(ctx, table.Rows, batchColumn)

		matched := result.MatchedCount()
		zap.L().Info("batch: summary",
			zap.String("run_id", result.RunID),
			zap.String("status", string(result.Status)),
			zap.Int("processed", result.Processed),
			zap.Int("total", result.Total),
			zap.Int("matched", matched),
			zap.Int("unmatched", result.Processed-matched),
		)

		if err := export.WriteCSVFile(batchOutput, table.Header, result.Results); err != nil {
			return eris.Wrap(err, "batch: write output")
		}
		zap.L().Info("batch: results written", zap.String("output", batchOutput))

		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "input table: local CSV/XLSX path or http(s)/ftp URL (required)")
	batchCmd.Flags().StringVar(&batchColumn, "column", "", "column holding company names (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "results.csv", "path for the results CSV")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max rows to process (0 = all)")
	batchCmd.Flags().StringVar(&batchSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	batchCmd.Flags().StringVar(&batchDelimiter, "delimiter", "", "CSV delimiter (default from config)")
	batchCmd.Flags().StringVar(&batchCharset, "charset", "", "CSV charset, e.g. latin1 (default from config)")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "parse the input and print rows, skip resolution")
	_ = batchCmd.MarkFlagRequired("input")
	_ = batchCmd.MarkFlagRequired("column")
	rootCmd.AddCommand(batchCmd)
}

// ingestOptions merges config defaults with command-line overrides.
func ingestOptions() ingest.Options {
	opts := ingest.Options{
		Sheet:   batchSheet,
		Charset: cfg.Ingest.Charset,
		Timeout: time.Duration(cfg.Ingest.TimeoutSecs) * time.Second,
	}
	delim := cfg.Ingest.Delimiter
	if batchDelimiter != "" {
		delim = batchDelimiter
	}
	if delim != "" {
		opts.Delimiter = rune(delim[0])
	}
	if batchCharset != "" {
		opts.Charset = batchCharset
	}
	return opts
}

func hasColumn(header []string, col string) bool {
	for _, h := range header {
		if h == col {
			return true
		}
	}
	return false
}

// printRowsJSON prints parsed rows as indented JSON.
func printRowsJSON(rows []model.Row) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
