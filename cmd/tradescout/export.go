package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aman-ray/tradescout/internal/engine/export"
)

// runExport re-encodes an existing run database into the flat formats.
func runExport(args []string) error {
	var dbPath, outputPrefix, formatStr string

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.StringVar(&dbPath, "db", "", "Path to .sqlite run database (required)")
	fs.StringVar(&outputPrefix, "output", "", "Output prefix (default: alongside the db)")
	fs.StringVar(&formatStr, "formats", "csv,jsonl,parquet", "Comma-separated formats")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tradescout export [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tradescout export -db ./out/tradescout_20260829_101500.sqlite\n")
		fmt.Fprintf(os.Stderr, "  tradescout export -db run.sqlite -formats csv -output results\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if dbPath == "" {
		return fmt.Errorf("-db is required")
	}
	if outputPrefix == "" {
		dir := filepath.Dir(dbPath)
		base := strings.TrimSuffix(filepath.Base(dbPath), ".sqlite")
		outputPrefix = filepath.Join(dir, base)
	}

	records, err := export.LoadSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("loading db: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no businesses found in %s", dbPath)
	}

	sinks, err := export.ForFormats(splitTrim(formatStr), outputPrefix)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	errs := export.WriteAll(sinks, records, logger)
	if len(errs) > 0 && len(errs) == len(sinks) {
		return fmt.Errorf("all exports failed")
	}

	fmt.Fprintf(os.Stderr, "Exported %d businesses to %s.*\n", len(records), outputPrefix)
	return nil
}
