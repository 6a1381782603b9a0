package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"

	"github.com/aman-ray/tradescout/internal/config"
	"github.com/aman-ray/tradescout/internal/engine/export"
	"github.com/aman-ray/tradescout/internal/engine/geo"
	"github.com/aman-ray/tradescout/internal/engine/scraper"
	"github.com/aman-ray/tradescout/internal/model"
	"github.com/aman-ray/tradescout/internal/tui"
)

func runScan(args []string) error {
	// The config file, if any, supplies flag defaults, so it has to load
	// before flag definition.
	cfg := config.Default()
	if path := peekFlag(args, "config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
	}

	var configPath, centerStr string
	var useTUI bool
	categoryStr := strings.Join(cfg.Categories, ",")
	formatStr := strings.Join(cfg.Output.Formats, ",")
	maxRuntime := cfg.MaxRuntime.Duration

	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Path to YAML config file")
	fs.StringVar(&centerStr, "center", "", "Search center as lat,lng (required)")
	fs.Float64Var(&cfg.RadiusKM, "radius", cfg.RadiusKM, "Search radius in km")
	fs.StringVar(&categoryStr, "categories", categoryStr, "Comma-separated trade categories")
	fs.IntVar(&cfg.MaxResults, "max-results", cfg.MaxResults, "Maximum accepted records")
	fs.DurationVar(&maxRuntime, "max-runtime", maxRuntime, "Maximum wall-clock runtime")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Concurrent search workers")
	fs.Float64Var(&cfg.TileSizeKM, "tile-size", cfg.TileSizeKM, "Tile edge in km")
	fs.IntVar(&cfg.Retry, "retry", cfg.Retry, "Attempts per job before it is abandoned")
	fs.IntVar(&cfg.MaxPages, "max-pages", cfg.MaxPages, "Result pages fetched per tile query")
	fs.IntVar(&cfg.JitterMS, "jitter-ms", cfg.JitterMS, "Request jitter window in ms")
	fs.StringVar(&cfg.PhoneRegion, "phone-region", cfg.PhoneRegion, "Default phone region (ISO 3166-1)")
	fs.StringVar(&cfg.Lang, "lang", cfg.Lang, "Search language")
	fs.StringVar(&cfg.ProxyURL, "proxy", cfg.ProxyURL, "HTTP/SOCKS5 proxy URL")
	fs.StringVar(&cfg.RegionGeoJSON, "region-geojson", cfg.RegionGeoJSON, "Restrict scan to a GeoJSON polygon")
	fs.StringVar(&cfg.Output.Dir, "output", cfg.Output.Dir, "Output directory")
	fs.StringVar(&formatStr, "formats", formatStr, "Comma-separated export formats (csv,jsonl,sqlite,parquet)")
	fs.BoolVar(&useTUI, "tui", false, "Show live progress UI")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tradescout scan [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tradescout scan -center 53.3498,-6.2603 -radius 5\n")
		fmt.Fprintf(os.Stderr, "  tradescout scan -config run.yaml -categories plumber,electrician -tui\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if centerStr != "" {
		center, err := parseCenter(centerStr)
		if err != nil {
			return err
		}
		cfg.Center = center
	} else if cfg.Center.Lat == 0 && cfg.Center.Lng == 0 {
		return fmt.Errorf("-center is required (lat,lng)")
	}

	cfg.MaxRuntime = config.DurationFrom(maxRuntime)
	cfg.Categories = splitTrim(categoryStr)
	cfg.Output.Formats = splitTrim(formatStr)

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Timestamped per-run outputs
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	baseName := "tradescout_" + time.Now().Format("20060102_150405")
	logPath := filepath.Join(cfg.Output.Dir, baseName+".log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("session start",
		"center_lat", cfg.Center.Lat, "center_lng", cfg.Center.Lng,
		"radius_km", cfg.RadiusKM, "tile_size_km", cfg.TileSizeKM,
		"categories", cfg.Categories, "max_results", cfg.MaxResults,
		"max_runtime", cfg.MaxRuntime.Duration, "concurrency", cfg.Concurrency,
	)
	fmt.Fprintf(os.Stderr, "Log: %s\n", logPath)

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	// Tiles
	tiles := geo.GenerateTiles(cfg.Center, cfg.RadiusKM, cfg.TileSizeKM)
	var region orb.MultiPolygon
	if cfg.RegionGeoJSON != "" {
		region, err = geo.LoadRegionPolygon(cfg.RegionGeoJSON)
		if err != nil {
			return err
		}
		before := len(tiles)
		tiles = geo.FilterRegionTiles(tiles, region)
		fmt.Fprintf(os.Stderr, "Region filter: %d of %d tiles kept\n", len(tiles), before)
	}
	if len(tiles) == 0 {
		return fmt.Errorf("no tiles to search")
	}

	totalJobs := len(tiles) * len(cfg.Categories)
	fmt.Fprintf(os.Stderr, "Scanning: %d categories x %d tiles = %d jobs (concurrency=%d)\n",
		len(cfg.Categories), len(tiles), totalJobs, cfg.Concurrency)

	client, err := scraper.NewClient(cfg.Lang, cfg.ProxyURL, cfg.MaxPages)
	if err != nil {
		return err
	}

	params := scraper.Params{
		Center:      cfg.Center,
		RadiusKM:    cfg.RadiusKM,
		Categories:  cfg.Categories,
		MaxResults:  cfg.MaxResults,
		MaxRuntime:  cfg.MaxRuntime.Duration,
		Concurrency: cfg.Concurrency,
		Retry:       cfg.Retry,
		JitterMS:    cfg.JitterMS,
		PhoneRegion: cfg.PhoneRegion,
	}

	startTime := time.Now()
	stats := &scraper.Stats{}
	var result *scraper.Result
	var runErr error

	if useTUI {
		doneCh := make(chan error, 1)
		go func() {
			result, runErr = scraper.Run(ctx, tiles, params, client, logger, &scraper.RunOptions{
				SuppressStderr: true,
				Stats:          stats,
				Region:         region,
			})
			doneCh <- runErr
		}()

		title := fmt.Sprintf("Scanning %d trades around %.4f, %.4f (r=%.1fkm)",
			len(cfg.Categories), cfg.Center.Lat, cfg.Center.Lng, cfg.RadiusKM)
		if _, err := tea.NewProgram(tui.NewProgress(title, stats, doneCh, cancel)).Run(); err != nil {
			return fmt.Errorf("progress ui: %w", err)
		}
	} else {
		result, runErr = scraper.Run(ctx, tiles, params, client, logger, &scraper.RunOptions{
			Stats:  stats,
			Region: region,
		})
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("scanning: %w", runErr)
	}

	// Export whatever was collected, even after cancellation
	var sinkErrs []error
	if len(result.Records) > 0 {
		prefix := export.Prefix(cfg.Output.Dir, baseName)
		sinks, err := export.ForFormats(cfg.Output.Formats, prefix)
		if err != nil {
			return err
		}
		sinkErrs = export.WriteAll(sinks, result.Records, logger)
		for _, e := range sinkErrs {
			fmt.Fprintf(os.Stderr, "export: %v\n", e)
		}
	}

	printSummary(cfg, result, time.Since(startTime).Truncate(time.Second), baseName, logPath)

	if len(sinkErrs) > 0 && len(sinkErrs) == len(cfg.Output.Formats) {
		return fmt.Errorf("all exports failed")
	}
	return nil
}

func printSummary(cfg config.Config, result *scraper.Result, duration time.Duration, baseName, logPath string) {
	s := result.Stats
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Tradescout Complete\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Center:     %.4f, %.4f (r=%.1fkm)\n", cfg.Center.Lat, cfg.Center.Lng, cfg.RadiusKM)
	fmt.Fprintf(os.Stderr, "  Jobs:       %d (%d failed)\n", s.JobsTotal, s.JobsFailed.Load())
	fmt.Fprintf(os.Stderr, "  Listings:   %d\n", s.ListingsFound.Load())
	fmt.Fprintf(os.Stderr, "  Accepted:   %d\n", s.Accepted.Load())
	fmt.Fprintf(os.Stderr, "  Rejected:   %d filter / %d dup / %d radius\n",
		s.RejectedFilter.Load(), s.RejectedDupes.Load(), s.RejectedRadius.Load())
	fmt.Fprintf(os.Stderr, "  Duration:   %s\n", duration)
	fmt.Fprintf(os.Stderr, "  Output:     %s/%s.*\n", cfg.Output.Dir, baseName)
	fmt.Fprintf(os.Stderr, "  Log:        %s\n", logPath)
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")

	if len(result.Records) > 0 {
		byCategory := make(map[string]int)
		for _, r := range result.Records {
			byCategory[r.Category]++
		}
		fmt.Fprintf(os.Stderr, "  By category:\n")
		for _, cat := range cfg.Categories {
			if n := byCategory[cat]; n > 0 {
				fmt.Fprintf(os.Stderr, "    %-18s %d\n", cat, n)
			}
		}
	}
}

// peekFlag extracts one flag's value ahead of flag.Parse. Only tokens that
// are flags themselves are considered, so a bare value that happens to
// match the name is never mistaken for the flag.
func peekFlag(args []string, name string) string {
	for i, a := range args {
		if !strings.HasPrefix(a, "-") {
			continue
		}
		trimmed := strings.TrimLeft(a, "-")
		if trimmed == name && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(trimmed, name+"="); ok {
			return v
		}
	}
	return ""
}

func parseCenter(s string) (model.GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.GeoPoint{}, fmt.Errorf("center must be lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("invalid longitude %q", parts[1])
	}
	return model.GeoPoint{Lat: lat, Lng: lng}, nil
}

func splitTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
