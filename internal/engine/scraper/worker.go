package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"

	"github.com/aman-ray/tradescout/internal/engine/geo"
	"github.com/aman-ray/tradescout/internal/model"
)

// defaultAttemptTimeout bounds a single Searcher call; the remaining run
// deadline shrinks it further so one stuck query cannot overrun the budget.
const defaultAttemptTimeout = 15 * time.Second

// Stats counts pipeline events across all workers.
type Stats struct {
	JobsTotal      int
	JobsDone       atomic.Int64
	JobsFailed     atomic.Int64
	Retries        atomic.Int64
	ListingsFound  atomic.Int64
	Accepted       atomic.Int64
	RejectedFilter atomic.Int64
	RejectedDupes  atomic.Int64
	RejectedRadius atomic.Int64
	ParseErrors    atomic.Int64
	RateLimits     atomic.Int64
}

// Job is one (tile, category) query unit. Attempt tracks retries.
type Job struct {
	Tile     model.Tile
	Category string
	Attempt  int
}

// Params holds the run parameters the scheduler needs. The cmd layer maps
// the config file onto this so the engine stays decoupled from YAML.
type Params struct {
	Center      model.GeoPoint
	RadiusKM    float64
	Categories  []string
	MaxResults  int
	MaxRuntime  time.Duration
	Concurrency int
	Retry       int
	JitterMS    int
	PhoneRegion string
}

// RunOptions provides optional hooks for the pipeline.
type RunOptions struct {
	// SuppressStderr disables the built-in stderr progress reporter.
	SuppressStderr bool
	// Stats allows passing an external Stats object for live progress
	// tracking. If nil, Run creates its own.
	Stats *Stats
	// Region, if set, discards records whose coordinates fall outside the
	// polygon.
	Region orb.MultiPolygon
	// AttemptTimeout overrides the per-attempt Searcher deadline.
	AttemptTimeout time.Duration
	// Sleep and Clock are swappable so backoff tests run without real
	// delays.
	Sleep func(context.Context, time.Duration)
	Clock func() time.Time
}

// Result is the outcome of a run. Records is fully assembled before Run
// returns and is never mutated afterwards.
type Result struct {
	Records  []model.BusinessRecord
	Stats    *Stats
	Duration time.Duration
}

// Run drives the full tile x category cross product through
// Searcher -> Normalize -> Filter -> DedupeCache under the result and
// runtime budgets. Per-job failures are non-fatal; only a *FatalError from
// the Searcher or parent-context cancellation aborts the run.
func Run(ctx context.Context, tiles []model.Tile, params Params, searcher Searcher, logger *slog.Logger, opts *RunOptions) (*Result, error) {
	if opts == nil {
		opts = &RunOptions{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	attemptTimeout := opts.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}

	stats := opts.Stats
	if stats == nil {
		stats = &Stats{}
	}
	stats.JobsTotal = len(tiles) * len(params.Categories)

	jobs := make(chan Job, stats.JobsTotal)
	for _, cat := range params.Categories {
		for _, t := range tiles {
			jobs <- Job{Tile: t, Category: cat}
		}
	}
	close(jobs)

	budget := NewBudget(params.MaxResults, params.MaxRuntime, clock)
	backoff := NewBackoff(params.JitterMS)
	dedupe := NewDedupeCache()
	normalizer := NewNormalizer(params.PhoneRegion)
	normalizer.now = clock

	// The runtime deadline is enforced through the budget's clock: dispatch
	// and each retry attempt check Exhausted, and the per-attempt timeout is
	// clipped to the remaining runtime, so no attempt outlives the deadline.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	startTime := clock()

	r := &runner{
		params:         params,
		searcher:       searcher,
		logger:         logger,
		stats:          stats,
		budget:         budget,
		backoff:        backoff,
		dedupe:         dedupe,
		normalizer:     normalizer,
		region:         opts.Region,
		attemptTimeout: attemptTimeout,
		sleep:          sleep,
		cancelRun:      cancelRun,
	}

	done := make(chan struct{})
	go r.reportProgress(startTime, clock, opts.SuppressStderr, done)

	var wg sync.WaitGroup
	for range params.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if runCtx.Err() != nil {
					return
				}
				if budget.Exhausted() {
					r.noteBudgetExhausted()
					return
				}
				r.processJob(runCtx, job)
			}
		}()
	}
	wg.Wait()
	close(done)

	duration := clock().Sub(startTime).Truncate(time.Millisecond)
	result := &Result{Records: r.takeRecords(), Stats: stats, Duration: duration}

	logger.Info("run summary",
		"jobs", stats.JobsTotal,
		"jobs_done", stats.JobsDone.Load(),
		"jobs_failed", stats.JobsFailed.Load(),
		"listings", stats.ListingsFound.Load(),
		"accepted", stats.Accepted.Load(),
		"rejected_filter", stats.RejectedFilter.Load(),
		"rejected_dupes", stats.RejectedDupes.Load(),
		"rejected_radius", stats.RejectedRadius.Load(),
		"parse_errors", stats.ParseErrors.Load(),
		"rate_limits", stats.RateLimits.Load(),
		"duration", duration,
	)

	if err := r.fatal(); err != nil {
		return result, err
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

type runner struct {
	params         Params
	searcher       Searcher
	logger         *slog.Logger
	stats          *Stats
	budget         *Budget
	backoff        *Backoff
	dedupe         *DedupeCache
	normalizer     *Normalizer
	region         orb.MultiPolygon
	attemptTimeout time.Duration
	sleep          func(context.Context, time.Duration)
	cancelRun      context.CancelFunc

	mu       sync.Mutex
	records  []model.BusinessRecord
	fatalErr error

	budgetLogged atomic.Bool
}

// processJob runs one job through its attempt loop. Transient failures retry
// with backoff up to the configured attempt count; retry=0 means a single
// attempt with no retries.
func (r *runner) processJob(ctx context.Context, job Job) {
	maxAttempts := max(r.params.Retry, 1)

	tileAttrs := []any{
		"tile_row", job.Tile.Row, "tile_col", job.Tile.Col,
		"category", job.Category,
	}
	r.logger.Debug("job started", tileAttrs...)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		job.Attempt = attempt
		r.sleep(ctx, r.backoff.NextDelay(attempt))
		if ctx.Err() != nil {
			return
		}
		if attempt > 1 && r.budget.Exhausted() {
			r.noteBudgetExhausted()
			return
		}

		timeout := min(r.attemptTimeout, r.budget.Remaining())
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		listings, err := r.searcher.Search(attemptCtx, job.Tile, job.Category)
		if err == nil {
			r.consume(ctx, job, listings)
			cancel()
			r.stats.JobsDone.Add(1)
			r.logger.Debug("job succeeded", append(tileAttrs, "attempt", attempt)...)
			return
		}
		cancel()

		var rl *RateLimitError
		if errors.As(err, &rl) {
			r.stats.RateLimits.Add(1)
		}

		var fatal *FatalError
		if errors.As(err, &fatal) {
			r.recordFatal(fatal)
			r.stats.JobsFailed.Add(1)
			return
		}

		if !IsRetryable(err) || attempt == maxAttempts {
			r.stats.JobsFailed.Add(1)
			r.logger.Warn("job failed", append(tileAttrs, "attempt", attempt, "err", err)...)
			return
		}

		r.stats.Retries.Add(1)
		r.logger.Debug("job retrying", append(tileAttrs, "attempt", attempt, "err", err)...)
	}
}

// consume walks the lazy listing sequence in source order through
// normalize -> filter -> radius/region check -> dedupe -> budget gate.
func (r *runner) consume(ctx context.Context, job Job, listings Listings) {
	for raw := range listings {
		if ctx.Err() != nil {
			return
		}
		r.stats.ListingsFound.Add(1)

		rec, err := r.normalizer.Normalize(raw, job.Tile, job.Category)
		if err != nil {
			r.stats.ParseErrors.Add(1)
			continue
		}
		if !Accept(rec) {
			r.stats.RejectedFilter.Add(1)
			continue
		}
		if rec.HasCoords() {
			if geo.HaversineKm(r.params.Center.Lat, r.params.Center.Lng, rec.Lat, rec.Lng) > r.params.RadiusKM {
				r.stats.RejectedRadius.Add(1)
				continue
			}
			if len(r.region) > 0 && !geo.ContainsPoint(r.region, rec.Lat, rec.Lng) {
				r.stats.RejectedRadius.Add(1)
				continue
			}
		}
		if !r.dedupe.TryInsert(rec.DedupeKey) {
			r.stats.RejectedDupes.Add(1)
			continue
		}
		if !r.budget.Accept() {
			r.noteBudgetExhausted()
			return
		}
		r.stats.Accepted.Add(1)
		r.appendRecord(rec)
		r.logger.Debug("record accepted",
			"name", rec.PlaceName, "phone", rec.Phone, "category", rec.Category)
	}
}

func (r *runner) appendRecord(rec model.BusinessRecord) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

func (r *runner) takeRecords() []model.BusinessRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records
}

func (r *runner) recordFatal(err *FatalError) {
	r.mu.Lock()
	if r.fatalErr == nil {
		r.fatalErr = err
		r.logger.Error("fatal search error", "err", err.Reason, "hint", err.Hint)
	}
	r.mu.Unlock()
	r.cancelRun()
}

func (r *runner) fatal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatalErr
}

func (r *runner) noteBudgetExhausted() {
	if r.budgetLogged.CompareAndSwap(false, true) {
		r.logger.Info("budget exhausted",
			"accepted", r.budget.Accepted(), "remaining_runtime", r.budget.Remaining())
	}
}

// reportProgress keeps a live stderr line updated and emits a periodic
// structured progress event to the log.
func (r *runner) reportProgress(startTime time.Time, clock func() time.Time, suppressStderr bool, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	logTicker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	defer logTicker.Stop()

	line := func() {
		elapsed := clock().Sub(startTime).Truncate(time.Second)
		fmt.Fprintf(os.Stderr, "\r[%d/%d jobs] %d listings | %d accepted | %d failed | %s",
			r.stats.JobsDone.Load()+r.stats.JobsFailed.Load(), r.stats.JobsTotal,
			r.stats.ListingsFound.Load(), r.stats.Accepted.Load(),
			r.stats.JobsFailed.Load(), elapsed)
	}

	for {
		select {
		case <-ticker.C:
			if !suppressStderr {
				line()
			}
		case <-logTicker.C:
			r.logger.Info("progress",
				"jobs_done", r.stats.JobsDone.Load(),
				"jobs_failed", r.stats.JobsFailed.Load(),
				"jobs_total", r.stats.JobsTotal,
				"listings", r.stats.ListingsFound.Load(),
				"accepted", r.stats.Accepted.Load(),
				"elapsed", clock().Sub(startTime).Truncate(time.Second),
			)
		case <-done:
			if !suppressStderr {
				line()
				fmt.Fprintln(os.Stderr)
			}
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
