// internal/sweep/runner.go
package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/karavela/qasweep/api/schemas"
)

// PageSession extends PageHost with the page-level lifecycle the runner
// drives when it performs navigation itself. One session serves one page at
// a time.
type PageSession interface {
	PageHost

	// Navigate loads url and reports the load latency.
	Navigate(ctx context.Context, url string) (time.Duration, error)

	// Close releases the session's browser resources.
	Close() error
}

// SessionFactory opens a fresh page session. The runner calls it once per
// concurrent worker so pages never share a session.
type SessionFactory func(ctx context.Context) (PageSession, error)

// RunnerOptions configure a multi-page sweep.
type RunnerOptions struct {
	// Sweep bounds each individual page pass.
	Sweep Options
	// Concurrency is the number of pages swept in parallel. Values below 1
	// mean sequential.
	Concurrency int
	// SlowLoadThreshold flags pages whose navigation exceeds it.
	SlowLoadThreshold time.Duration
}

const defaultSlowLoadThreshold = 10 * time.Second

// Runner sweeps a set of pages, each in its own session, and aggregates the
// run-level result.
type Runner struct {
	factory SessionFactory
	opts    RunnerOptions
	log     *zap.Logger
}

// NewRunner builds a runner over factory.
func NewRunner(factory SessionFactory, opts RunnerOptions, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.SlowLoadThreshold <= 0 {
		opts.SlowLoadThreshold = defaultSlowLoadThreshold
	}
	return &Runner{factory: factory, opts: opts, log: log}
}

// Run sweeps every URL and returns the aggregated result. Page-fatal errors
// on one page do not stop the others: the failure is folded into the run's
// warnings and whatever partial results exist are kept. Only a canceled
// context or a session that cannot be opened aborts the run.
func (r *Runner) Run(ctx context.Context, website string, urls []string) (*schemas.SweepResult, error) {
	started := time.Now()
	run := &schemas.SweepResult{
		RunID:     uuid.NewString(),
		Website:   website,
		StartedAt: started,
	}
	r.log.Info("sweep run started",
		zap.String("run_id", run.RunID),
		zap.String("website", website),
		zap.Int("pages", len(urls)),
		zap.Int("concurrency", r.opts.Concurrency))

	pages := make([]*schemas.PageResult, len(urls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, url := range urls {
		g.Go(func() error {
			page, warnings, err := r.sweepOne(gctx, url)
			mu.Lock()
			pages[i] = page
			run.Warnings = append(run.Warnings, warnings...)
			mu.Unlock()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return run, err
	}

	for _, page := range pages {
		if page != nil {
			run.Pages = append(run.Pages, *page)
		}
	}
	run.Duration = time.Since(started)

	summary := run.Summary()
	r.log.Info("sweep run finished",
		zap.String("run_id", run.RunID),
		zap.Int("tested", summary.TotalTested),
		zap.Int("failed", summary.Failed),
		zap.Int("issues", len(summary.Issues)),
		zap.Duration("duration", run.Duration))
	return run, nil
}

// sweepOne owns one page end to end: open session, navigate, sweep, close.
// Page-fatal sweep errors are demoted to warnings so sibling pages proceed.
func (r *Runner) sweepOne(ctx context.Context, url string) (*schemas.PageResult, []string, error) {
	session, err := r.factory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("opening session for %s: %w", url, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			r.log.Warn("session close failed", zap.String("url", url), zap.Error(cerr))
		}
	}()

	var warnings []string

	loadTime, err := session.Navigate(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, warnings, ctx.Err()
		}
		warnings = append(warnings, fmt.Sprintf("%s: navigation failed: %v", url, err))
		return nil, warnings, nil
	}

	sweeper := NewSweeper(session, r.opts.Sweep, r.log.With(zap.String("url", url)))
	page, err := sweeper.SweepPage(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return page, warnings, ctx.Err()
		}
		warnings = append(warnings, fmt.Sprintf("%s: %v", url, err))
	}
	if page != nil {
		page.NavLoadMs = loadTime.Milliseconds()
		if loadTime > r.opts.SlowLoadThreshold {
			page.SlowLoad = true
			warnings = append(warnings, fmt.Sprintf("%s: slow page load (%s)", url, loadTime.Round(time.Millisecond)))
		}
		for _, res := range page.Results {
			if res.NoSettle {
				warnings = append(warnings, fmt.Sprintf("%s: %s never settled after interaction", url, res.Descriptor.Label))
			}
		}
	}
	return page, warnings, nil
}
