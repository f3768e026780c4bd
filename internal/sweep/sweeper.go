// internal/sweep/sweeper.go

// Package sweep drives post-interaction verification: it scans a page for
// interactive elements, resolves each one's identity, clicks it, waits for
// the page to settle, and diffs page state to decide whether the interaction
// had an observable effect.
package sweep

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/karavela/qasweep/api/schemas"
	"github.com/karavela/qasweep/internal/elements"
)

// PageHost is the live page surface the driver consumes. The browser layer
// owns element lifetimes and selector validity; the driver only inspects and
// requests interactions. Implementations are not safe for concurrent use —
// the driver holds the host exclusively for one element's test at a time.
type PageHost interface {
	// ScanCandidates enumerates raw candidate element snapshots in document
	// order, including geometry and the DOM neighborhood fields.
	ScanCandidates(ctx context.Context) ([]schemas.ElementSnapshot, error)

	// CaptureSnapshot captures the comparable page state.
	CaptureSnapshot(ctx context.Context) (schemas.ContentSnapshot, error)

	// Click dispatches a click on the element addressed by selector.
	Click(ctx context.Context, selector string) error

	// WaitQuiescent blocks until the page settles or the timeout elapses.
	// A timeout returns *TimeoutError; any other error is a host failure.
	WaitQuiescent(ctx context.Context, timeout time.Duration) error

	// NavigateBack returns the page to url after an unintended navigation.
	NavigateBack(ctx context.Context, url string) error
}

// Options bound one page's sweep.
type Options struct {
	// ElementTimeout bounds the quiescence wait after each dispatch.
	ElementTimeout time.Duration
	// PageBudget bounds the whole page pass; elements not reached before it
	// elapses are recorded as Skipped.
	PageBudget time.Duration
	// MaxElements caps how many elements are driven per page; the remainder
	// is Skipped. Zero means no cap.
	MaxElements int
	// Filter narrows scan candidates.
	Filter elements.ScanFilter
	// Pace throttles between element tests when non-nil.
	Pace *rate.Limiter
}

const (
	defaultElementTimeout = 10 * time.Second
	defaultPageBudget     = 5 * time.Minute
)

func (o Options) withDefaults() Options {
	if o.ElementTimeout <= 0 {
		o.ElementTimeout = defaultElementTimeout
	}
	if o.PageBudget <= 0 {
		o.PageBudget = defaultPageBudget
	}
	return o
}

// Sweeper tests every interactive element on one page, strictly
// sequentially. It owns no shared mutable state, so independent Sweepers can
// run concurrently against separate pages.
type Sweeper struct {
	host PageHost
	opts Options
	log  *zap.Logger
}

// NewSweeper builds a driver over host.
func NewSweeper(host PageHost, opts Options, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{host: host, opts: opts.withDefaults(), log: log}
}

// SweepPage runs the full element pass for the page currently loaded in the
// host, recorded against url. Element-scoped failures become Failed entries
// and the pass continues; a page-fatal error returns the partial result
// alongside the error (except ScanError, which yields no results at all).
func (s *Sweeper) SweepPage(ctx context.Context, url string) (*schemas.PageResult, error) {
	started := time.Now()

	candidates, err := s.host.ScanCandidates(ctx)
	if err != nil {
		return nil, &ScanError{URL: url, Err: err}
	}
	targets := s.opts.Filter.Apply(candidates)

	s.log.Info("page sweep started",
		zap.String("url", url),
		zap.Int("candidates", len(candidates)),
		zap.Int("targets", len(targets)))

	page := &schemas.PageResult{URL: url, StartedAt: started}
	deadline := started.Add(s.opts.PageBudget)

	for i := range targets {
		desc := elements.Describe(&targets[i])

		if skip := s.skipReason(i, deadline); skip != "" {
			page.Results = append(page.Results, schemas.ElementTestResult{
				Descriptor: desc,
				Outcome:    schemas.OutcomeSkipped,
				Change:     schemas.ChangeResult{Kind: schemas.ChangeNone},
				Error:      skip,
			})
			continue
		}

		if s.opts.Pace != nil {
			if err := s.opts.Pace.Wait(ctx); err != nil {
				page.Duration = time.Since(started)
				return page, err
			}
		}

		result, fatal := s.testElement(ctx, targets[i].Selector, desc)
		page.Results = append(page.Results, result)

		if fatal != nil {
			s.log.Error("page sweep aborted",
				zap.String("url", url),
				zap.String("element", desc.Label),
				zap.Error(fatal))
			page.Duration = time.Since(started)
			return page, fatal
		}
		if err := ctx.Err(); err != nil {
			page.Duration = time.Since(started)
			return page, err
		}
	}

	page.Duration = time.Since(started)
	s.log.Info("page sweep finished",
		zap.String("url", url),
		zap.Int("tested", page.Tested()),
		zap.Int("changed", page.Changed()),
		zap.Int("failed", page.Failed()),
		zap.Duration("duration", page.Duration))
	return page, nil
}

func (s *Sweeper) skipReason(index int, deadline time.Time) string {
	if s.opts.MaxElements > 0 && index >= s.opts.MaxElements {
		return "element cap reached"
	}
	if time.Now().After(deadline) {
		return "page budget exhausted"
	}
	return ""
}

// testElement runs one element's interaction test. The returned error is
// non-nil only for page-fatal conditions; element-scoped failures are folded
// into the result entry.
func (s *Sweeper) testElement(ctx context.Context, selector string, desc schemas.ElementDescriptor) (schemas.ElementTestResult, error) {
	result := schemas.ElementTestResult{
		Descriptor: desc,
		Change:     schemas.ChangeResult{Kind: schemas.ChangeNone},
	}

	before, err := s.host.CaptureSnapshot(ctx)
	if err != nil {
		ierr := &InteractionError{Selector: selector, Label: desc.Label, Err: err}
		result.Outcome = schemas.OutcomeFailed
		result.Error = ierr.Error()
		return result, nil
	}

	dispatched := time.Now()
	if err := s.host.Click(ctx, selector); err != nil {
		// Dispatch never completed, so there is no latency to record.
		ierr := &InteractionError{Selector: selector, Label: desc.Label, Err: err}
		s.log.Warn("element dispatch failed",
			zap.String("element", desc.Label),
			zap.String("selector", selector),
			zap.Error(err))
		result.Outcome = schemas.OutcomeFailed
		result.Error = ierr.Error()
		return result, nil
	}

	if err := s.host.WaitQuiescent(ctx, s.opts.ElementTimeout); err != nil {
		var timeout *TimeoutError
		if !errors.As(err, &timeout) {
			elapsed := time.Since(dispatched).Milliseconds()
			result.LoadTimeMs = &elapsed
			result.Outcome = schemas.OutcomeFailed
			result.Error = (&InteractionError{Selector: selector, Label: desc.Label, Err: err}).Error()
			return result, nil
		}
		// Not a failure: proceed with the last observed state.
		result.NoSettle = true
		s.log.Debug("no settle signal",
			zap.String("element", desc.Label),
			zap.Duration("timeout", s.opts.ElementTimeout))
	}
	elapsed := time.Since(dispatched).Milliseconds()
	result.LoadTimeMs = &elapsed

	after, err := s.host.CaptureSnapshot(ctx)
	if err != nil {
		result.Outcome = schemas.OutcomeFailed
		result.Error = (&InteractionError{Selector: selector, Label: desc.Label, Err: err}).Error()
		return result, nil
	}

	result.Change = elements.DiffSnapshots(before, after)
	result.Outcome = schemas.OutcomeSuccess

	if result.Change.Kind == schemas.ChangeURL {
		// The click navigated away. Record it, then restore the page so the
		// remaining elements stay testable.
		s.log.Info("interaction navigated away",
			zap.String("element", desc.Label),
			zap.String("from", before.URL),
			zap.String("to", after.URL))
		if err := s.host.NavigateBack(ctx, before.URL); err != nil {
			return result, &NavigationRecoveryError{FromURL: after.URL, WantURL: before.URL, Err: err}
		}
	}
	return result, nil
}
