// internal/flows/executor.go
package flows

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/karavela/qasweep/api/schemas"
	"github.com/karavela/qasweep/internal/crawler"
	"github.com/karavela/qasweep/internal/sweep"
)

// Driver is everything a flow step can ask of the browser session. A
// browser.Session satisfies it.
type Driver interface {
	sweep.PageHost
	Navigate(ctx context.Context, url string) (time.Duration, error)
	Fill(ctx context.Context, selector, value string) error
	Exists(ctx context.Context, selector string) (bool, error)
	CurrentURL(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	ExtractLinks(ctx context.Context, navSelector string) ([]string, error)
	AnchorIDs(ctx context.Context) ([]string, error)
}

// StepStatus is the per-step verdict.
type StepStatus string

const (
	StepPassed  StepStatus = "passed"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult records one executed (or skipped) step.
type StepResult struct {
	Name   string     `json:"name"`
	Action Action     `json:"action"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
	// Page holds the sweep result when the step was a sweep.
	Page *schemas.PageResult `json:"page,omitempty"`
	// BrokenLinks holds check_links findings.
	BrokenLinks []string `json:"broken_links,omitempty"`
}

// Result is a full flow execution record.
type Result struct {
	Flow     string        `json:"flow"`
	Target   string        `json:"target"`
	Steps    []StepResult  `json:"steps"`
	Duration time.Duration `json:"duration"`
}

// Coverage summarizes a flow run for the report.
type Coverage struct {
	Total        int      `json:"total"`
	Passed       int      `json:"passed"`
	Failed       int      `json:"failed"`
	Skipped      int      `json:"skipped"`
	FailedSteps  []string `json:"failed_steps,omitempty"`
	SkippedSteps []string `json:"skipped_steps,omitempty"`
}

// Coverage computes the run summary.
func (r *Result) Coverage() Coverage {
	cov := Coverage{Total: len(r.Steps)}
	for _, s := range r.Steps {
		switch s.Status {
		case StepPassed:
			cov.Passed++
		case StepFailed:
			cov.Failed++
			cov.FailedSteps = append(cov.FailedSteps, s.Name)
		case StepSkipped:
			cov.Skipped++
			cov.SkippedSteps = append(cov.SkippedSteps, s.Name)
		}
	}
	return cov
}

// ExecutorOptions configure flow execution.
type ExecutorOptions struct {
	// Sweep bounds sweep steps.
	Sweep sweep.Options
	// NavSelector scopes check_links collection.
	NavSelector string
	// ScreenshotDir receives screenshot step output.
	ScreenshotDir string
}

// Executor runs one flow against a live session.
type Executor struct {
	driver  Driver
	checker *crawler.LinkChecker
	opts    ExecutorOptions
	log     *zap.Logger
}

// NewExecutor builds a flow executor. checker may be nil when check_links
// steps are not used.
func NewExecutor(driver Driver, checker *crawler.LinkChecker, opts ExecutorOptions, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{driver: driver, checker: checker, opts: opts, log: log.Named("flows")}
}

// Execute runs every step in order. A failed critical step marks the
// remaining steps skipped; normal failures are recorded and the flow
// continues; optional failures count as passed with the error noted.
func (e *Executor) Execute(ctx context.Context, flow *Flow, target string) (*Result, error) {
	if err := flow.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid flow target %q: %w", target, err)
	}

	started := time.Now()
	result := &Result{Flow: flow.Name, Target: target}
	aborted := false

	for i := range flow.Steps {
		step := &flow.Steps[i]
		sr := StepResult{Name: step.label(i), Action: step.Action}

		if aborted {
			sr.Status = StepSkipped
			sr.Error = "skipped after critical step failure"
			result.Steps = append(result.Steps, sr)
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(started)
			return result, err
		}

		stepErr := e.runStep(ctx, step, base, &sr)
		if stepErr != nil && ctx.Err() != nil {
			// A dead context is a run-level condition, not a step verdict.
			result.Duration = time.Since(started)
			return result, ctx.Err()
		}
		if stepErr != nil {
			switch importanceOf(step) {
			case ImportanceCritical:
				sr.Status = StepFailed
				sr.Error = stepErr.Error()
				aborted = true
				e.log.Error("critical flow step failed; aborting flow",
					zap.String("flow", flow.Name),
					zap.String("step", sr.Name),
					zap.Error(stepErr))
			case ImportanceOptional:
				// Optional steps never fail the flow.
				sr.Status = StepPassed
				sr.Error = stepErr.Error()
				e.log.Debug("optional flow step failed",
					zap.String("step", sr.Name), zap.Error(stepErr))
			default:
				sr.Status = StepFailed
				sr.Error = stepErr.Error()
				e.log.Warn("flow step failed",
					zap.String("step", sr.Name), zap.Error(stepErr))
			}
		} else {
			sr.Status = StepPassed
		}
		result.Steps = append(result.Steps, sr)
	}

	result.Duration = time.Since(started)
	cov := result.Coverage()
	e.log.Info("flow finished",
		zap.String("flow", flow.Name),
		zap.Int("passed", cov.Passed),
		zap.Int("failed", cov.Failed),
		zap.Int("skipped", cov.Skipped))
	return result, nil
}

func (e *Executor) runStep(ctx context.Context, step *Step, base *url.URL, sr *StepResult) error {
	switch step.Action {
	case ActionNavigate:
		ref, err := url.Parse(step.URL)
		if err != nil {
			return fmt.Errorf("bad navigate url %q: %w", step.URL, err)
		}
		_, err = e.driver.Navigate(ctx, base.ResolveReference(ref).String())
		return err

	case ActionSweep:
		current, err := e.driver.CurrentURL(ctx)
		if err != nil {
			return err
		}
		sweeper := sweep.NewSweeper(e.driver, e.opts.Sweep, e.log)
		page, err := sweeper.SweepPage(ctx, current)
		sr.Page = page
		return err

	case ActionCheckLinks:
		if e.checker == nil {
			return errors.New("link checker not configured")
		}
		current, err := e.driver.CurrentURL(ctx)
		if err != nil {
			return err
		}
		hrefs, err := e.driver.ExtractLinks(ctx, e.opts.NavSelector)
		if err != nil {
			return err
		}
		ids, err := e.driver.AnchorIDs(ctx)
		if err != nil {
			return err
		}
		sr.BrokenLinks = e.checker.Check(ctx, current, hrefs, ids)
		if len(sr.BrokenLinks) > 0 {
			return fmt.Errorf("%d broken links", len(sr.BrokenLinks))
		}
		return nil

	case ActionFillForm:
		for selector, value := range step.Fields {
			if err := e.driver.Fill(ctx, selector, value); err != nil {
				return err
			}
		}
		return nil

	case ActionClick:
		return e.driver.Click(ctx, step.Selector)

	case ActionWait:
		timer := time.NewTimer(time.Duration(step.Seconds * float64(time.Second)))
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

	case ActionCheckElement:
		found, err := e.driver.Exists(ctx, step.Selector)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("element %q not found", step.Selector)
		}
		return nil

	case ActionScreenshot:
		buf, err := e.driver.Screenshot(ctx)
		if err != nil {
			return err
		}
		path := step.Path
		if path == "" {
			path = fmt.Sprintf("%s-%d.png", sr.Action, time.Now().Unix())
		}
		if e.opts.ScreenshotDir != "" {
			if err := os.MkdirAll(e.opts.ScreenshotDir, 0o755); err != nil {
				return err
			}
			path = filepath.Join(e.opts.ScreenshotDir, path)
		}
		return os.WriteFile(path, buf, 0o644)

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}
