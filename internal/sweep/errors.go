// internal/sweep/errors.go
package sweep

import (
	"errors"
	"fmt"
	"time"
)

// Typed errors so callers can classify failures with errors.As instead of
// string matching. Two severities exist: element-scoped errors mark one
// result entry Failed and the sweep continues; page-fatal errors abort the
// remaining sweep and surface to the caller.

// ScanError means the page root could not be queried. Page-fatal: the page's
// pass produces no partial results.
type ScanError struct {
	URL string
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("element scan failed for %s: %v", e.URL, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// InteractionError means one element could not be driven (not clickable,
// detached at dispatch time, snapshot capture failed). Element-scoped.
type InteractionError struct {
	Selector string
	Label    string
	Err      error
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("interaction failed for %q (%s): %v", e.Label, e.Selector, e.Err)
}

func (e *InteractionError) Unwrap() error { return e.Err }

// TimeoutError means quiescence was not observed within the bound. It is
// element-scoped and non-fatal: the driver proceeds with the last observed
// snapshot and records the entry as "no settle signal".
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no settle signal within %s", e.Timeout)
}

// NavigationRecoveryError means the driver could not return to the prior URL
// after an unintended navigation. Page-fatal: it invalidates the state
// assumption of every subsequent element test on the page.
type NavigationRecoveryError struct {
	FromURL string
	WantURL string
	Err     error
}

func (e *NavigationRecoveryError) Error() string {
	return fmt.Sprintf("failed to recover from %s back to %s: %v", e.FromURL, e.WantURL, e.Err)
}

func (e *NavigationRecoveryError) Unwrap() error { return e.Err }

// IsPageFatal reports whether err aborts the rest of the page's sweep.
func IsPageFatal(err error) bool {
	var scanErr *ScanError
	var navErr *NavigationRecoveryError
	return errors.As(err, &scanErr) || errors.As(err, &navErr)
}
