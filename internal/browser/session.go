// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/karavela/qasweep/api/schemas"
	"github.com/karavela/qasweep/internal/config"
	"github.com/karavela/qasweep/internal/elements"
	"github.com/karavela/qasweep/internal/sweep"
)

// Session is one browser tab. It implements sweep.PageSession and the extra
// primitives the login executor and crawler need. Not safe for concurrent
// use; callers hold it exclusively per element test.
type Session struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
	cfg     config.BrowserConfig
	monitor *networkMonitor

	mu       sync.Mutex
	isClosed bool
}

var _ sweep.PageSession = (*Session)(nil)

const (
	clickTimeout    = 15 * time.Second
	evaluateTimeout = 20 * time.Second
)

// newSession wraps an initialized tab context.
func newSession(tabCtx context.Context, cancel context.CancelFunc, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.NewString()
	s := &Session{
		id:     sessionID,
		ctx:    tabCtx,
		cancel: cancel,
		logger: logger.With(zap.String("session_id", sessionID)),
		cfg:    cfg,
	}

	// Materialize the tab and attach CDP before anything else runs on it.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect to browser target: %w", err)
	}

	s.monitor = newNetworkMonitor(tabCtx, s.logger)
	if err := s.monitor.start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start network monitor: %w", err)
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// run executes tasks on the tab, bounded by timeout and abandoned early if
// the caller's context dies.
func (s *Session) run(ctx context.Context, timeout time.Duration, tasks ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(opCtx, tasks...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate loads url, waits for the document plus a quiet network, and
// reports the load latency.
func (s *Session) Navigate(ctx context.Context, url string) (time.Duration, error) {
	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	started := time.Now()

	err := s.run(ctx, timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return 0, fmt.Errorf("navigation failed for %s: %w", url, err)
	}

	// Let in-flight page resources drain; a busy page is not a nav failure.
	if err := s.WaitQuiescent(ctx, timeout-time.Since(started)); err != nil {
		if _, ok := err.(*sweep.TimeoutError); !ok {
			return 0, err
		}
	}

	loadTime := time.Since(started)
	s.logger.Debug("navigation complete",
		zap.String("url", url),
		zap.Duration("load_time", loadTime))
	return loadTime, nil
}

// NavigateBack restores the page to url after an unintended navigation. A
// direct navigation is used instead of history.back so recovery works even
// when the click opened a redirect chain.
func (s *Session) NavigateBack(ctx context.Context, url string) error {
	_, err := s.Navigate(ctx, url)
	return err
}

// CurrentURL reads the tab's location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, evaluateTimeout, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return url, nil
}

// Click dispatches a click on the first element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx, clickTimeout, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click failed for selector %q: %w", selector, err)
	}
	return nil
}

// Fill focuses the element matching selector and types value into it.
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	err := s.run(ctx, clickTimeout,
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill failed for selector %q: %w", selector, err)
	}
	return nil
}

// Exists reports whether any element matches selector, without waiting.
func (s *Session) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	script := fmt.Sprintf(`document.querySelector(%s) !== null`, strconv.Quote(selector))
	if err := s.run(ctx, evaluateTimeout, chromedp.Evaluate(script, &found)); err != nil {
		return false, fmt.Errorf("existence check failed for %q: %w", selector, err)
	}
	return found, nil
}

// WaitQuiescent blocks until the network stays quiet for the configured
// quiet period, bounded by timeout.
func (s *Session) WaitQuiescent(ctx context.Context, timeout time.Duration) error {
	quiet := s.cfg.QuietPeriod
	if quiet <= 0 {
		quiet = 1500 * time.Millisecond
	}
	if timeout <= quiet {
		timeout = quiet * 2
	}
	return s.monitor.waitIdle(ctx, quiet, timeout)
}

// ScanCandidates runs the in-page scan and returns raw element snapshots in
// document order.
func (s *Session) ScanCandidates(ctx context.Context) ([]schemas.ElementSnapshot, error) {
	var snaps []schemas.ElementSnapshot
	if err := s.run(ctx, evaluateTimeout, chromedp.Evaluate(scanScript, &snaps)); err != nil {
		return nil, fmt.Errorf("element scan script failed: %w", err)
	}
	return snaps, nil
}

// CaptureSnapshot captures the comparable page state.
func (s *Session) CaptureSnapshot(ctx context.Context) (schemas.ContentSnapshot, error) {
	var raw struct {
		Text       string         `json:"text"`
		ItemCounts map[string]int `json:"item_counts"`
	}
	var url string
	err := s.run(ctx, evaluateTimeout,
		chromedp.Evaluate(snapshotScript, &raw),
		chromedp.Location(&url),
	)
	if err != nil {
		return schemas.ContentSnapshot{}, fmt.Errorf("content snapshot failed: %w", err)
	}
	return schemas.ContentSnapshot{
		TextDigest: elements.DigestText(raw.Text),
		ItemCounts: raw.ItemCounts,
		URL:        url,
	}, nil
}

// ExtractLinks collects absolute hrefs, scoped to navSelector when any
// match it.
func (s *Session) ExtractLinks(ctx context.Context, navSelector string) ([]string, error) {
	var hrefs []string
	script := fmt.Sprintf("%s(%s)", linksScript, strconv.Quote(navSelector))
	if err := s.run(ctx, evaluateTimeout, chromedp.Evaluate(script, &hrefs)); err != nil {
		return nil, fmt.Errorf("link extraction failed: %w", err)
	}
	return hrefs, nil
}

// AnchorIDs lists every element id on the page, for fragment-link checks.
func (s *Session) AnchorIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.run(ctx, evaluateTimeout, chromedp.Evaluate(anchorIDsScript, &ids)); err != nil {
		return nil, fmt.Errorf("anchor id collection failed: %w", err)
	}
	return ids, nil
}

// Screenshot captures the viewport as PNG bytes.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, evaluateTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// Close releases the tab. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true

	s.monitor.stop()
	s.cancel()
	s.logger.Debug("session closed")
	return nil
}
