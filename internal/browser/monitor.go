// internal/browser/monitor.go
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/karavela/qasweep/internal/sweep"
)

// networkMonitor listens to CDP network events for one tab and tracks
// in-flight requests so callers can wait for the network to go quiet.
type networkMonitor struct {
	logger *zap.Logger

	// sessionCtx is the tab context events arrive on.
	sessionCtx context.Context
	// listenerCtx stops the listener independently of the tab.
	listenerCtx    context.Context
	cancelListener context.CancelFunc

	mu       sync.RWMutex
	inflight map[network.RequestID]struct{}
	started  bool
}

func newNetworkMonitor(sessionCtx context.Context, logger *zap.Logger) *networkMonitor {
	return &networkMonitor{
		sessionCtx: sessionCtx,
		logger:     logger.Named("netmon"),
		inflight:   make(map[network.RequestID]struct{}),
	}
}

// start enables the network domain and begins tracking request lifecycles.
func (m *networkMonitor) start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}

	m.listenerCtx, m.cancelListener = context.WithCancel(m.sessionCtx)
	chromedp.ListenTarget(m.listenerCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			m.mu.Lock()
			m.inflight[e.RequestID] = struct{}{}
			m.mu.Unlock()
		case *network.EventLoadingFinished:
			m.mu.Lock()
			delete(m.inflight, e.RequestID)
			m.mu.Unlock()
		case *network.EventLoadingFailed:
			m.mu.Lock()
			delete(m.inflight, e.RequestID)
			m.mu.Unlock()
		}
	})

	if err := chromedp.Run(m.sessionCtx, network.Enable()); err != nil {
		m.cancelListener()
		return err
	}
	m.started = true
	return nil
}

func (m *networkMonitor) stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelListener != nil {
		m.cancelListener()
		m.cancelListener = nil
	}
	m.started = false
}

func (m *networkMonitor) inflightCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.inflight)
}

// waitIdle polls until there have been no in-flight requests for quietPeriod,
// or until the overall timeout elapses, in which case it returns
// *sweep.TimeoutError so the driver records a no-settle entry rather than a
// failure.
func (m *networkMonitor) waitIdle(ctx context.Context, quietPeriod, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(quietPeriod / 2)
	defer ticker.Stop()

	lastActivity := time.Now()
	for {
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Debug("network never went quiet", zap.Duration("timeout", timeout),
				zap.Int("inflight", m.inflightCount()))
			return &sweep.TimeoutError{Timeout: timeout}
		case <-ticker.C:
			if m.inflightCount() > 0 {
				lastActivity = time.Now()
			} else if time.Since(lastActivity) >= quietPeriod {
				return nil
			}
		}
	}
}
