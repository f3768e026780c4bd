// internal/browser/manager.go

// Package browser owns the Chrome process and page sessions. It exposes the
// primitives the sweep driver consumes: navigation, element scanning,
// content snapshots, click dispatch, and a network-quiescence signal.
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/karavela/qasweep/internal/config"
)

// Manager handles the browser allocator lifecycle and session creation.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCtx    context.Context
	cancelAlloc context.CancelFunc

	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	sessions      map[string]*Session
}

// NewManager starts a browser allocator configured from cfg. The browser
// process itself launches lazily with the first session.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	return &Manager{
		logger:      logger.Named("browser"),
		cfg:         cfg,
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		sessions:    make(map[string]*Session),
	}
}

// allocatorOptions translates BrowserConfig into chromedp exec options.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoSandbox,
	)
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// NewSession opens a fresh tab. All tabs share one browser process, so
// cookies set during login are visible to every session. The caller owns the
// session lifecycle and must call Close.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(m.browserContext())
	session, err := newSession(tabCtx, cancel, m.cfg, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Debug("session opened", zap.String("session_id", session.ID()))
	return session, nil
}

// browserContext returns the shared browser context, starting it on first
// use. Tabs derived from it live in the same browser process.
func (m *Manager) browserContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browserCtx == nil {
		m.browserCtx, m.cancelBrowser = chromedp.NewContext(m.allocCtx)
	}
	return m.browserCtx
}

// Shutdown closes every open session and tears down the browser process.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.sessions = make(map[string]*Session)
	cancelBrowser := m.cancelBrowser
	m.browserCtx, m.cancelBrowser = nil, nil
	m.mu.Unlock()

	for _, s := range open {
		if err := s.Close(); err != nil {
			m.logger.Warn("session close failed during shutdown",
				zap.String("session_id", s.ID()), zap.Error(err))
		}
	}
	if cancelBrowser != nil {
		cancelBrowser()
	}
	m.cancelAlloc()
	m.logger.Info("browser manager shut down")
}
