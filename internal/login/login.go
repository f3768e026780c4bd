// internal/login/login.go

// Package login authenticates a browser session before a sweep. Field and
// submit selectors are tried as ordered chains, so the executor works
// against common login forms without per-site configuration.
package login

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/karavela/qasweep/internal/config"
	"github.com/karavela/qasweep/internal/sweep"
)

// Driver is the slice of the browser session the executor drives.
type Driver interface {
	Navigate(ctx context.Context, url string) (time.Duration, error)
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Exists(ctx context.Context, selector string) (bool, error)
	CurrentURL(ctx context.Context) (string, error)
	WaitQuiescent(ctx context.Context, timeout time.Duration) error
}

var (
	// ErrNoLoginForm means no candidate page presented a password field.
	ErrNoLoginForm = errors.New("no login form found")
	// ErrLoginRejected means the form was submitted but the page still looks
	// unauthenticated.
	ErrLoginRejected = errors.New("login rejected")
)

const settleTimeout = 15 * time.Second

// Executor performs the login handshake over a Driver.
type Executor struct {
	driver Driver
	cfg    config.LoginConfig
	log    *zap.Logger
}

// NewExecutor builds a login executor.
func NewExecutor(driver Driver, cfg config.LoginConfig, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{driver: driver, cfg: cfg, log: log.Named("login")}
}

// Login navigates to the login page, fills credentials, submits, and
// verifies the result. siteURL is the sweep target's base URL, used to probe
// common login paths when no explicit login URL is configured.
func (e *Executor) Login(ctx context.Context, siteURL string) error {
	if e.cfg.Username == "" || e.cfg.Password == "" {
		return errors.New("login credentials are not configured")
	}

	if err := e.openLoginPage(ctx, siteURL); err != nil {
		return err
	}

	userSel, err := e.firstPresent(ctx, e.cfg.UsernameSelectors)
	if err != nil {
		return fmt.Errorf("locating username field: %w", err)
	}
	passSel, err := e.firstPresent(ctx, e.cfg.PasswordSelectors)
	if err != nil {
		return fmt.Errorf("locating password field: %w", err)
	}

	if err := e.driver.Fill(ctx, userSel, e.cfg.Username); err != nil {
		return fmt.Errorf("filling username: %w", err)
	}
	if err := e.driver.Fill(ctx, passSel, e.cfg.Password); err != nil {
		return fmt.Errorf("filling password: %w", err)
	}

	submitSel, err := e.firstPresent(ctx, e.cfg.SubmitSelectors)
	if err != nil {
		return fmt.Errorf("locating submit control: %w", err)
	}
	before, _ := e.driver.CurrentURL(ctx)
	if err := e.driver.Click(ctx, submitSel); err != nil {
		return fmt.Errorf("submitting login form: %w", err)
	}

	if err := e.driver.WaitQuiescent(ctx, settleTimeout); err != nil {
		var timeout *sweep.TimeoutError
		if !errors.As(err, &timeout) {
			return err
		}
	}

	if err := e.verify(ctx, passSel, before); err != nil {
		return err
	}
	e.log.Info("login succeeded", zap.String("site", siteURL))
	return nil
}

// openLoginPage navigates to the configured login URL, or probes the common
// login paths against the site root until one shows a password field.
func (e *Executor) openLoginPage(ctx context.Context, siteURL string) error {
	if e.cfg.URL != "" {
		if _, err := e.driver.Navigate(ctx, e.cfg.URL); err != nil {
			return err
		}
		return nil
	}

	base, err := url.Parse(siteURL)
	if err != nil {
		return fmt.Errorf("invalid site url %q: %w", siteURL, err)
	}
	for _, path := range e.cfg.LoginPaths {
		candidate := base.ResolveReference(&url.URL{Path: path}).String()
		if _, err := e.driver.Navigate(ctx, candidate); err != nil {
			e.log.Debug("login path unreachable", zap.String("url", candidate), zap.Error(err))
			continue
		}
		if sel, err := e.firstPresent(ctx, e.cfg.PasswordSelectors); err == nil && sel != "" {
			e.log.Debug("login form found", zap.String("url", candidate))
			return nil
		}
	}
	return ErrNoLoginForm
}

// firstPresent returns the first selector in the chain that matches an
// element on the current page.
func (e *Executor) firstPresent(ctx context.Context, selectors []string) (string, error) {
	for _, sel := range selectors {
		found, err := e.driver.Exists(ctx, sel)
		if err != nil {
			return "", err
		}
		if found {
			return sel, nil
		}
	}
	return "", ErrNoLoginForm
}

// verify decides whether the submit actually authenticated us. An explicit
// success selector wins; otherwise a vanished password field or a changed
// URL counts as success.
func (e *Executor) verify(ctx context.Context, passSel, beforeURL string) error {
	if e.cfg.SuccessSelector != "" {
		found, err := e.driver.Exists(ctx, e.cfg.SuccessSelector)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: success selector %q not found", ErrLoginRejected, e.cfg.SuccessSelector)
		}
		return nil
	}

	stillThere, err := e.driver.Exists(ctx, passSel)
	if err != nil {
		return err
	}
	if !stillThere {
		return nil
	}
	after, err := e.driver.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if after != beforeURL {
		return nil
	}
	return fmt.Errorf("%w: still on the login form", ErrLoginRejected)
}
