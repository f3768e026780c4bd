// internal/crawler/crawler.go

// Package crawler discovers the pages worth sweeping from a site's landing
// page and checks pages for broken links.
package crawler

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/karavela/qasweep/internal/config"
)

// LinkSource is the slice of the browser session discovery reads from.
type LinkSource interface {
	ExtractLinks(ctx context.Context, navSelector string) ([]string, error)
	AnchorIDs(ctx context.Context) ([]string, error)
}

// skipKeywords mark links that would end the authenticated session or leave
// the app; discovery never follows them.
var skipKeywords = []string{"logout", "signout", "sign-out", "mailto:", "tel:", "javascript:"}

// Crawler turns raw hrefs from the page into a bounded, same-origin,
// deduplicated page list.
type Crawler struct {
	cfg config.CrawlerConfig
	log *zap.Logger
}

// New builds a crawler.
func New(cfg config.CrawlerConfig, log *zap.Logger) *Crawler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Crawler{cfg: cfg, log: log.Named("crawler")}
}

// Discover collects the pages reachable from the current page's navigation
// area. The base URL itself is always first in the result.
func (c *Crawler) Discover(ctx context.Context, source LinkSource, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	hrefs, err := source.ExtractLinks(ctx, c.cfg.NavSelector)
	if err != nil {
		return nil, err
	}

	pages := []string{normalize(base)}
	seen := map[string]struct{}{pages[0]: {}}

	for _, href := range hrefs {
		target, ok := c.resolve(base, href)
		if !ok {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		pages = append(pages, target)
		if c.cfg.MaxLinks > 0 && len(pages) > c.cfg.MaxLinks {
			pages = pages[:c.cfg.MaxLinks]
			c.log.Debug("link discovery capped", zap.Int("max_links", c.cfg.MaxLinks))
			break
		}
	}

	c.log.Info("link discovery complete",
		zap.String("base", baseURL),
		zap.Int("raw_links", len(hrefs)),
		zap.Int("pages", len(pages)))
	return pages, nil
}

// resolve turns one href into a sweepable absolute URL, or reports it
// unusable.
func (c *Crawler) resolve(base *url.URL, href string) (string, bool) {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range skipKeywords {
		if strings.Contains(lower, kw) {
			return "", false
		}
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	target := base.ResolveReference(ref)
	if target.Scheme != "http" && target.Scheme != "https" {
		return "", false
	}
	if c.cfg.SameOriginOnly && target.Host != base.Host {
		return "", false
	}
	return normalize(target), true
}

// normalize drops fragments and trailing slashes so the same page is not
// swept twice under different spellings.
func normalize(u *url.URL) string {
	clean := *u
	clean.Fragment = ""
	s := clean.String()
	if strings.HasSuffix(clean.Path, "/") && clean.Path != "/" {
		s = strings.TrimSuffix(s, "/")
	}
	return s
}
