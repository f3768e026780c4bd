// internal/crawler/links.go
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LinkChecker probes hrefs found on a page and reports the dead ones.
// Fragment links are verified against the page's element ids instead of the
// network.
type LinkChecker struct {
	client *http.Client
	log    *zap.Logger
}

// NewLinkChecker builds a checker. A nil client gets a sane default.
func NewLinkChecker(client *http.Client, log *zap.Logger) *LinkChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LinkChecker{client: client, log: log.Named("linkcheck")}
}

// Check probes every href from pageURL and returns report-ready descriptions
// of the broken ones. anchorIDs are the ids present on the page, used for
// fragment targets.
func (lc *LinkChecker) Check(ctx context.Context, pageURL string, hrefs, anchorIDs []string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return []string{fmt.Sprintf("%s: unparseable page url: %v", pageURL, err)}
	}

	ids := make(map[string]struct{}, len(anchorIDs))
	for _, id := range anchorIDs {
		ids[id] = struct{}{}
	}

	var broken []string
	checked := map[string]struct{}{}

	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}
		if strings.HasPrefix(href, "#") {
			if frag := href[1:]; frag != "" {
				if _, ok := ids[frag]; !ok {
					broken = append(broken, fmt.Sprintf("%s: dangling anchor %s", pageURL, href))
				}
			}
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			broken = append(broken, fmt.Sprintf("%s: malformed href %q", pageURL, href))
			continue
		}
		target := base.ResolveReference(ref)
		if target.Scheme != "http" && target.Scheme != "https" {
			continue
		}
		targetStr := target.String()
		if _, dup := checked[targetStr]; dup {
			continue
		}
		checked[targetStr] = struct{}{}

		if status, err := lc.probe(ctx, targetStr); err != nil {
			broken = append(broken, fmt.Sprintf("%s -> %s: %v", pageURL, targetStr, err))
		} else if status >= http.StatusBadRequest {
			broken = append(broken, fmt.Sprintf("%s -> %s: HTTP %d", pageURL, targetStr, status))
		}
	}
	if len(broken) > 0 {
		lc.log.Warn("broken links found", zap.String("page", pageURL), zap.Int("count", len(broken)))
	}
	return broken
}

// probe issues a HEAD, falling back to GET for servers that reject HEAD.
func (lc *LinkChecker) probe(ctx context.Context, target string) (int, error) {
	status, err := lc.request(ctx, http.MethodHead, target)
	if err != nil {
		return 0, err
	}
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		return lc.request(ctx, http.MethodGet, target)
	}
	return status, nil
}

func (lc *LinkChecker) request(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := lc.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
