// internal/crawler/crawler_test.go
package crawler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karavela/qasweep/internal/config"
)

type fakeSource struct {
	links []string
	ids   []string
}

func (f *fakeSource) ExtractLinks(context.Context, string) ([]string, error) {
	return f.links, nil
}

func (f *fakeSource) AnchorIDs(context.Context) ([]string, error) {
	return f.ids, nil
}

func TestDiscoverResolvesAndFilters(t *testing.T) {
	source := &fakeSource{links: []string{
		"https://app.test/orders",
		"/settings",
		"reports/monthly",
		"https://other.example/external",
		"https://app.test/logout",
		"mailto:support@app.test",
		"#section",
		"javascript:void(0)",
		"https://app.test/orders", // duplicate
	}}
	c := New(config.CrawlerConfig{SameOriginOnly: true}, zap.NewNop())

	pages, err := c.Discover(context.Background(), source, "https://app.test/")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://app.test/",
		"https://app.test/orders",
		"https://app.test/settings",
		"https://app.test/reports/monthly",
	}, pages)
}

func TestDiscoverAllowsCrossOriginWhenConfigured(t *testing.T) {
	source := &fakeSource{links: []string{"https://other.example/page"}}
	c := New(config.CrawlerConfig{SameOriginOnly: false}, zap.NewNop())

	pages, err := c.Discover(context.Background(), source, "https://app.test")
	require.NoError(t, err)
	assert.Contains(t, pages, "https://other.example/page")
}

func TestDiscoverCapsLinkCount(t *testing.T) {
	source := &fakeSource{links: []string{"/a", "/b", "/c", "/d"}}
	c := New(config.CrawlerConfig{MaxLinks: 3, SameOriginOnly: true}, zap.NewNop())

	pages, err := c.Discover(context.Background(), source, "https://app.test")
	require.NoError(t, err)
	assert.Len(t, pages, 3)
	assert.Equal(t, "https://app.test", pages[0], "base page always included")
}

func TestDiscoverNormalizesDuplicateSpellings(t *testing.T) {
	source := &fakeSource{links: []string{
		"/orders",
		"/orders/",
		"/orders#top",
	}}
	c := New(config.CrawlerConfig{SameOriginOnly: true}, zap.NewNop())

	pages, err := c.Discover(context.Background(), source, "https://app.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.test", "https://app.test/orders"}, pages)
}
