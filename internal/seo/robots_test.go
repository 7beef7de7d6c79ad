package seo_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/permitsite/internal/seo"
)

func TestNewRobotsPolicy(t *testing.T) {
	p := seo.NewRobotsPolicy("https://permits.example.com/")

	assert.Equal(t, seo.DefaultCrawlDelay, p.CrawlDelay)
	assert.Equal(t, seo.DefaultDisallow, p.Disallow)
	assert.Equal(t, "https://permits.example.com/sitemap.xml", p.SitemapURL)
	require.NoError(t, p.Validate())

	p.Disallow[0] = "/changed"
	assert.Equal(t, "/search", seo.DefaultDisallow[0], "defaults are copied, not shared")
}

// Pages load their stylesheet and share image from /assets/.
func TestDefaultDisallow_KeepsPageAssetsCrawlable(t *testing.T) {
	for _, asset := range []string{"/assets/site.css", "/assets/og-image.png"} {
		for _, rule := range seo.DefaultDisallow {
			assert.False(t, strings.HasPrefix(asset, rule), "%s blocks %s", rule, asset)
		}
	}
}

func TestRobotsPolicy_WriteToExact(t *testing.T) {
	p := seo.RobotsPolicy{
		CrawlDelay: 2,
		Disallow:   []string{"/search", "  ", "/feedback/"},
		SitemapURL: "https://x.test/sitemap.xml",
	}

	var b strings.Builder
	n, err := p.WriteTo(&b)
	require.NoError(t, err)

	want := "User-agent: *\n" +
		"Allow: /\n" +
		"Crawl-delay: 2\n" +
		"Disallow: /search\n" +
		"Disallow: /feedback/\n" +
		"\nSitemap: https://x.test/sitemap.xml\n"
	assert.Equal(t, want, b.String())
	assert.EqualValues(t, len(want), n)
}

func TestRobotsPolicy_ValidateEachRule(t *testing.T) {
	tests := []struct {
		name   string
		policy seo.RobotsPolicy
		want   string
	}{
		{"zero crawl delay", seo.RobotsPolicy{Disallow: []string{"/a"}, SitemapURL: "u"}, "crawl delay must be at least 1"},
		{"blank disallow only", seo.RobotsPolicy{CrawlDelay: 1, Disallow: []string{" "}, SitemapURL: "u"}, "at least one disallow rule"},
		{"no sitemap", seo.RobotsPolicy{CrawlDelay: 1, Disallow: []string{"/a"}}, "sitemap url is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRobotsPolicy_WriteToRejectsInvalid(t *testing.T) {
	var b strings.Builder

	_, err := seo.RobotsPolicy{}.WriteTo(&b)

	require.Error(t, err)
	assert.Empty(t, b.String())
}
