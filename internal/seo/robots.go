package seo

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultDisallow lists the low-value path patterns kept out of the crawl
// budget: on-site search, query-string variants, the feedback form and the
// preview JSON API. Page assets under /assets/ stay crawlable so pages render
// with their stylesheet and share image.
var DefaultDisallow = []string{"/search", "/*?*", "/feedback/", "/api/"}

// DefaultCrawlDelay is the Crawl-delay, in seconds, declared for all agents.
const DefaultCrawlDelay = 1

// RobotsPolicy is the site-level crawl policy written once to robots.txt.
type RobotsPolicy struct {
	CrawlDelay int
	Disallow   []string
	SitemapURL string
}

// NewRobotsPolicy returns the default policy for a site rooted at baseURL.
func NewRobotsPolicy(baseURL string) RobotsPolicy {
	return RobotsPolicy{
		CrawlDelay: DefaultCrawlDelay,
		Disallow:   append([]string(nil), DefaultDisallow...),
		SitemapURL: strings.TrimRight(baseURL, "/") + "/sitemap.xml",
	}
}

// Validate checks that the policy declares a crawl delay, at least one
// disallow rule and a sitemap reference.
func (p RobotsPolicy) Validate() error {
	var errs []error
	if p.CrawlDelay < 1 {
		errs = append(errs, fmt.Errorf("crawl delay must be at least 1, got %d", p.CrawlDelay))
	}
	n := 0
	for _, d := range p.Disallow {
		if strings.TrimSpace(d) != "" {
			n++
		}
	}
	if n == 0 {
		errs = append(errs, errors.New("at least one disallow rule is required"))
	}
	if strings.TrimSpace(p.SitemapURL) == "" {
		errs = append(errs, errors.New("sitemap url is required"))
	}
	return errors.Join(errs...)
}

// WriteTo renders the policy in robots.txt syntax.
func (p RobotsPolicy) WriteTo(w io.Writer) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, fmt.Errorf("seo.RobotsPolicy.WriteTo: %w", err)
	}

	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	fmt.Fprintf(&b, "Crawl-delay: %d\n", p.CrawlDelay)
	for _, d := range p.Disallow {
		if d = strings.TrimSpace(d); d != "" {
			fmt.Fprintf(&b, "Disallow: %s\n", d)
		}
	}
	fmt.Fprintf(&b, "\nSitemap: %s\n", p.SitemapURL)

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
