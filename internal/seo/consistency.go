package seo

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageObservation is what a rendered permit page says about itself.
type PageObservation struct {
	URL string
	// Robots is the content of the page's robots meta tag.
	// Empty with HasMeta false means the tag is absent (indexable by default).
	Robots  string
	HasMeta bool
}

// Violation is one disagreement between a page and the sitemap.
type Violation struct {
	URL     string
	Problem string
}

func (v Violation) String() string { return v.URL + ": " + v.Problem }

// Violations is the result of a consistency check; empty means consistent.
type Violations []Violation

// Err returns nil when there are no violations, otherwise an error listing
// every one of them.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	lines := make([]string, len(vs))
	for i, v := range vs {
		lines[i] = v.String()
	}
	return fmt.Errorf("%d consistency violation(s):\n  %s", len(vs), strings.Join(lines, "\n  "))
}

// ParseDirective splits a robots meta value into its lowercase tokens and
// reports whether it asks for noindex and whether it allows following links.
func ParseDirective(content string) (noindex, follow bool) {
	for _, tok := range strings.Split(content, ",") {
		switch strings.ToLower(strings.TrimSpace(tok)) {
		case "noindex":
			noindex = true
		case "follow":
			follow = true
		case "none":
			noindex = true
		}
	}
	return noindex, follow
}

// CheckConsistency compares the robots directive of every permit page with the
// sitemap priority recorded for the same URL. A noindex page must be listed at
// PriorityThin and carry "follow"; an indexable page must be listed at
// PriorityQuality. Results are ordered by URL.
func CheckConsistency(pages []PageObservation, priorities map[string]float64) Violations {
	var out Violations
	for _, pg := range pages {
		noindex, follow := ParseDirective(pg.Robots)

		prio, listed := priorities[pg.URL]
		if !listed {
			out = append(out, Violation{URL: pg.URL, Problem: "page missing from sitemap"})
		}

		if noindex && !follow {
			out = append(out, Violation{URL: pg.URL, Problem: fmt.Sprintf("bare noindex directive %q", pg.Robots)})
		}
		if !listed {
			continue
		}

		switch {
		case prio != PriorityThin && prio != PriorityQuality:
			out = append(out, Violation{URL: pg.URL, Problem: fmt.Sprintf("priority %.1f is neither %.1f nor %.1f", prio, PriorityThin, PriorityQuality)})
		case noindex && prio != PriorityThin:
			out = append(out, Violation{URL: pg.URL, Problem: fmt.Sprintf("noindex page listed at priority %.1f", prio)})
		case !noindex && prio != PriorityQuality:
			out = append(out, Violation{URL: pg.URL, Problem: fmt.Sprintf("indexable page listed at priority %.1f", prio)})
		}
	}
	slices.SortStableFunc(out, func(a, b Violation) int { return strings.Compare(a.URL, b.URL) })
	return out
}

// ReadRobotsMeta extracts the robots meta directive from an HTML document.
func ReadRobotsMeta(r io.Reader) (content string, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", false, fmt.Errorf("seo.ReadRobotsMeta: %w", err)
	}
	content, found = doc.Find(`head meta[name="robots"]`).First().Attr("content")
	return strings.TrimSpace(content), found, nil
}
