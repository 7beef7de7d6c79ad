package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkordes/permitsite/internal/render"
	"github.com/pkordes/permitsite/internal/seo"
)

// Verify re-reads a generated site and checks that every permit page's robots
// meta tag agrees with its sitemap priority and with the manifest. Pages are
// located through the manifest, never by guessing paths.
//
// The returned error covers unreadable artifacts; disagreements are reported
// as violations.
func Verify(ctx context.Context, outputDir string) (seo.Violations, error) {
	entries, err := readManifest(filepath.Join(outputDir, render.ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("service.Verify: %w", err)
	}
	priorities, err := readSitemap(filepath.Join(outputDir, SitemapFile))
	if err != nil {
		return nil, fmt.Errorf("service.Verify: %w", err)
	}

	var (
		pages []seo.PageObservation
		extra seo.Violations
	)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, found, err := readPageRobots(filepath.Join(outputDir, filepath.FromSlash(e.File)))
		if errors.Is(err, fs.ErrNotExist) {
			extra = append(extra, seo.Violation{URL: e.URL, Problem: "page file " + e.File + " missing"})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("service.Verify: %s: %w", e.File, err)
		}
		if !found {
			extra = append(extra, seo.Violation{URL: e.URL, Problem: "robots meta tag missing"})
		} else if content != e.RobotsDirective {
			extra = append(extra, seo.Violation{URL: e.URL, Problem: fmt.Sprintf("page directive %q differs from manifest %q", content, e.RobotsDirective)})
		}
		if p, ok := priorities[e.URL]; ok && p != e.SitemapPriority {
			extra = append(extra, seo.Violation{URL: e.URL, Problem: fmt.Sprintf("sitemap priority %.1f differs from manifest %.1f", p, e.SitemapPriority)})
		}
		pages = append(pages, seo.PageObservation{URL: e.URL, Robots: content, HasMeta: found})
	}

	robots, err := checkRobotsFile(filepath.Join(outputDir, RobotsFile))
	if err != nil {
		return nil, fmt.Errorf("service.Verify: %w", err)
	}

	out := seo.CheckConsistency(pages, priorities)
	out = append(out, extra...)
	out = append(out, robots...)
	return sortViolations(out), nil
}

func readManifest(path string) ([]render.ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return render.ReadManifest(f)
}

func readSitemap(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	set, err := render.ParseSitemap(f)
	if err != nil {
		return nil, err
	}
	return set.Priorities()
}

func readPageRobots(path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()
	return seo.ReadRobotsMeta(f)
}

// checkRobotsFile reports the site-level directives robots.txt must carry.
func checkRobotsFile(path string) (seo.Violations, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return seo.Violations{{URL: "/" + RobotsFile, Problem: "file missing"}}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := map[string]bool{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		field, value, ok := strings.Cut(sc.Text(), ":")
		if ok && strings.TrimSpace(value) != "" {
			seen[strings.ToLower(strings.TrimSpace(field))] = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	var out seo.Violations
	for _, field := range []string{"user-agent", "crawl-delay", "disallow", "sitemap"} {
		if !seen[field] {
			out = append(out, seo.Violation{URL: "/" + RobotsFile, Problem: "no " + field + " directive"})
		}
	}
	return out, nil
}

func sortViolations(vs seo.Violations) seo.Violations {
	if len(vs) == 0 {
		return nil
	}
	slices.SortStableFunc(vs, func(a, b seo.Violation) int { return strings.Compare(a.URL, b.URL) })
	return vs
}
