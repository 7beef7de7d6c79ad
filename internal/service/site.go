// Package service contains the business logic of the permit site.
// Services orchestrate the loader, the record store, the SEO policy and the
// renderer. No SQL and no HTML live here.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/permitsite/internal/domain"
	"github.com/pkordes/permitsite/internal/loader"
	"github.com/pkordes/permitsite/internal/render"
	"github.com/pkordes/permitsite/internal/seo"
)

// Output file names inside the site root.
const (
	SitemapFile = "sitemap.xml"
	RobotsFile  = "robots.txt"
)

// PermitLister supplies the batch to publish. loader.FileSource and
// repo.PermitRepo both satisfy it.
type PermitLister interface {
	List(ctx context.Context) ([]domain.Permit, error)
}

// BuildOptions controls one generation run.
type BuildOptions struct {
	OutputDir string
	StaticDir string // copied verbatim into OutputDir; may be empty
	Workers   int    // <= 0 means GOMAXPROCS
	Robots    seo.RobotsPolicy

	// StrictRelated fails the build on related_pages ids missing from the batch.
	StrictRelated bool
}

// Report summarises a finished build.
type Report struct {
	Permits  int
	Thin     int
	Quality  int
	Sections int
	Dangling int
	Entries  []render.ManifestEntry
}

// SiteService builds the static site from a batch of permits.
type SiteService struct {
	source   PermitLister
	renderer *render.Renderer
	log      *slog.Logger
	now      func() time.Time
}

// NewSiteService constructs a SiteService.
func NewSiteService(source PermitLister, renderer *render.Renderer, log *slog.Logger) *SiteService {
	return &SiteService{source: source, renderer: renderer, log: log, now: time.Now}
}

// WithClock replaces the clock used for lastmod dates of pages without a
// date_extracted.
func (s *SiteService) WithClock(now func() time.Time) *SiteService {
	s.now = now
	return s
}

// plannedPage is one permit with its output location decided.
type plannedPage struct {
	permit domain.Permit
	path   string
}

// Build loads, validates and publishes the whole batch. Nothing is written
// when the data is invalid.
//
// Each record's verdict is computed exactly once; that value is rendered into
// the page head and reused for the sitemap entry and the manifest.
func (s *SiteService) Build(ctx context.Context, opts BuildOptions) (Report, error) {
	permits, err := s.source.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("service.SiteService.Build: load: %w", err)
	}
	if err := loader.Validate(permits, loader.Options{StrictRelated: opts.StrictRelated}); err != nil {
		return Report{}, fmt.Errorf("service.SiteService.Build: %w", err)
	}
	dangling := loader.DanglingRelated(permits)
	for _, de := range dangling {
		s.log.Warn("related page not in batch", "id", de.ID, "reason", de.Reason)
	}
	if err := opts.Robots.Validate(); err != nil {
		return Report{}, fmt.Errorf("service.SiteService.Build: robots policy: %w", err)
	}

	pages, err := planPages(permits)
	if err != nil {
		return Report{}, fmt.Errorf("service.SiteService.Build: %w", err)
	}

	verdicts, err := s.renderPermits(ctx, pages, opts)
	if err != nil {
		return Report{}, fmt.Errorf("service.SiteService.Build: %w", err)
	}

	sections := groupSections(pages)
	if err := s.renderListings(pages, sections, opts.OutputDir); err != nil {
		return Report{}, fmt.Errorf("service.SiteService.Build: %w", err)
	}

	today := s.now().UTC().Format(time.DateOnly)
	site := s.renderer.Site()

	var sitemap render.URLSet
	sitemap.Add(site.URL("/"), today, render.ChangeDaily, seo.PriorityHome)
	for _, sec := range sections {
		sitemap.Add(site.URL(sec.Path), today, render.ChangeDaily, seo.PriorityState)
	}

	report := Report{Permits: len(pages), Sections: len(sections), Dangling: len(dangling)}
	entries := make([]render.ManifestEntry, len(pages))
	for i, pg := range pages {
		v := verdicts[i]
		lastmod := strings.TrimSpace(pg.permit.DateExtracted)
		if lastmod == "" {
			lastmod = today
		}
		sitemap.Add(site.URL(pg.path), lastmod, render.ChangeWeekly, v.SitemapPriority)
		entries[i] = render.ManifestEntry{
			ID:      pg.permit.ID,
			Path:    pg.path,
			URL:     site.URL(pg.path),
			File:    render.FilePath(pg.path),
			Verdict: v,
		}
		if v.IsThin {
			report.Thin++
		} else {
			report.Quality++
		}
	}

	if err := writeFile(filepath.Join(opts.OutputDir, SitemapFile), func(w io.Writer) error {
		_, err := sitemap.WriteTo(w)
		return err
	}); err != nil {
		return Report{}, fmt.Errorf("service.SiteService.Build: sitemap: %w", err)
	}
	if err := writeFile(filepath.Join(opts.OutputDir, RobotsFile), func(w io.Writer) error {
		_, err := opts.Robots.WriteTo(w)
		return err
	}); err != nil {
		return Report{}, fmt.Errorf("service.SiteService.Build: robots: %w", err)
	}
	if err := writeFile(filepath.Join(opts.OutputDir, render.ManifestFile), func(w io.Writer) error {
		return render.WriteManifest(w, entries)
	}); err != nil {
		return Report{}, fmt.Errorf("service.SiteService.Build: manifest: %w", err)
	}
	if opts.StaticDir != "" {
		if err := render.CopyDir(opts.StaticDir, opts.OutputDir); err != nil {
			return Report{}, fmt.Errorf("service.SiteService.Build: %w", err)
		}
	}

	report.Entries = entries
	s.log.Info("site built",
		"permits", report.Permits,
		"thin", report.Thin,
		"quality", report.Quality,
		"sections", report.Sections,
		"output", opts.OutputDir,
	)
	return report, nil
}

// planPages assigns every permit its page path. Two permits landing on the
// same path is a data error, like a duplicate composite key. So is a path
// that would replace the homepage or a section listing, which happens when
// the request type or the jurisdiction has no slug-able characters.
func planPages(permits []domain.Permit) ([]plannedPage, error) {
	pages := make([]plannedPage, len(permits))
	seen := make(map[string]int, len(permits))
	var errs []error
	for i, p := range permits {
		path := render.PagePath(p)
		if reason := unusablePath(p, path); reason != "" {
			errs = append(errs, &loader.DataError{
				Index:  i,
				ID:     p.ID,
				Key:    p.Key(),
				Field:  "path",
				Reason: reason,
				Err:    domain.ErrValidation,
			})
			continue
		}
		if first, dup := seen[path]; dup {
			errs = append(errs, &loader.DataError{
				Index:  i,
				ID:     p.ID,
				Key:    p.Key(),
				Field:  "path",
				Reason: fmt.Sprintf("page path %s already used by permit[%d]", path, first),
				Err:    domain.ErrDuplicateKey,
			})
			continue
		}
		seen[path] = i
		pages[i] = plannedPage{permit: p, path: path}
	}
	return pages, errors.Join(errs...)
}

// unusablePath explains why path cannot hold a permit page, or returns "".
func unusablePath(p domain.Permit, path string) string {
	segs := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	switch {
	case render.Slugify(p.RequestType) == "":
		return fmt.Sprintf("request_type %q has no characters usable in a page path", p.RequestType)
	case len(segs) < 2:
		return fmt.Sprintf("page path %s would replace a listing page; location and agency have no characters usable in a page path", path)
	}
	return ""
}

// renderPermits decides and renders every permit page on a bounded worker
// pool. verdicts[i] belongs to pages[i].
func (s *SiteService) renderPermits(ctx context.Context, pages []plannedPage, opts BuildOptions) ([]seo.Verdict, error) {
	byID := make(map[string]plannedPage, len(pages))
	for _, pg := range pages {
		byID[strings.ToLower(pg.permit.ID)] = pg
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	verdicts := make([]seo.Verdict, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, pg := range pages {
		i, pg := i, pg
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v := seo.Decide(pg.permit)
			verdicts[i] = v

			view := render.PermitView{
				Permit:  pg.permit,
				Path:    pg.path,
				Verdict: v,
				Related: relatedLinks(pg.permit, byID),
			}
			file := filepath.Join(opts.OutputDir, filepath.FromSlash(render.FilePath(pg.path)))
			if err := writeFile(file, func(w io.Writer) error { return s.renderer.RenderPermit(w, view) }); err != nil {
				return fmt.Errorf("permit %s: %w", pg.permit.ID, err)
			}
			s.log.Debug("page rendered", "id", pg.permit.ID, "path", pg.path, "robots", v.RobotsDirective)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

func relatedLinks(p domain.Permit, byID map[string]plannedPage) []render.Link {
	var links []render.Link
	for _, id := range p.RelatedPages {
		rel, ok := byID[strings.ToLower(id)]
		if !ok {
			continue
		}
		links = append(links, render.Link{
			Path:   rel.path,
			Title:  rel.permit.RequestType,
			Agency: rel.permit.AgencyShort,
		})
	}
	return links
}

// section is one jurisdiction listing page.
type section struct {
	Path  string
	Title string
	Pages []int // indexes into the planned pages
}

// groupSections buckets pages by their first path segment, ordered by path.
func groupSections(pages []plannedPage) []section {
	idx := make(map[string]int)
	var out []section
	for i, pg := range pages {
		sp := render.SectionPath(pg.path)
		j, ok := idx[sp]
		if !ok {
			title := render.ParseLocation(pg.permit.LocationApplicability).State
			if title == "" {
				title = pg.permit.AgencyShort
			}
			j = len(out)
			idx[sp] = j
			out = append(out, section{Path: sp, Title: title})
		}
		out[j].Pages = append(out[j].Pages, i)
	}
	slices.SortFunc(out, func(a, b section) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// renderListings writes the section pages and the homepage.
func (s *SiteService) renderListings(pages []plannedPage, sections []section, outDir string) error {
	agencies := make(map[string]bool)
	home := render.HomeView{Stats: render.Stats{Permits: len(pages), Sections: len(sections)}}

	for _, sec := range sections {
		view := render.SectionView{Path: sec.Path, Title: sec.Title}
		for _, i := range sec.Pages {
			p := pages[i].permit
			agencies[p.AgencyShort] = true
			view.Links = append(view.Links, render.Link{Path: pages[i].path, Title: p.RequestType, Agency: p.AgencyShort})
		}
		slices.SortFunc(view.Links, func(a, b render.Link) int { return strings.Compare(a.Title, b.Title) })

		file := filepath.Join(outDir, filepath.FromSlash(render.FilePath(sec.Path)))
		if err := writeFile(file, func(w io.Writer) error { return s.renderer.RenderSection(w, view) }); err != nil {
			return fmt.Errorf("section %s: %w", sec.Path, err)
		}
		home.Sections = append(home.Sections, render.SectionLink{Path: sec.Path, Title: sec.Title, Count: len(sec.Pages)})
	}
	home.Stats.Agencies = len(agencies)

	if err := writeFile(filepath.Join(outDir, "index.html"), func(w io.Writer) error { return s.renderer.RenderHome(w, home) }); err != nil {
		return fmt.Errorf("homepage: %w", err)
	}
	return nil
}

// writeFile creates path and its parent directories and fills it with fn.
func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
