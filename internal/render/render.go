// Package render turns permit records and their publication verdicts into the
// files of the static site: HTML pages, sitemap.xml, robots.txt and the
// id-to-path manifest.
//
// The renderer never decides indexability itself. Every permit page is
// rendered from a seo.Verdict handed in by the caller, and the same value is
// expected to reach the sitemap entry for that page.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkordes/permitsite/internal/domain"
	"github.com/pkordes/permitsite/internal/seo"
)

//go:embed templates/*.html
var templatesFS embed.FS

// maxMetaDescription is the length search engines show before truncating.
const maxMetaDescription = 155

// Site identifies the published site.
type Site struct {
	Name    string
	BaseURL string // absolute, no trailing slash
}

// URL returns the absolute URL of a site-relative path.
func (s Site) URL(path string) string {
	return s.BaseURL + path
}

// Link is an entry in a permit listing or a related-permits block.
type Link struct {
	Path   string
	Title  string
	Agency string
}

// SectionLink is a jurisdiction listed on the homepage.
type SectionLink struct {
	Path  string
	Title string
	Count int
}

// Stats are the headline numbers on the homepage.
type Stats struct {
	Permits  int
	Agencies int
	Sections int
}

// PermitView is everything needed to render one permit page.
type PermitView struct {
	Permit  domain.Permit
	Path    string
	Verdict seo.Verdict
	Related []Link
}

// SectionView is a jurisdiction listing page.
type SectionView struct {
	Path  string
	Title string
	Links []Link
}

// HomeView is the site homepage.
type HomeView struct {
	Sections []SectionLink
	Stats    Stats
}

// pageData is the value every template executes against.
type pageData struct {
	Site         Site
	Title        string
	Description  string
	CanonicalURL string
	Robots       string
	JSONLD       any

	Permit      *domain.Permit
	SectionPath string
	SectionName string
	Related     []Link

	Links    []Link
	Sections []SectionLink
	Stats    Stats
}

// Renderer executes the embedded page templates.
type Renderer struct {
	site  Site
	pages map[string]*template.Template
}

// New parses the embedded templates for site.
func New(site Site) (*Renderer, error) {
	site.BaseURL = strings.TrimRight(site.BaseURL, "/")
	r := &Renderer{site: site, pages: make(map[string]*template.Template)}
	for _, name := range []string{"permit", "section", "home"} {
		t, err := template.New("base").ParseFS(templatesFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("render.New: parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Site returns the site the renderer was built for.
func (r *Renderer) Site() Site { return r.site }

// RenderPermit writes the HTML page for one permit. The robots meta tag is
// v.Verdict.RobotsDirective verbatim.
func (r *Renderer) RenderPermit(w io.Writer, v PermitView) error {
	p := v.Permit
	loc := ParseLocation(p.LocationApplicability)
	section := loc.State
	if section == "" {
		section = p.AgencyShort
	}

	title := p.RequestType
	if loc.City != "" {
		title += " in " + loc.City
	} else if loc.State != "" {
		title += " in " + loc.State
	}

	data := pageData{
		Site:         r.site,
		Title:        title,
		Description:  metaDescription(p.Description, p.RequestType+" from "+p.AgencyShort+": cost, eligibility and how to apply."),
		CanonicalURL: r.site.URL(v.Path),
		Robots:       v.Verdict.RobotsDirective,
		JSONLD:       permitJSONLD(r.site.URL(v.Path), p),
		Permit:       &p,
		SectionPath:  SectionPath(v.Path),
		SectionName:  section,
		Related:      v.Related,
	}
	return r.execute(w, "permit", data)
}

// RenderSection writes a jurisdiction listing page.
func (r *Renderer) RenderSection(w io.Writer, v SectionView) error {
	data := pageData{
		Site:         r.site,
		Title:        v.Title + " permits",
		Description:  fmt.Sprintf("Every permit and license we track for %s, with costs, processing times and how to apply.", v.Title),
		CanonicalURL: r.site.URL(v.Path),
		Links:        v.Links,
	}
	return r.execute(w, "section", data)
}

// RenderHome writes the homepage.
func (r *Renderer) RenderHome(w io.Writer, v HomeView) error {
	data := pageData{
		Site:         r.site,
		Title:        "Government permits, explained",
		Description:  "Plain-language guides to government permits and licenses: what they cost, who qualifies and how to apply.",
		CanonicalURL: r.site.URL("/"),
		Sections:     v.Sections,
		Stats:        v.Stats,
	}
	return r.execute(w, "home", data)
}

func (r *Renderer) execute(w io.Writer, page string, data pageData) error {
	if err := r.pages[page].ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("render.Renderer: %s: %w", page, err)
	}
	return nil
}

func permitJSONLD(url string, p domain.Permit) map[string]any {
	provider := p.AgencyFull
	if provider == "" {
		provider = p.AgencyShort
	}
	ld := map[string]any{
		"@context": "https://schema.org",
		"@type":    "GovernmentService",
		"name":     p.RequestType,
		"url":      url,
		"provider": map[string]any{
			"@type": "GovernmentOrganization",
			"name":  provider,
		},
	}
	if p.Description != "" {
		ld["description"] = p.Description
	}
	if p.LocationApplicability != "" {
		ld["areaServed"] = p.LocationApplicability
	}
	return ld
}

// metaDescription trims text to a search-snippet length on a word boundary.
func metaDescription(text, fallback string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return fallback
	}
	if utf8.RuneCountInString(text) <= maxMetaDescription {
		return text
	}
	runes := []rune(text)[:maxMetaDescription-1]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
