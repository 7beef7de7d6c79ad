package render

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SitemapNS is the sitemaps.org protocol namespace.
const SitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Change frequencies used by the generator.
const (
	ChangeDaily  = "daily"
	ChangeWeekly = "weekly"
)

// SitemapURL is one <url> entry.
type SitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority"`
}

// URLSet is the root element of a sitemap document.
type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr,omitempty"`
	URLs    []SitemapURL `xml:"url"`
}

// FormatPriority renders a priority the way it appears in <priority>.
func FormatPriority(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}

// Add appends an entry.
func (s *URLSet) Add(loc, lastmod, changefreq string, priority float64) {
	s.URLs = append(s.URLs, SitemapURL{
		Loc:        loc,
		LastMod:    lastmod,
		ChangeFreq: changefreq,
		Priority:   FormatPriority(priority),
	})
}

// WriteTo writes the sitemap document with its XML declaration.
func (s *URLSet) WriteTo(w io.Writer) (int64, error) {
	s.Xmlns = SitemapNS
	out, err := xml.MarshalIndent(s, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("render.URLSet.WriteTo: %w", err)
	}
	n, err := io.WriteString(w, xml.Header+string(out)+"\n")
	return int64(n), err
}

// ParseSitemap reads a sitemap document.
func ParseSitemap(r io.Reader) (URLSet, error) {
	var s URLSet
	if err := xml.NewDecoder(r).Decode(&s); err != nil {
		return URLSet{}, fmt.Errorf("render.ParseSitemap: %w", err)
	}
	return s, nil
}

// ErrDuplicateLoc is returned by Priorities when a URL is listed twice.
var ErrDuplicateLoc = errors.New("duplicate sitemap <loc>")

// Priorities maps every <loc> to its numeric priority. A URL listed more than
// once is an error wrapping ErrDuplicateLoc.
func (s URLSet) Priorities() (map[string]float64, error) {
	out := make(map[string]float64, len(s.URLs))
	for _, u := range s.URLs {
		loc := strings.TrimSpace(u.Loc)
		if _, dup := out[loc]; dup {
			return nil, fmt.Errorf("render.URLSet.Priorities: %s: %w", loc, ErrDuplicateLoc)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(u.Priority), 64)
		if err != nil {
			return nil, fmt.Errorf("render.URLSet.Priorities: %s: %w", loc, err)
		}
		out[loc] = p
	}
	return out, nil
}
