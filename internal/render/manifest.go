package render

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pkordes/permitsite/internal/seo"
)

// ManifestFile is the manifest's name inside the output directory.
const ManifestFile = "manifest.json"

// ManifestEntry records where one permit was published and with which verdict.
// Tools that need to find a record's page read this instead of guessing paths.
type ManifestEntry struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	URL  string `json:"url"`
	File string `json:"file"`
	seo.Verdict
}

// WriteManifest writes entries as a JSON array ordered by path.
func WriteManifest(w io.Writer, entries []ManifestEntry) error {
	sorted := slices.Clone(entries)
	if sorted == nil {
		sorted = []ManifestEntry{}
	}
	slices.SortFunc(sorted, func(a, b ManifestEntry) int { return strings.Compare(a.Path, b.Path) })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sorted); err != nil {
		return fmt.Errorf("render.WriteManifest: %w", err)
	}
	return nil
}

// ReadManifest decodes a manifest written by WriteManifest.
func ReadManifest(r io.Reader) ([]ManifestEntry, error) {
	var entries []ManifestEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("render.ReadManifest: %w", err)
	}
	return entries, nil
}

// FilePath returns the output file, relative to the site root, that serves a
// page path: "/texas/austin/food-truck/" -> "texas/austin/food-truck/index.html".
func FilePath(pagePath string) string {
	return strings.TrimPrefix(pagePath, "/") + "index.html"
}
