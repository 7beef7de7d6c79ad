package handler

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkordes/permitsite/internal/middleware"
	"github.com/pkordes/permitsite/internal/render"
)

// SiteHandler serves a generated site directory.
func SiteHandler(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}

// LoadDirectives reads the manifest of a generated site and returns the robots
// directive of every permit page, keyed by page path.
// A site that has not been generated yet yields an error wrapping fs.ErrNotExist.
func LoadDirectives(siteDir string) (middleware.RobotsDirectives, error) {
	f, err := os.Open(filepath.Join(siteDir, render.ManifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return middleware.RobotsDirectives{}, fmt.Errorf("handler.LoadDirectives: %w", err)
		}
		return nil, fmt.Errorf("handler.LoadDirectives: %w", err)
	}
	defer f.Close()

	entries, err := render.ReadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("handler.LoadDirectives: %w", err)
	}
	out := make(middleware.RobotsDirectives, len(entries))
	for _, e := range entries {
		out[e.Path] = e.RobotsDirective
	}
	return out, nil
}
