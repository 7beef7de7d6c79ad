package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkordes/permitsite/internal/domain"
)

// FileSource serves permits from a JSON/CSV file or a directory of them.
// Files are re-read on every call so a running preview server picks up edits.
type FileSource struct {
	Path string
}

// List loads every permit under Path.
func (s FileSource) List(ctx context.Context) ([]domain.Permit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	permits, err := Load(s.Path)
	if err != nil {
		return nil, fmt.Errorf("loader.FileSource.List: %w", err)
	}
	return permits, nil
}

// GetByID returns the permit with the given id (case-insensitive).
// Returns domain.ErrNotFound if no permit has that id.
func (s FileSource) GetByID(ctx context.Context, id string) (domain.Permit, error) {
	permits, err := s.List(ctx)
	if err != nil {
		return domain.Permit{}, err
	}
	for _, p := range permits {
		if strings.EqualFold(p.ID, id) {
			return p, nil
		}
	}
	return domain.Permit{}, fmt.Errorf("loader.FileSource.GetByID: %s: %w", id, domain.ErrNotFound)
}
