package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/permitsite/internal/domain"
	"github.com/pkordes/permitsite/internal/loader"
	"github.com/pkordes/permitsite/internal/repo"
)

// ImportService copies a validated batch into the record store.
type ImportService struct {
	repo repo.PermitRepo
	log  *slog.Logger
}

// NewImportService constructs an ImportService. Pass a repo bound to a
// transaction to make the import all-or-nothing.
func NewImportService(r repo.PermitRepo, log *slog.Logger) *ImportService {
	return &ImportService{repo: r, log: log}
}

// Import validates the whole batch, then upserts every record.
// An invalid batch writes nothing.
func (s *ImportService) Import(ctx context.Context, permits []domain.Permit) (int, error) {
	if err := loader.Validate(permits, loader.Options{}); err != nil {
		return 0, fmt.Errorf("service.ImportService.Import: %w", err)
	}
	for i, p := range permits {
		if err := s.repo.Upsert(ctx, p); err != nil {
			return i, fmt.Errorf("service.ImportService.Import: permit[%d] id=%s: %w", i, p.ID, err)
		}
	}
	s.log.Info("permits imported", "count", len(permits))
	return len(permits), nil
}
