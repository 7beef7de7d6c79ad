package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pkordes/permitsite/internal/domain"
	"github.com/pkordes/permitsite/internal/render"
	"github.com/pkordes/permitsite/internal/seo"
)

// PermitReader is the read side shared by loader.FileSource and repo.PermitRepo.
type PermitReader interface {
	PermitLister
	GetByID(ctx context.Context, id string) (domain.Permit, error)
}

// PermitSummary is a permit as listed by the preview API.
type PermitSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AgencyShort string `json:"agency_short"`
	RequestType string `json:"request_type"`
	Path        string `json:"path"`
	seo.Verdict
}

// PermitDetail is a full record with the decision the generator would make.
type PermitDetail struct {
	Permit   domain.Permit `json:"permit"`
	Path     string        `json:"path"`
	Decision seo.Decision  `json:"decision"`
}

// PermitService answers read queries about permits and their verdicts.
type PermitService struct {
	reader PermitReader
}

// NewPermitService constructs a PermitService backed by the provided reader.
func NewPermitService(r PermitReader) *PermitService {
	return &PermitService{reader: r}
}

// List returns one page of permits ordered by page path.
func (s *PermitService) List(ctx context.Context, params domain.PaginationParams) (domain.Page[PermitSummary], error) {
	permits, err := s.reader.List(ctx)
	if err != nil {
		return domain.Page[PermitSummary]{}, fmt.Errorf("service.PermitService.List: %w", err)
	}

	all := make([]PermitSummary, len(permits))
	for i, p := range permits {
		all[i] = PermitSummary{
			ID:          p.ID,
			Name:        p.Name,
			AgencyShort: p.AgencyShort,
			RequestType: p.RequestType,
			Path:        render.PagePath(p),
			Verdict:     seo.Decide(p),
		}
	}
	slices.SortStableFunc(all, func(a, b PermitSummary) int { return strings.Compare(a.Path, b.Path) })

	lo, hi := params.Window(len(all))
	return domain.Page[PermitSummary]{
		Items: all[lo:hi],
		Total: int64(len(all)),
		Page:  params.Page,
		Limit: params.Limit,
	}, nil
}

// Get returns a permit and the reasoning behind its verdict.
// Returns domain.ErrNotFound if no permit has that id.
func (s *PermitService) Get(ctx context.Context, id string) (PermitDetail, error) {
	p, err := s.reader.GetByID(ctx, id)
	if err != nil {
		return PermitDetail{}, fmt.Errorf("service.PermitService.Get: %w", err)
	}
	return PermitDetail{Permit: p, Path: render.PagePath(p), Decision: seo.Explain(p)}, nil
}

// Classify explains the verdict for an ad hoc record that need not exist in
// the data set. Only the content fields matter, so no validation is applied.
func (s *PermitService) Classify(p domain.Permit) seo.Decision {
	return seo.Explain(p)
}
