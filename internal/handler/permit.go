package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/permitsite/internal/domain"
)

// ListPermits handles GET /api/permits.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListPermits(w http.ResponseWriter, r *http.Request) {
	page, err := optionalInt(r.URL.Query(), "page")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	limit, err := optionalInt(r.URL.Query(), "limit")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	result, err := s.permits.List(r.Context(), domain.NewPaginationParams(page, limit))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetPermit handles GET /api/permits/{id}.
// The response carries the record, its page path and the classifier's
// working (signals, verdict, reasons).
func (s *Server) GetPermit(w http.ResponseWriter, r *http.Request) {
	detail, err := s.permits.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("permit not found"))
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ClassifyPermit handles POST /api/classify.
// The body is a permit document; only its content fields affect the result.
func (s *Server) ClassifyPermit(w http.ResponseWriter, r *http.Request) {
	var p domain.Permit
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, requestBody(fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit)))
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("invalid permit document: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, s.permits.Classify(p))
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrValidation) {
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
		return
	}
	s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, internalBody())
}

// optionalInt parses an integer query parameter; nil when absent.
func optionalInt(q url.Values, key string) (*int, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("query parameter %s must be an integer, got %q", key, v)
	}
	return &n, nil
}
