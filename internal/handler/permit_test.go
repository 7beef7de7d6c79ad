package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/permitsite/internal/domain"
	"github.com/pkordes/permitsite/internal/handler"
	"github.com/pkordes/permitsite/internal/seo"
	"github.com/pkordes/permitsite/internal/service"
)

// mockPermitServicer is a test double for handler.PermitServicer.
// Set only the method fields your test needs.
type mockPermitServicer struct {
	list     func(ctx context.Context, params domain.PaginationParams) (domain.Page[service.PermitSummary], error)
	get      func(ctx context.Context, id string) (service.PermitDetail, error)
	classify func(p domain.Permit) seo.Decision
}

func (m *mockPermitServicer) List(ctx context.Context, params domain.PaginationParams) (domain.Page[service.PermitSummary], error) {
	return m.list(ctx, params)
}
func (m *mockPermitServicer) Get(ctx context.Context, id string) (service.PermitDetail, error) {
	return m.get(ctx, id)
}
func (m *mockPermitServicer) Classify(p domain.Permit) seo.Decision {
	return m.classify(p)
}

// compile-time check: mockPermitServicer must satisfy handler.PermitServicer.
var _ handler.PermitServicer = (*mockPermitServicer)(nil)

// ---- helpers ---------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newHTTPHandler wires a Server with the given mock into the router exactly
// as the serve command does, minus the static site.
func newHTTPHandler(svc handler.PermitServicer) http.Handler {
	return handler.NewRouter(handler.RouterConfig{
		Server:      handler.NewServer(svc, discardLogger()),
		Logger:      discardLogger(),
		CORSOrigins: []string{"http://localhost:5173"},
	})
}

const permitID = "3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e"

func summaryFixture() service.PermitSummary {
	return service.PermitSummary{
		ID:          permitID,
		Name:        "Food Truck",
		AgencyShort: "ATX-PH",
		RequestType: "Food Truck Permit",
		Path:        "/texas/austin/food-truck-permit/",
		Verdict:     seo.Derive(false),
	}
}

func decodeError(t *testing.T, body io.Reader) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

// ---- GET /api/permits ------------------------------------------------------

func TestListPermits_200(t *testing.T) {
	var got domain.PaginationParams
	svc := &mockPermitServicer{
		list: func(_ context.Context, p domain.PaginationParams) (domain.Page[service.PermitSummary], error) {
			got = p
			return domain.Page[service.PermitSummary]{
				Items: []service.PermitSummary{summaryFixture()},
				Total: 41, Page: p.Page, Limit: p.Limit,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/permits?page=3&limit=500", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PaginationParams{Page: 3, Limit: 100}, got, "limit is capped")

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 41, resp["total"])
	items := resp["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, permitID, item["id"])
	assert.Equal(t, "index,follow", item["robots_directive"])
	assert.EqualValues(t, 0.8, item["sitemap_priority"])
}

func TestListPermits_422_BadQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/permits?page=two", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(&mockPermitServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec.Body).Error.Code)
}

func TestListPermits_500(t *testing.T) {
	svc := &mockPermitServicer{
		list: func(context.Context, domain.PaginationParams) (domain.Page[service.PermitSummary], error) {
			return domain.Page[service.PermitSummary]{}, errors.New("connection refused")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/permits", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec.Body)
	assert.Equal(t, "internal_error", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "connection refused")
}

func TestListPermits_422_InvalidData(t *testing.T) {
	svc := &mockPermitServicer{
		list: func(context.Context, domain.PaginationParams) (domain.Page[service.PermitSummary], error) {
			return domain.Page[service.PermitSummary]{}, fmt.Errorf("service.PermitService.List: %w", domain.ErrValidation)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/permits", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation error", decodeError(t, rec.Body).Error.Message)
}

// ---- GET /api/permits/{id} -------------------------------------------------

func TestGetPermit_200(t *testing.T) {
	p := domain.Permit{ID: permitID, RequestType: "Food Truck Permit"}
	svc := &mockPermitServicer{
		get: func(_ context.Context, id string) (service.PermitDetail, error) {
			require.Equal(t, permitID, id)
			return service.PermitDetail{Permit: p, Path: "/texas/austin/food-truck-permit/", Decision: seo.Explain(p)}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/permits/"+permitID, nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp service.PermitDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, permitID, resp.Permit.ID)
	assert.Equal(t, seo.Derive(true), resp.Decision.Verdict)
	assert.NotEmpty(t, resp.Decision.Reasons)
}

func TestGetPermit_404(t *testing.T) {
	svc := &mockPermitServicer{
		get: func(context.Context, string) (service.PermitDetail, error) {
			return service.PermitDetail{}, fmt.Errorf("service.PermitService.Get: %w", domain.ErrNotFound)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/permits/"+permitID, nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec.Body)
	assert.Equal(t, "not_found", resp.Error.Code)
	assert.Equal(t, "permit not found", resp.Error.Message)
}

// ---- POST /api/classify ----------------------------------------------------

func TestClassifyPermit_200(t *testing.T) {
	var got domain.Permit
	svc := &mockPermitServicer{
		classify: func(p domain.Permit) seo.Decision {
			got = p
			return seo.Explain(p)
		},
	}

	body := `{"request_type":"Apply for a Business License","description":"Short.","cost":25,"user_tips":["Bring ID"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Text("25"), got.Cost)
	assert.Equal(t, "Bring ID", got.UserTips[0].Text)

	var resp seo.Decision
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Verdict.IsThin)
	assert.Equal(t, seo.DirectiveNoindex, resp.Verdict.RobotsDirective)
	assert.Equal(t, 1, resp.Signals.CommunitySignalCount)
}

func TestClassifyPermit_422_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(`{"description":`))
	rec := httptest.NewRecorder()
	newHTTPHandler(&mockPermitServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec.Body).Error.Message, "invalid permit document")
}

func TestClassifyPermit_413_TooLarge(t *testing.T) {
	big := `{"description":"` + strings.Repeat("a", handler.MaxClassifyBody) + `"}`

	req := httptest.NewRequest(http.MethodPost, "/api/classify", bytes.NewBufferString(big))
	req.ContentLength = -1 // force the streaming path
	rec := httptest.NewRecorder()
	newHTTPHandler(&mockPermitServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
