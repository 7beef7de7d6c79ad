package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/permitsite/internal/domain"
	"github.com/pkordes/permitsite/internal/repo"
	"github.com/pkordes/permitsite/testutil"
)

// newTestRepo returns a PermitRepo bound to a transaction that is rolled back
// when the test finishes, giving free per-test isolation.
func newTestRepo(t *testing.T) repo.PermitRepo {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return repo.NewPermitRepo(tx)
}

// permitFixture returns a permit with sensible defaults. Callers can override
// individual fields.
func permitFixture() domain.Permit {
	return domain.Permit{
		ID:                    "5e0c1a2b-3c4d-4e5f-8a6b-7c8d9e0f1a2b",
		Name:                  "Food Truck",
		AgencyShort:           "ATX-PH",
		RequestType:           "Food Truck Permit",
		Description:           "Mobile food vendors need a permit from Austin Public Health.",
		Cost:                  "$650",
		EffortHours:           "4",
		LocationApplicability: "Within the city limits of Austin, Texas.",
		CommunityFeedback:     domain.EntryList{{Text: "Took three weeks.", Author: "vendor"}},
		UserTips:              domain.EntryList{{Text: "Book the inspection early."}},
		FAQs:                  domain.FAQList{{Question: "Do I need a commissary?", Answer: "Yes."}},
		RelatedPages:          []string{"a1b2c3d4-e5f6-4a7b-9c8d-0e1f2a3b4c5d"},
		DateExtracted:         "2025-11-19",
	}
}

func TestPermitRepo_UpsertAndGet(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	input := permitFixture()

	require.NoError(t, r.Upsert(ctx, input))
	got, err := r.GetByID(ctx, input.ID)

	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestPermitRepo_Upsert_ReplacesByID(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	input := permitFixture()
	require.NoError(t, r.Upsert(ctx, input))

	input.Description = "Updated description."
	input.RequestType = "Mobile Food Vendor Permit"
	require.NoError(t, r.Upsert(ctx, input))

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Updated description.", all[0].Description)
	assert.Equal(t, "Mobile Food Vendor Permit", all[0].RequestType)
}

func TestPermitRepo_Upsert_DuplicateCompositeKey(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, permitFixture()))

	other := permitFixture()
	other.ID = "9d8c7b6a-5f4e-4d3c-b2a1-0f9e8d7c6b5a"
	err := r.Upsert(ctx, other)

	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestPermitRepo_Upsert_InvalidID(t *testing.T) {
	r := newTestRepo(t)
	p := permitFixture()
	p.ID = "not-a-uuid"

	err := r.Upsert(context.Background(), p)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPermitRepo_GetByID_NotFound(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.GetByID(context.Background(), "00000000-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPermitRepo_List_OrderedByKey(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	b := permitFixture()
	a := permitFixture()
	a.ID = "9d8c7b6a-5f4e-4d3c-b2a1-0f9e8d7c6b5a"
	a.AgencyShort = "ATX"
	a.RequestType = "Apply for a Business License"
	require.NoError(t, r.Upsert(ctx, b))
	require.NoError(t, r.Upsert(ctx, a))

	got, err := r.List(ctx)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)
}

func TestPermitRepo_List_Empty(t *testing.T) {
	got, err := newTestRepo(t).List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPermitRepo_Delete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	p := permitFixture()
	require.NoError(t, r.Upsert(ctx, p))

	require.NoError(t, r.Delete(ctx, p.ID))

	_, err := r.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, p.ID), domain.ErrNotFound)
}
