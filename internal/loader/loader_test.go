package loader_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/permitsite/internal/domain"
	"github.com/pkordes/permitsite/internal/loader"
)

const permitsJSON = `[
  {
    "id": "0b9a3c1e-5d2f-4a6b-8c7d-1e2f3a4b5c6d",
    "name": "Contractor License",
    "agency_short": "CSLB",
    "request_type": "Contractor License Renewal",
    "description": "Renew a contractor license.",
    "cost": 450,
    "effort_hours": "2",
    "related_pages": ["6c5b4a3f-2e1d-4c0b-9a8f-7e6d5c4b3a29"],
    "community_feedback": "",
    "user_tips": ["Renew 60 days early.", {"text": "Keep your bond current.", "author": "sam"}],
    "faqs": [{"question": "How long?", "answer": "Two weeks."}],
    "online_available": "Yes"
  },
  {
    "id": "6c5b4a3f-2e1d-4c0b-9a8f-7e6d5c4b3a29",
    "name": "Food Truck",
    "agency_short": "LADPH",
    "request_type": "Food Truck Permit",
    "community_feedback": null
  }
]`

func TestReadJSON(t *testing.T) {
	permits, err := loader.ReadJSON(strings.NewReader(permitsJSON))

	require.NoError(t, err)
	require.Len(t, permits, 2)

	p := permits[0]
	assert.Equal(t, "CSLB", p.AgencyShort)
	assert.Equal(t, domain.Text("450"), p.Cost, "numeric cost keeps its literal spelling")
	assert.Equal(t, domain.Text("2"), p.EffortHours)
	assert.Empty(t, p.CommunityFeedback, "empty string decodes as an empty list")
	require.Len(t, p.UserTips, 2)
	assert.Equal(t, "Renew 60 days early.", p.UserTips[0].Text)
	assert.Equal(t, domain.Entry{Text: "Keep your bond current.", Author: "sam"}, p.UserTips[1])
	require.Len(t, p.FAQs, 1)
	assert.Equal(t, "Two weeks.", p.FAQs[0].Answer)

	assert.NotNil(t, permits[1].RelatedPages, "nil lists are normalised to empty")
	assert.NotNil(t, permits[1].FAQs)
}

func TestReadJSON_SingleObject(t *testing.T) {
	permits, err := loader.ReadJSON(strings.NewReader(`{"id":"x","agency_short":"A","request_type":"B"}`))

	require.NoError(t, err)
	require.Len(t, permits, 1)
	assert.Equal(t, "x", permits[0].ID)
}

func TestReadJSON_MalformedRecordReportsIndexAndID(t *testing.T) {
	doc := `[{"id":"ok"},{"id":"bad-one","faqs":"not a list"}]`

	_, err := loader.ReadJSON(strings.NewReader(doc))

	require.Error(t, err)
	var de *loader.DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Index)
	assert.Equal(t, "bad-one", de.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReadJSON_NotAnArray(t *testing.T) {
	_, err := loader.ReadJSON(strings.NewReader(`"nope"`))
	assert.Error(t, err)
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	permits, err := loader.ReadJSON(strings.NewReader(permitsJSON))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, loader.WriteJSON(&buf, permits))
	assert.Contains(t, buf.String(), `"community_feedback": []`)

	again, err := loader.ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, permits, again)
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(permitsJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte(permitsCSV), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	permits, err := loader.Load(dir)

	require.NoError(t, err)
	assert.Len(t, permits, 4)
}

func TestLoadFile_StampsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permits.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"bad","faqs":{}}]`), 0o600))

	_, err := loader.LoadFile(path)

	var de *loader.DataError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, path, de.Source)
	assert.Contains(t, err.Error(), path)
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permits.yaml")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := loader.LoadFile(path)

	assert.ErrorContains(t, err, "unsupported file type")
}
