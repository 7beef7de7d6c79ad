package render_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/permitsite/internal/render"
	"github.com/pkordes/permitsite/internal/seo"
)

func TestFormatPriority(t *testing.T) {
	assert.Equal(t, "0.3", render.FormatPriority(seo.PriorityThin))
	assert.Equal(t, "0.8", render.FormatPriority(seo.PriorityQuality))
	assert.Equal(t, "1.0", render.FormatPriority(seo.PriorityHome))
}

func TestURLSet_WriteAndParse(t *testing.T) {
	var set render.URLSet
	set.Add("https://x.test/", "2026-01-02", render.ChangeDaily, seo.PriorityHome)
	set.Add("https://x.test/a/", "2025-11-19", render.ChangeWeekly, seo.PriorityThin)

	var buf bytes.Buffer
	_, err := set.WriteTo(&buf)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, out, "<priority>0.3</priority>")
	assert.Contains(t, out, "<changefreq>weekly</changefreq>")

	parsed, err := render.ParseSitemap(strings.NewReader(out))
	require.NoError(t, err)
	prio, err := parsed.Priorities()
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"https://x.test/": 1.0, "https://x.test/a/": 0.3}, prio)
}

func TestURLSet_PrioritiesRejectsGarbage(t *testing.T) {
	set := render.URLSet{URLs: []render.SitemapURL{{Loc: "https://x.test/", Priority: "high"}}}

	_, err := set.Priorities()

	assert.Error(t, err)
}

func TestURLSet_PrioritiesRejectsDuplicateLoc(t *testing.T) {
	var set render.URLSet
	set.Add("https://x.test/texas/", "", render.ChangeWeekly, seo.PriorityQuality)
	set.Add("https://x.test/texas/", "", render.ChangeDaily, seo.PriorityState)

	_, err := set.Priorities()

	require.ErrorIs(t, err, render.ErrDuplicateLoc)
	assert.Contains(t, err.Error(), "https://x.test/texas/")
}

func TestManifest_SortedByPath(t *testing.T) {
	entries := []render.ManifestEntry{
		{ID: "b", Path: "/texas/b/", URL: "https://x.test/texas/b/", File: "texas/b/index.html", Verdict: seo.Derive(false)},
		{ID: "a", Path: "/cdtfa/a/", URL: "https://x.test/cdtfa/a/", File: "cdtfa/a/index.html", Verdict: seo.Derive(true)},
	}

	var buf bytes.Buffer
	require.NoError(t, render.WriteManifest(&buf, entries))

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, "/cdtfa/a/", raw[0]["path"])
	assert.Equal(t, true, raw[0]["is_thin"])
	assert.Equal(t, "noindex, follow", raw[0]["robots_directive"])
	assert.EqualValues(t, 0.3, raw[0]["sitemap_priority"])

	got, err := render.ReadManifest(&buf)
	require.NoError(t, err)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "b", entries[0].ID, "input left untouched")
}

func TestManifest_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.WriteManifest(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
