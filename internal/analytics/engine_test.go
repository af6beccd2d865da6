package analytics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/aiseo/internal/database"
)

func openTestEngine(t *testing.T) (*Engine, *database.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.EnsureBrands(newFixture().snap.Brands)
	require.NoError(t, err)

	e := NewEngine(db, DefaultOptions())
	e.SetClock(func() time.Time { return jan2026 })
	return e, db
}

func seedRun(t *testing.T, db *database.DB, query string, run int, text string, mentions map[string]int) int64 {
	t.Helper()
	id, err := db.InsertPrompt(query, run, text, jan2026)
	require.NoError(t, err)
	for brandID, pos := range mentions {
		p := pos
		require.NoError(t, db.InsertMention(database.Mention{
			PromptID: id, BrandID: brandID, Mentioned: true, Position: &p,
		}))
	}
	return id
}

func TestEngineCreateBrandBackfills(t *testing.T) {
	e, db := openTestEngine(t)
	seedRun(t, db, "best store builder", 1, "Shopify leads, Acme Inc is great, Wix is simple.",
		map[string]int{"shopify": 1, "wix": 3})
	seedRun(t, db, "best store builder", 2, "Wix and Shopify.", map[string]int{"wix": 1, "shopify": 2})

	detail, err := e.CreateBrand(BrandInput{ID: "acme", Name: "Acme", Variations: []string{"Acme", "Acme Inc"}})
	require.NoError(t, err)
	assert.Equal(t, "competitor", detail.Type)
	assert.Equal(t, "#64748b", detail.Color)
	assert.Equal(t, 1, detail.TotalMentions)
	assert.Equal(t, 100.0, detail.Visibility)
	require.Len(t, detail.TopPrompts, 1)
	assert.Equal(t, 2, *detail.TopPrompts[0].Position)

	_, err = e.CreateBrand(BrandInput{ID: "acme", Name: "Acme again"})
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestEngineCreateBrandValidation(t *testing.T) {
	e, _ := openTestEngine(t)

	_, err := e.CreateBrand(BrandInput{Name: "No ID"})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = e.CreateBrand(BrandInput{ID: "x", Name: "X", Type: "partner"})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = e.CreateBrand(BrandInput{ID: "x", Name: "X", Type: "primary"})
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestEngineDeleteBrand(t *testing.T) {
	e, db := openTestEngine(t)
	seedRun(t, db, "q", 1, "", map[string]int{"wix": 1, "shopify": 2})

	err := e.DeleteBrand("wix")
	assert.Equal(t, KindForbidden, KindOf(err))
	snap, err := db.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Brands, 2)
	assert.Len(t, snap.Mentions, 2)

	require.NoError(t, e.DeleteBrand("shopify"))
	snap, err = db.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Brands, 1)
	assert.Equal(t, "wix", snap.Brands[0].ID)
	require.Len(t, snap.Mentions, 1)
	assert.Equal(t, "wix", snap.Mentions[0].BrandID)

	err = e.DeleteBrand("shopify")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestEngineReads(t *testing.T) {
	e, db := openTestEngine(t)
	p := seedRun(t, db, "wix vs shopify", 1, "", map[string]int{"wix": 2})
	src, err := db.GetOrCreateSource("https://www.g2.com/compare", "g2.com", nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, db.InsertCitation(p, src.ID, 1))

	brands, err := e.ListBrands()
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, 100.0, brands[0].Visibility)

	queries, err := e.ListQueries()
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, 80.0, queries[0].Visibility)

	q, err := e.GetQuery(queries[0].ID)
	require.NoError(t, err)
	require.Len(t, q.Runs[0].Sources, 1)

	sources, err := e.ListSources()
	require.NoError(t, err)
	assert.Equal(t, 100.0, sources[0].Usage)

	sa, err := e.SourcesAnalytics()
	require.NoError(t, err)
	assert.Equal(t, 1, sa.Summary.TotalCitations)

	kpis, err := e.Dashboard()
	require.NoError(t, err)
	assert.Equal(t, "Jan 2026", kpis.CurrentPeriod)

	series, err := e.VisibilitySeries()
	require.NoError(t, err)
	assert.Len(t, series, 5)

	sugg, err := e.Suggestions()
	require.NoError(t, err)
	assert.Equal(t, 100, sugg.Score)
}
