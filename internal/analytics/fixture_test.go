package analytics

import (
	"time"

	"github.com/TobiSchelling/aiseo/internal/database"
)

var (
	dec2025 = time.Date(2025, time.December, 10, 12, 0, 0, 0, time.UTC)
	jan2026 = time.Date(2026, time.January, 12, 9, 30, 0, 0, time.UTC)
)

// fixture builds snapshots in memory.
type fixture struct {
	snap   database.Snapshot
	nextID int64
}

func newFixture() *fixture {
	return &fixture{snap: database.Snapshot{
		Brands: []database.Brand{
			{ID: "wix", Name: "Wix", Type: database.BrandPrimary, Color: "#06b6d4", Variations: []string{"Wix", "Wix.com"}},
			{ID: "shopify", Name: "Shopify", Type: database.BrandCompetitor, Color: "#f59e0b", Variations: []string{"Shopify"}},
		},
	}}
}

func (f *fixture) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fixture) run(query string, runNumber int, at time.Time, text string) int64 {
	id := f.id()
	f.snap.Prompts = append(f.snap.Prompts, database.Prompt{
		ID: id, Query: query, RunNumber: runNumber, ResponseText: text, ScrapedAt: at,
	})
	return id
}

// mention records brandID as mentioned at pos; pos 0 leaves the position unset.
func (f *fixture) mention(promptID int64, brandID string, pos int, sentiment string) {
	m := database.Mention{ID: f.id(), PromptID: promptID, BrandID: brandID, Mentioned: true}
	if pos > 0 {
		m.Position = &pos
	}
	if sentiment != "" {
		m.Sentiment = &sentiment
	}
	f.snap.Mentions = append(f.snap.Mentions, m)
}

func (f *fixture) absent(promptID int64, brandID string) {
	f.snap.Mentions = append(f.snap.Mentions, database.Mention{
		ID: f.id(), PromptID: promptID, BrandID: brandID, Mentioned: false,
	})
}

func (f *fixture) source(url, domain string) int64 {
	id := f.id()
	f.snap.Sources = append(f.snap.Sources, database.Source{ID: id, URL: url, Domain: domain})
	return id
}

func (f *fixture) cite(promptID, sourceID int64, order int) {
	f.snap.Citations = append(f.snap.Citations, database.Citation{
		PromptID: promptID, SourceID: sourceID, CitationOrder: order,
	})
}

func intPtr(n int) *int { return &n }
