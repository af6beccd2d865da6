package database

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

var testBrands = []Brand{
	{ID: "wix", Name: "Wix", Type: BrandPrimary, Color: "#06b6d4", Variations: []string{"Wix", "Wix.com"}},
	{ID: "shopify", Name: "Shopify", Type: BrandCompetitor, Color: "#f59e0b"},
}

func TestEnsureBrands(t *testing.T) {
	db := openTestDB(t)

	n, err := db.EnsureBrands(testBrands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 inserted, got %d", n)
	}

	n, err = db.EnsureBrands(testBrands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 inserted on second run, got %d", n)
	}

	brands, err := db.GetAllBrands()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(brands) != 2 || brands[0].ID != "wix" {
		t.Fatalf("expected wix first, got %+v", brands)
	}
	if len(brands[0].Variations) != 2 || brands[0].Variations[1] != "Wix.com" {
		t.Errorf("variations not round-tripped: %v", brands[0].Variations)
	}
	if brands[1].Variations != nil {
		t.Errorf("expected nil variations, got %v", brands[1].Variations)
	}
	if got := brands[1].MatchTerms(); len(got) != 1 || got[0] != "Shopify" {
		t.Errorf("expected name fallback, got %v", got)
	}
}

func TestGetBrandMissing(t *testing.T) {
	db := openTestDB(t)
	b, err := db.GetBrand("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != nil {
		t.Errorf("expected nil brand, got %+v", b)
	}
}

func TestInsertPromptDuplicate(t *testing.T) {
	db := openTestDB(t)
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	id, err := db.InsertPrompt("best website builder", 1, "Wix is great.", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero prompt ID")
	}

	_, err = db.InsertPrompt("best website builder", 1, "again", at)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	p, err := db.GetPromptByQueryRun("best website builder", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.ResponseText != "Wix is great." || !p.ScrapedAt.Equal(at) {
		t.Errorf("unexpected prompt %+v", p)
	}

	missing, err := db.GetPromptByQueryRun("best website builder", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing run")
	}
}

func TestInsertRun(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.EnsureBrands(testBrands); err != nil {
		t.Fatal(err)
	}
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	p := Prompt{Query: "best website builder", RunNumber: 1, ResponseText: "Wix first.", ScrapedAt: at}
	sources := []Source{
		{URL: "https://a.com/1", Domain: "a.com"},
		{URL: "https://b.com/2", Domain: "b.com", Title: ptr("B")},
		{URL: "https://a.com/1", Domain: "a.com"},
	}

	pid, cited, err := db.InsertRun(p, []Mention{{BrandID: "wix", Mentioned: true}}, sources)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pid == 0 || cited != 2 {
		t.Errorf("expected prompt ID and 2 citations, got %d, %d", pid, cited)
	}

	_, _, err = db.InsertRun(p, nil, nil)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	bad := Prompt{Query: "best website builder", RunNumber: 2, ScrapedAt: at}
	_, _, err = db.InsertRun(bad, []Mention{{BrandID: "wix", Mentioned: true, Sentiment: ptr("great")}},
		[]Source{{URL: "https://c.com/3", Domain: "c.com"}})
	if err == nil {
		t.Fatal("expected error for invalid sentiment")
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Brands: 2, Queries: 1, Runs: 1, Mentions: 1, Sources: 2, Domains: 2, Citations: 2}
	if *stats != want {
		t.Errorf("expected %+v, got %+v", want, *stats)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.EnsureBrands(testBrands); err != nil {
		t.Fatal(err)
	}

	_, dupErr := db.conn.Exec(`INSERT INTO brands (id, name, type) VALUES ('wix', 'Wix', 'primary')`)
	if !isUniqueViolation(dupErr) {
		t.Errorf("expected primary key violation to match, got %v", dupErr)
	}
	if !isUniqueViolation(fmt.Errorf("wrapped: %w", dupErr)) {
		t.Error("expected wrapped violation to match")
	}

	_, checkErr := db.conn.Exec(`INSERT INTO brands (id, name, type) VALUES ('acme', 'Acme', 'other')`)
	if checkErr == nil {
		t.Fatal("expected CHECK constraint error")
	}
	if isUniqueViolation(checkErr) {
		t.Errorf("CHECK violation matched as unique: %v", checkErr)
	}

	if isUniqueViolation(errors.New("UNIQUE constraint failed: brands.id")) {
		t.Error("expected plain error text not to match")
	}
	if isUniqueViolation(nil) {
		t.Error("expected nil not to match")
	}
}

func TestInsertBrandWithMentions(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.EnsureBrands(testBrands); err != nil {
		t.Fatal(err)
	}
	pid, err := db.InsertPrompt("q", 1, "Acme", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	pos := 1
	acme := Brand{ID: "acme", Name: "Acme", Type: BrandCompetitor, Color: "#000000"}
	mentions := []Mention{{PromptID: pid, BrandID: "acme", Mentioned: true, Position: &pos, Sentiment: ptr("neutral"), Context: ptr("Acme")}}
	if err := db.InsertBrandWithMentions(acme, mentions); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = db.InsertBrandWithMentions(acme, nil)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	snap, err := db.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Mentions) != 1 {
		t.Fatalf("expected 1 mention, got %d", len(snap.Mentions))
	}
	m := snap.Mentions[0]
	if !m.Mentioned || m.Position == nil || *m.Position != 1 || *m.Context != "Acme" {
		t.Errorf("unexpected mention %+v", m)
	}
}

func TestDeleteBrandCascadesMentions(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.EnsureBrands(testBrands); err != nil {
		t.Fatal(err)
	}
	pid, _ := db.InsertPrompt("q", 1, "", time.Now())
	db.InsertMention(Mention{PromptID: pid, BrandID: "wix", Mentioned: true})
	db.InsertMention(Mention{PromptID: pid, BrandID: "shopify", Mentioned: true})

	existed, err := db.DeleteBrand("shopify")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !existed {
		t.Error("expected brand to exist")
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Brands != 1 || stats.Mentions != 1 {
		t.Errorf("expected 1 brand and 1 mention, got %+v", stats)
	}

	existed, err = db.DeleteBrand("shopify")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if existed {
		t.Error("expected second delete to report missing brand")
	}
}

func TestSourcesAndCitations(t *testing.T) {
	db := openTestDB(t)
	pid, _ := db.InsertPrompt("q", 1, "", time.Now())

	s1, err := db.GetOrCreateSource("https://www.g2.com/a", "g2.com", nil, nil, ptr("2025-11-02"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := db.GetOrCreateSource("https://www.g2.com/a", "g2.com", ptr("ignored"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != s1.ID || again.Title != nil {
		t.Errorf("expected existing source untouched, got %+v", again)
	}

	if err := db.InsertCitation(pid, s1.ID, 2); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertCitation(pid, s1.ID, 5); err != nil {
		t.Fatal(err)
	}

	snap, err := db.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Citations) != 1 || snap.Citations[0].CitationOrder != 2 {
		t.Errorf("expected first citation order kept, got %+v", snap.Citations)
	}
}

func TestSourceMetadata(t *testing.T) {
	db := openTestDB(t)
	s, _ := db.GetOrCreateSource("https://a.com/x", "a.com", nil, nil, nil)
	db.GetOrCreateSource("https://b.com/y", "b.com", ptr("B"), ptr("Has both"), nil)

	missing, err := db.GetSourcesMissingMetadata(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(missing) != 1 || missing[0].ID != s.ID {
		t.Fatalf("expected only a.com to need metadata, got %+v", missing)
	}

	if err := db.UpdateSourceMetadata(s.ID, ptr("Title A"), nil); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateSourceMetadata(s.ID, ptr(""), ptr("Desc A")); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetSourceByURL("https://a.com/x")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title == nil || *got.Title != "Title A" {
		t.Errorf("expected title kept, got %v", got.Title)
	}
	if got.Description == nil || *got.Description != "Desc A" {
		t.Errorf("expected description set, got %v", got.Description)
	}
}

func TestCheckedSourcesLeaveMissingList(t *testing.T) {
	db := openTestDB(t)
	a, _ := db.GetOrCreateSource("https://a.com/x", "a.com", nil, nil, nil)
	b, _ := db.GetOrCreateSource("https://b.com/y", "b.com", nil, nil, nil)
	c, _ := db.GetOrCreateSource("https://c.com/z", "c.com", nil, nil, nil)

	// A title alone still leaves the description missing.
	if err := db.UpdateSourceMetadata(a.ID, ptr("Title only"), nil); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkSourceChecked(b.ID); err != nil {
		t.Fatal(err)
	}

	missing, err := db.GetSourcesMissingMetadata(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 1 || missing[0].ID != c.ID {
		t.Fatalf("expected only c.com to be selected, got %+v", missing)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	db.EnsureBrands(testBrands)
	p1, _ := db.InsertPrompt("q1", 1, "", time.Now())
	db.InsertPrompt("q1", 2, "", time.Now())
	db.InsertPrompt("q2", 1, "", time.Now())
	db.InsertMention(Mention{PromptID: p1, BrandID: "wix", Mentioned: true})
	db.InsertMention(Mention{PromptID: p1, BrandID: "shopify", Mentioned: false})
	s1, _ := db.GetOrCreateSource("https://a.com/1", "a.com", nil, nil, nil)
	s2, _ := db.GetOrCreateSource("https://a.com/2", "a.com", nil, nil, nil)
	db.InsertCitation(p1, s1.ID, 1)
	db.InsertCitation(p1, s2.ID, 2)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Stats{Brands: 2, Queries: 2, Runs: 3, Mentions: 1, Sources: 2, Domains: 1, Citations: 2}
	if *stats != want {
		t.Errorf("expected %+v, got %+v", want, *stats)
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{"2026-01-05T10:00:00Z", "2026-01-05 10:00:00", "2026-01-05"} {
		ts, err := parseTimestamp(s)
		if err != nil {
			t.Errorf("parseTimestamp(%q): %v", s, err)
			continue
		}
		if ts.Year() != 2026 || ts.Month() != time.January || ts.Day() != 5 {
			t.Errorf("parseTimestamp(%q) = %v", s, ts)
		}
	}
	if _, err := parseTimestamp("yesterday"); err == nil {
		t.Error("expected error for unrecognised timestamp")
	}
}
