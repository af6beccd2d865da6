package database

import "time"

// Brand types.
const (
	BrandPrimary    = "primary"
	BrandCompetitor = "competitor"
)

// Brand is a tracked brand. Exactly one brand is expected to be primary.
type Brand struct {
	ID         string
	Name       string
	Type       string // "primary" or "competitor"
	Color      string
	Variations []string
	CreatedAt  *string
}

// IsPrimary reports whether b is the tracked primary brand.
func (b Brand) IsPrimary() bool {
	return b.Type == BrandPrimary
}

// MatchTerms returns the strings used to find the brand in answer text.
// Falls back to the brand name when no variations are configured.
func (b Brand) MatchTerms() []string {
	var terms []string
	for _, v := range b.Variations {
		if v != "" {
			terms = append(terms, v)
		}
	}
	if len(terms) == 0 && b.Name != "" {
		terms = []string{b.Name}
	}
	return terms
}

// Prompt is one recorded run of a query against an AI answer engine.
type Prompt struct {
	ID           int64
	Query        string
	RunNumber    int
	ResponseText string
	ScrapedAt    time.Time
}

// Mention records whether and where a brand appeared in a prompt's answer.
type Mention struct {
	ID        int64
	PromptID  int64
	BrandID   string
	Mentioned bool
	Position  *int
	Sentiment *string // "positive", "neutral", "negative"
	Context   *string
}

// Source is a cited web document, unique by URL.
type Source struct {
	ID            int64
	URL           string
	Domain        string
	Title         *string
	Description   *string
	PublishedDate *string
}

// Citation links a prompt to a source it cited, in citation order (1-based).
type Citation struct {
	PromptID      int64
	SourceID      int64
	CitationOrder int
}

// Snapshot is a consistent read of every collection the analytics need.
type Snapshot struct {
	Brands    []Brand
	Prompts   []Prompt
	Mentions  []Mention
	Sources   []Source
	Citations []Citation
}

// Stats contains aggregate database statistics.
type Stats struct {
	Brands    int
	Queries   int
	Runs      int
	Mentions  int
	Sources   int
	Domains   int
	Citations int
}
