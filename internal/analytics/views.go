package analytics

// Trend classifications.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

const defaultSentiment = "neutral"

// BrandSummary is a brand's visibility in the current month.
type BrandSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Color       string  `json:"color"`
	Visibility  float64 `json:"visibility"`
	AvgPosition float64 `json:"avgPosition"`
	Trend       string  `json:"trend"`
	Sentiment   string  `json:"sentiment"`
}

// BrandDetail extends the summary with history and top prompts.
type BrandDetail struct {
	BrandSummary
	Variations              []string            `json:"variations"`
	PreviousVisibility      float64             `json:"previousVisibility"`
	TotalMentions           int                 `json:"totalMentions"`
	TotalPromptsMentionedIn int                 `json:"totalPromptsMentionedIn"`
	TopPrompts              []TopPrompt         `json:"topPrompts"`
	VisibilityByMonth       []MonthlyVisibility `json:"visibilityByMonth"`
}

// TopPrompt is a query where the brand was mentioned in the current month,
// at its best position across runs.
type TopPrompt struct {
	QueryID   string `json:"queryId"`
	Query     string `json:"query"`
	Position  *int   `json:"position"`
	Sentiment string `json:"sentiment"`
	Context   string `json:"context,omitempty"`
}

// MonthlyVisibility is one point of a brand's visibility history.
type MonthlyVisibility struct {
	Month      string  `json:"month"`
	Key        string  `json:"key"`
	Visibility float64 `json:"visibility"`
}

// BrandMention is a brand's presence in a run, or in a query aggregate where
// Position is always 0.
type BrandMention struct {
	BrandID   string `json:"brandId"`
	BrandName string `json:"brandName"`
	Mentioned bool   `json:"mentioned"`
	Position  int    `json:"position"`
	Sentiment string `json:"sentiment"`
}

// QuerySummary aggregates every run of one query.
type QuerySummary struct {
	ID            string         `json:"id"`
	Query         string         `json:"query"`
	Visibility    float64        `json:"visibility"`
	AvgPosition   float64        `json:"avgPosition"`
	TotalMentions int            `json:"totalMentions"`
	TotalRuns     int            `json:"totalRuns"`
	Brands        []BrandMention `json:"brands"`
}

// QueryDetail is a query aggregate plus each individually scored run.
type QueryDetail struct {
	QuerySummary
	Runs []RunView `json:"runs"`
}

// RunView is one scored run with its answer and cited sources.
type RunView struct {
	ID            int64          `json:"id"`
	RunNumber     int            `json:"runNumber"`
	ScrapedAt     string         `json:"scrapedAt"`
	Visibility    float64        `json:"visibility"`
	AvgPosition   float64        `json:"avgPosition"`
	TotalMentions int            `json:"totalMentions"`
	Brands        []BrandMention `json:"brands"`
	ResponseText  string         `json:"responseText"`
	Sources       []CitedSource  `json:"sources"`
}

// CitedSource is a source as cited by a specific run.
type CitedSource struct {
	Domain        string  `json:"domain"`
	URL           string  `json:"url"`
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	PublishedDate *string `json:"publishedDate"`
	CitationOrder int     `json:"citationOrder"`
	Type          string  `json:"type"`
}

// SourceSummary is per-source usage across queries.
type SourceSummary struct {
	Domain       string  `json:"domain"`
	URL          string  `json:"url"`
	Title        *string `json:"title"`
	Type         string  `json:"type"`
	Usage        float64 `json:"usage"`
	Citations    int     `json:"citations"`
	AvgCitations float64 `json:"avgCitations"`
}

// SourcesAnalytics is the source and citation dashboard.
type SourcesAnalytics struct {
	Summary             SourcesOverview `json:"summary"`
	DomainBreakdown     []DomainStat    `json:"domainBreakdown"`
	SourceTypeBreakdown []TypeStat      `json:"sourceTypeBreakdown"`
	TopSources          []TopSource     `json:"topSources"`
}

// SourcesOverview holds headline source counts.
type SourcesOverview struct {
	TotalSources          int     `json:"totalSources"`
	TotalDomains          int     `json:"totalDomains"`
	TotalCitations        int     `json:"totalCitations"`
	AvgCitationsPerSource float64 `json:"avgCitationsPerSource"`
}

// DomainStat is a domain's share of all citations.
type DomainStat struct {
	Domain     string  `json:"domain"`
	Citations  int     `json:"citations"`
	Percentage float64 `json:"percentage"`
	Type       string  `json:"type"`
}

// TypeStat is the share of sources in one category.
type TypeStat struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TopSource is a frequently cited source with example citing queries.
type TopSource struct {
	URL       string   `json:"url"`
	Domain    string   `json:"domain"`
	Title     *string  `json:"title"`
	Type      string   `json:"type"`
	Citations int      `json:"citations"`
	Queries   []string `json:"queries"`
}

// DashboardKPIs is the single-screen summary for the primary brand.
type DashboardKPIs struct {
	CurrentPeriod  string      `json:"currentPeriod"`
	PreviousPeriod string      `json:"previousPeriod"`
	Visibility     PercentKPI  `json:"visibility"`
	TotalQueries   CountKPI    `json:"totalPrompts"`
	TotalSources   CitationKPI `json:"totalSources"`
	AvgPosition    PositionKPI `json:"avgPosition"`
}

// PercentKPI is a percentage with its change in percentage points.
type PercentKPI struct {
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

// CountKPI is a plain count.
type CountKPI struct {
	Value int `json:"value"`
}

// CitationKPI is citation volume this period, its change from the previous
// period, and the all-time number of sources.
type CitationKPI struct {
	Value  int `json:"value"`
	Change int `json:"change"`
	Total  int `json:"total"`
}

// PositionKPI is an average position; Change is positive when the position
// improved (moved closer to 1).
type PositionKPI struct {
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

// SeriesPoint is one month of per-brand visibility, keyed by brand ID.
type SeriesPoint struct {
	Month      string             `json:"month"`
	Key        string             `json:"key"`
	Visibility map[string]float64 `json:"visibility"`
}

// Suggestions is the ranked recommendation list with a composite score.
type Suggestions struct {
	Score       int          `json:"score"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Suggestion is one templated recommendation.
type Suggestion struct {
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Stat        string   `json:"stat"`
	StatLabel   string   `json:"statLabel"`
	Action      string   `json:"action"`
	Examples    []string `json:"examples"`
}
