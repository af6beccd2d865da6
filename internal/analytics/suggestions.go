package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/TobiSchelling/aiseo/internal/database"
)

const suggestionExamples = 3

// comparisonWords mark a query as comparison intent when any appears as a
// whole word.
var comparisonWords = map[string]bool{
	"vs": true, "versus": true, "compare": true, "best": true, "top": true,
}

// IsComparisonQuery reports whether the query asks to compare or rank options.
func IsComparisonQuery(q string) bool {
	words := strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if comparisonWords[w] {
			return true
		}
	}
	return false
}

// Suggest returns the fixed recommendation list filled in with the current
// source mix and query intent, plus a composite score derived from the
// primary brand's current visibility.
func Suggest(snap *database.Snapshot, opts Options, now time.Time) Suggestions {
	opts = opts.normalized()
	idx := newIndex(snap)
	w := NewWindow(idx.snap.Prompts, opts.LookbackMonths, now)

	var visibility float64
	if idx.primary != nil {
		visibility = idx.brandBucket(idx.primary.ID, w.Current()).Visibility
	}

	var comparison []string
	for _, g := range idx.queries {
		if IsComparisonQuery(g.Text) {
			comparison = append(comparison, g.Text)
		}
	}
	comparisonPct := percent(len(comparison), len(idx.queries))

	counts := idx.categoryCounts()
	share := func(c Category) float64 {
		return round1(percent(counts[c], len(idx.snap.Sources)))
	}

	return Suggestions{
		Score: CompositeScore(visibility),
		Suggestions: []Suggestion{
			{
				Priority:    "high",
				Category:    "content",
				Title:       "Publish comparison content",
				Description: "AI answers to comparison and \"best of\" questions lean on head-to-head articles. Pages that compare your product with alternatives give the model material to rank you.",
				Stat:        formatPct(comparisonPct),
				StatLabel:   "of tracked queries have comparison intent",
				Action:      "Write comparison pages for your main competitors and keep them current.",
				Examples:    firstN(comparison, suggestionExamples),
			},
			{
				Priority:    "high",
				Category:    string(CategoryCommunity),
				Title:       "Join community discussions",
				Description: "Forums and Q&A sites are cited as first-hand user evidence. Genuine participation there shapes how answers describe you.",
				Stat:        formatPct(share(CategoryCommunity)),
				StatLabel:   "of cited sources are community sites",
				Action:      "Answer relevant threads and encourage customers to share their experience.",
				Examples:    idx.topDomainsIn(CategoryCommunity, suggestionExamples),
			},
			{
				Priority:    "medium",
				Category:    string(CategoryReview),
				Title:       "Strengthen review platform presence",
				Description: "Review aggregators feed ratings and feature summaries into recommendations.",
				Stat:        formatPct(share(CategoryReview)),
				StatLabel:   "of cited sources are review platforms",
				Action:      "Keep listings complete and ask satisfied customers for reviews.",
				Examples:    idx.topDomainsIn(CategoryReview, suggestionExamples),
			},
			{
				Priority:    "medium",
				Category:    string(CategoryNews),
				Title:       "Earn media coverage",
				Description: "News and business outlets lend authority to the brands they cover.",
				Stat:        formatPct(share(CategoryNews)),
				StatLabel:   "of cited sources are news outlets",
				Action:      "Pitch product launches and data stories to the outlets cited most often.",
				Examples:    idx.topDomainsIn(CategoryNews, suggestionExamples),
			},
			{
				Priority:    "low",
				Category:    string(CategoryBlog),
				Title:       "Contribute to industry blogs",
				Description: "Tutorials and roundups on independent blogs are a steady source of citations.",
				Stat:        formatPct(share(CategoryBlog)),
				StatLabel:   "of cited sources are blogs",
				Action:      "Offer guest posts and expert quotes to blogs that already rank for your queries.",
				Examples:    idx.topDomainsIn(CategoryBlog, suggestionExamples),
			},
		},
	}
}

// CompositeScore maps visibility to a 0-100 score: round(v*0.9 + 10), capped
// at 100.
func CompositeScore(visibility float64) int {
	return int(math.Min(100, math.Round(visibility*0.9+10)))
}

// topDomainsIn lists the most cited domains whose sources fall in category c.
func (idx *index) topDomainsIn(c Category, limit int) []string {
	cites := make(map[string]int)
	for i := range idx.snap.Sources {
		s := &idx.snap.Sources[i]
		if ClassifySource(s.Domain, s.URL) != c {
			continue
		}
		cites[s.Domain] += len(idx.citationsBySrc[s.ID])
	}
	domains := make([]string, 0, len(cites))
	for d := range cites {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool {
		if cites[domains[i]] != cites[domains[j]] {
			return cites[domains[i]] > cites[domains[j]]
		}
		return domains[i] < domains[j]
	})
	return firstN(domains, limit)
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	return append([]string{}, s...)
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}
