package analytics

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/TobiSchelling/aiseo/internal/database"
)

const queryIDPrefix = "query-"

// FormatQueryID renders a display number as a query identifier.
func FormatQueryID(n int) string {
	return queryIDPrefix + strconv.Itoa(n)
}

// ParseQueryID accepts "query-N", the legacy "prompt-N", or a bare "N".
func ParseQueryID(id string) (int, error) {
	raw := strings.TrimSpace(id)
	raw = strings.TrimPrefix(raw, queryIDPrefix)
	raw = strings.TrimPrefix(raw, "prompt-")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, newError(KindInvalidArgument, "invalid query ID format: %q", id)
	}
	return n, nil
}

// groupQueries orders runs by query text then run number and assigns each
// distinct query a 1-based display number. The numbering depends only on the
// set of query texts, so it is stable across calls on the same data.
func (idx *index) groupQueries() {
	runs := make([]*database.Prompt, 0, len(idx.snap.Prompts))
	for i := range idx.snap.Prompts {
		runs = append(runs, &idx.snap.Prompts[i])
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Query != runs[j].Query {
			return runs[i].Query < runs[j].Query
		}
		if runs[i].RunNumber != runs[j].RunNumber {
			return runs[i].RunNumber < runs[j].RunNumber
		}
		return runs[i].ID < runs[j].ID
	})

	var current *queryGroup
	for _, p := range runs {
		if current == nil || current.Text != p.Query {
			current = &queryGroup{DisplayID: len(idx.queries) + 1, Text: p.Query}
			idx.queries = append(idx.queries, current)
			idx.queryIDs[p.Query] = current.DisplayID
		}
		current.Runs = append(current.Runs, p)
	}
}

// ListQueries aggregates every query across its runs, in display order.
func ListQueries(snap *database.Snapshot) []QuerySummary {
	idx := newIndex(snap)
	out := make([]QuerySummary, 0, len(idx.queries))
	for _, g := range idx.queries {
		out = append(out, summarizeQuery(idx, g))
	}
	return out
}

// GetQuery resolves a display identifier and returns the aggregate plus
// every run sorted by run number.
func GetQuery(snap *database.Snapshot, queryID string) (*QueryDetail, error) {
	n, err := ParseQueryID(queryID)
	if err != nil {
		return nil, err
	}
	idx := newIndex(snap)
	if n < 1 || n > len(idx.queries) {
		return nil, newError(KindNotFound, "query %s not found", queryID)
	}
	g := idx.queries[n-1]

	detail := &QueryDetail{QuerySummary: summarizeQuery(idx, g)}
	detail.Runs = make([]RunView, 0, len(g.Runs))
	for _, p := range g.Runs {
		detail.Runs = append(detail.Runs, buildRunView(idx, p))
	}
	return detail, nil
}

func summarizeQuery(idx *index, g *queryGroup) QuerySummary {
	var visibilities, positions, counts []float64
	for _, p := range g.Runs {
		rs := scoreRun(idx, *p)
		visibilities = append(visibilities, rs.Visibility)
		if rs.Position > 0 {
			positions = append(positions, float64(rs.Position))
		}
		counts = append(counts, float64(rs.MentionCount))
	}

	return QuerySummary{
		ID:            FormatQueryID(g.DisplayID),
		Query:         g.Text,
		Visibility:    round1(mean(visibilities)),
		AvgPosition:   round1(mean(positions)),
		TotalMentions: int(math.Round(mean(counts))),
		TotalRuns:     len(g.Runs),
		Brands:        aggregateBrandMentions(idx, g),
	}
}

// aggregateBrandMentions marks a brand as mentioned if any run mentioned it.
// Positions are run-specific and reported as 0 at this level; the sentiment
// is taken from the latest run that mentioned the brand.
func aggregateBrandMentions(idx *index, g *queryGroup) []BrandMention {
	out := make([]BrandMention, 0, len(idx.snap.Brands))
	for _, b := range idx.snap.Brands {
		bm := BrandMention{BrandID: b.ID, BrandName: b.Name, Sentiment: defaultSentiment}
		for _, p := range g.Runs {
			m := idx.mention(p.ID, b.ID)
			if m == nil || !m.Mentioned {
				continue
			}
			bm.Mentioned = true
			if m.Sentiment != nil && *m.Sentiment != "" {
				bm.Sentiment = *m.Sentiment
			}
		}
		out = append(out, bm)
	}
	return out
}

func buildRunView(idx *index, p *database.Prompt) RunView {
	rs := scoreRun(idx, *p)
	rv := RunView{
		ID:            p.ID,
		RunNumber:     p.RunNumber,
		ScrapedAt:     p.ScrapedAt.UTC().Format(time.RFC3339),
		Visibility:    rs.Visibility,
		AvgPosition:   float64(rs.Position),
		TotalMentions: rs.MentionCount,
		ResponseText:  p.ResponseText,
	}

	for _, b := range idx.snap.Brands {
		bm := BrandMention{BrandID: b.ID, BrandName: b.Name, Sentiment: defaultSentiment}
		if m := idx.mention(p.ID, b.ID); m != nil && m.Mentioned {
			bm.Mentioned = true
			if m.Position != nil {
				bm.Position = *m.Position
			}
			if m.Sentiment != nil && *m.Sentiment != "" {
				bm.Sentiment = *m.Sentiment
			}
		}
		rv.Brands = append(rv.Brands, bm)
	}

	citations := append([]database.Citation(nil), idx.citationsByRun[p.ID]...)
	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].CitationOrder < citations[j].CitationOrder
	})
	rv.Sources = make([]CitedSource, 0, len(citations))
	for _, c := range citations {
		s := idx.sourcesByID[c.SourceID]
		rv.Sources = append(rv.Sources, CitedSource{
			Domain:        s.Domain,
			URL:           s.URL,
			Title:         s.Title,
			Description:   s.Description,
			PublishedDate: s.PublishedDate,
			CitationOrder: c.CitationOrder,
			Type:          string(ClassifySource(s.Domain, s.URL)),
		})
	}
	return rv
}
