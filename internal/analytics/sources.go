package analytics

import (
	"sort"

	"github.com/TobiSchelling/aiseo/internal/database"
)

// citingQueries returns the distinct query texts citing a source, sorted.
func (idx *index) citingQueries(sourceID int64) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range idx.citationsBySrc[sourceID] {
		q := idx.queryOf(c.PromptID)
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// ListSources reports each source's usage: the share of distinct queries
// citing it, its citation count and its mean citation order.
func ListSources(snap *database.Snapshot) []SourceSummary {
	idx := newIndex(snap)
	total := len(idx.queries)

	out := make([]SourceSummary, 0, len(idx.snap.Sources))
	for i := range idx.snap.Sources {
		s := &idx.snap.Sources[i]
		cites := idx.citationsBySrc[s.ID]
		orders := make([]float64, 0, len(cites))
		for _, c := range cites {
			orders = append(orders, float64(c.CitationOrder))
		}
		out = append(out, SourceSummary{
			Domain:       s.Domain,
			URL:          s.URL,
			Title:        s.Title,
			Type:         string(ClassifySource(s.Domain, s.URL)),
			Usage:        round1(percent(len(idx.citingQueries(s.ID)), total)),
			Citations:    len(cites),
			AvgCitations: round1(mean(orders)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Usage != out[j].Usage {
			return out[i].Usage > out[j].Usage
		}
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// AnalyzeSources builds the citation dashboard: headline counts, the most
// cited domains, the mix of source categories and the most cited sources.
func AnalyzeSources(snap *database.Snapshot, opts Options) SourcesAnalytics {
	opts = opts.normalized()
	idx := newIndex(snap)

	totalCitations := 0
	byDomain := make(map[string]int)
	for i := range idx.snap.Sources {
		s := &idx.snap.Sources[i]
		n := len(idx.citationsBySrc[s.ID])
		byDomain[s.Domain] += n
		totalCitations += n
	}

	res := SourcesAnalytics{
		Summary: SourcesOverview{
			TotalSources:   len(idx.snap.Sources),
			TotalDomains:   len(byDomain),
			TotalCitations: totalCitations,
		},
	}
	if len(idx.snap.Sources) > 0 {
		res.Summary.AvgCitationsPerSource = round1(float64(totalCitations) / float64(len(idx.snap.Sources)))
	}

	res.DomainBreakdown = make([]DomainStat, 0, len(byDomain))
	for d, n := range byDomain {
		res.DomainBreakdown = append(res.DomainBreakdown, DomainStat{
			Domain:     d,
			Citations:  n,
			Percentage: round1(percent(n, totalCitations)),
			Type:       string(ClassifySource(d, "")),
		})
	}
	sort.Slice(res.DomainBreakdown, func(i, j int) bool {
		a, b := res.DomainBreakdown[i], res.DomainBreakdown[j]
		if a.Citations != b.Citations {
			return a.Citations > b.Citations
		}
		return a.Domain < b.Domain
	})
	if len(res.DomainBreakdown) > opts.TopDomains {
		res.DomainBreakdown = res.DomainBreakdown[:opts.TopDomains]
	}

	counts := idx.categoryCounts()
	res.SourceTypeBreakdown = make([]TypeStat, 0, len(Categories))
	for _, c := range Categories {
		res.SourceTypeBreakdown = append(res.SourceTypeBreakdown, TypeStat{
			Type:       string(c),
			Count:      counts[c],
			Percentage: round1(percent(counts[c], len(idx.snap.Sources))),
		})
	}

	res.TopSources = idx.topSources(opts.TopSources, opts.SourceExamples)
	return res
}

// categoryCounts tallies sources per category.
func (idx *index) categoryCounts() map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, s := range idx.snap.Sources {
		counts[ClassifySource(s.Domain, s.URL)]++
	}
	return counts
}

func (idx *index) topSources(limit, examples int) []TopSource {
	out := []TopSource{}
	for i := range idx.snap.Sources {
		s := &idx.snap.Sources[i]
		n := len(idx.citationsBySrc[s.ID])
		if n == 0 {
			continue
		}
		qs := idx.citingQueries(s.ID)
		if len(qs) > examples {
			qs = qs[:examples]
		}
		out = append(out, TopSource{
			URL:       s.URL,
			Domain:    s.Domain,
			Title:     s.Title,
			Type:      string(ClassifySource(s.Domain, s.URL)),
			Citations: n,
			Queries:   qs,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Citations != out[j].Citations {
			return out[i].Citations > out[j].Citations
		}
		return out[i].URL < out[j].URL
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
