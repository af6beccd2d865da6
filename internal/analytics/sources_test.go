package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourcesFixture() *fixture {
	f := newFixture()
	a1 := f.run("best store builder", 1, jan2026, "")
	a2 := f.run("best store builder", 2, jan2026, "")
	b1 := f.run("wix pricing", 1, jan2026, "")

	g2 := f.source("https://www.g2.com/products/wix", "g2.com")
	r1 := f.source("https://www.reddit.com/r/wix/1", "reddit.com")
	r2 := f.source("https://www.reddit.com/r/wix/2", "reddit.com")
	f.source("https://never-cited.example.org/", "never-cited.example.org")

	f.cite(a1, g2, 1)
	f.cite(a2, g2, 3)
	f.cite(b1, g2, 2)
	f.cite(a1, r1, 2)
	f.cite(b1, r2, 1)
	return f
}

func TestListSources(t *testing.T) {
	f := sourcesFixture()
	sources := ListSources(&f.snap)
	require.Len(t, sources, 4)

	top := sources[0]
	assert.Equal(t, "g2.com", top.Domain)
	assert.Equal(t, 100.0, top.Usage)
	assert.Equal(t, 3, top.Citations)
	assert.Equal(t, 2.0, top.AvgCitations)
	assert.Equal(t, "review", top.Type)

	assert.Equal(t, "reddit.com", sources[1].Domain)
	assert.Equal(t, 50.0, sources[1].Usage)

	last := sources[3]
	assert.Equal(t, "never-cited.example.org", last.Domain)
	assert.Equal(t, 0.0, last.Usage)
	assert.Equal(t, 0.0, last.AvgCitations)
}

func TestAnalyzeSources(t *testing.T) {
	f := sourcesFixture()
	res := AnalyzeSources(&f.snap, DefaultOptions())

	assert.Equal(t, 4, res.Summary.TotalSources)
	assert.Equal(t, 3, res.Summary.TotalDomains)
	assert.Equal(t, 5, res.Summary.TotalCitations)
	assert.Equal(t, 1.3, res.Summary.AvgCitationsPerSource)

	require.Len(t, res.DomainBreakdown, 3)
	assert.Equal(t, DomainStat{Domain: "g2.com", Citations: 3, Percentage: 60, Type: "review"}, res.DomainBreakdown[0])
	assert.Equal(t, DomainStat{Domain: "reddit.com", Citations: 2, Percentage: 40, Type: "community"}, res.DomainBreakdown[1])

	types := map[string]TypeStat{}
	for _, ts := range res.SourceTypeBreakdown {
		types[ts.Type] = ts
	}
	assert.Len(t, res.SourceTypeBreakdown, len(Categories))
	assert.Equal(t, 2, types["community"].Count)
	assert.Equal(t, 50.0, types["community"].Percentage)
	assert.Equal(t, 25.0, types["review"].Percentage)
	assert.Equal(t, 25.0, types["other"].Percentage)

	require.Len(t, res.TopSources, 3)
	assert.Equal(t, "https://www.g2.com/products/wix", res.TopSources[0].URL)
	assert.Equal(t, []string{"best store builder", "wix pricing"}, res.TopSources[0].Queries)
}

func TestAnalyzeSourcesLimits(t *testing.T) {
	f := sourcesFixture()
	res := AnalyzeSources(&f.snap, Options{TopDomains: 1, TopSources: 1, SourceExamples: 1})
	assert.Len(t, res.DomainBreakdown, 1)
	require.Len(t, res.TopSources, 1)
	assert.Equal(t, []string{"best store builder"}, res.TopSources[0].Queries)
}

func TestAnalyzeSourcesEmpty(t *testing.T) {
	res := AnalyzeSources(nil, DefaultOptions())
	assert.Zero(t, res.Summary.TotalSources)
	assert.Zero(t, res.Summary.AvgCitationsPerSource)
	assert.Empty(t, res.DomainBreakdown)
	assert.Empty(t, res.TopSources)
}
