package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryAggregateAveragesRuns(t *testing.T) {
	f := newFixture()
	r1 := f.run("best ecommerce platform", 1, jan2026, "Wix first.")
	r2 := f.run("best ecommerce platform", 2, jan2026.AddDate(0, 0, 1), "Shopify, WooCommerce, then Wix.")
	f.mention(r1, "wix", 1, "positive")
	f.mention(r2, "wix", 3, "neutral")
	f.mention(r2, "shopify", 1, "positive")

	queries := ListQueries(&f.snap)
	require.Len(t, queries, 1)
	q := queries[0]
	assert.Equal(t, "query-1", q.ID)
	assert.Equal(t, 80.0, q.Visibility)
	assert.Equal(t, 2.0, q.AvgPosition)
	assert.Equal(t, 2, q.TotalRuns)
	// mean(1, 2) = 1.5 rounds to 2
	assert.Equal(t, 2, q.TotalMentions)

	require.Len(t, q.Brands, 2)
	for _, b := range q.Brands {
		assert.True(t, b.Mentioned, b.BrandID)
		assert.Equal(t, 0, b.Position, b.BrandID)
	}
}

func TestQueryAggregateUnmentionedPrimary(t *testing.T) {
	f := newFixture()
	r1 := f.run("cheapest store builder", 1, jan2026, "")
	r2 := f.run("cheapest store builder", 2, jan2026, "")
	f.absent(r1, "wix")
	f.mention(r2, "shopify", 2, "")

	q := ListQueries(&f.snap)[0]
	assert.Equal(t, 0.0, q.Visibility)
	assert.Equal(t, 0.0, q.AvgPosition)

	var wix BrandMention
	for _, b := range q.Brands {
		if b.BrandID == "wix" {
			wix = b
		}
	}
	assert.False(t, wix.Mentioned)
	assert.Equal(t, "neutral", wix.Sentiment)
}

func TestQueryIDsStable(t *testing.T) {
	f := newFixture()
	f.run("zebra query", 1, jan2026, "")
	f.run("alpha query", 2, jan2026, "")
	f.run("alpha query", 1, jan2026, "")
	f.run("middle query", 1, dec2025, "")

	first := ListQueries(&f.snap)
	second := ListQueries(&f.snap)
	require.Equal(t, first, second)

	ids := map[string]string{}
	for _, q := range first {
		ids[q.Query] = q.ID
	}
	assert.Equal(t, "query-1", ids["alpha query"])
	assert.Equal(t, "query-2", ids["middle query"])
	assert.Equal(t, "query-3", ids["zebra query"])
}

func TestGetQueryRunsAndSources(t *testing.T) {
	f := newFixture()
	r2 := f.run("wix vs shopify", 2, jan2026, "Shopify then Wix")
	r1 := f.run("wix vs shopify", 1, dec2025, "Wix wins")
	f.mention(r1, "wix", 1, "positive")
	f.mention(r2, "wix", 2, "neutral")
	s1 := f.source("https://www.reddit.com/r/ecommerce/x", "reddit.com")
	s2 := f.source("https://www.g2.com/compare/wix-vs-shopify", "g2.com")
	f.cite(r2, s1, 2)
	f.cite(r2, s2, 1)

	detail, err := GetQuery(&f.snap, "query-1")
	require.NoError(t, err)
	require.Len(t, detail.Runs, 2)
	assert.Equal(t, 1, detail.Runs[0].RunNumber)
	assert.Equal(t, 100.0, detail.Runs[0].Visibility)
	assert.Equal(t, 2, detail.Runs[1].RunNumber)
	assert.Equal(t, 80.0, detail.Runs[1].Visibility)
	assert.Equal(t, 90.0, detail.Visibility)

	srcs := detail.Runs[1].Sources
	require.Len(t, srcs, 2)
	assert.Equal(t, "g2.com", srcs[0].Domain)
	assert.Equal(t, "review", srcs[0].Type)
	assert.Equal(t, "reddit.com", srcs[1].Domain)
	assert.Equal(t, "community", srcs[1].Type)
}

func TestGetQueryErrors(t *testing.T) {
	f := newFixture()
	f.run("only query", 1, jan2026, "")

	_, err := GetQuery(&f.snap, "query-abc")
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = GetQuery(&f.snap, "query-2")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = GetQuery(&f.snap, "query-0")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestParseQueryID(t *testing.T) {
	for in, want := range map[string]int{"query-3": 3, "prompt-7": 7, "12": 12} {
		n, err := ParseQueryID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, n, in)
	}
	_, err := ParseQueryID("query-")
	assert.Error(t, err)
}
