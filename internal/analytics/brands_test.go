package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name              string
		current, previous float64
		want              string
	}{
		{"exactly +2 is stable", 52, 50, TrendStable},
		{"exactly -2 is stable", 48, 50, TrendStable},
		{"+2.01 is up", 52.01, 50, TrendUp},
		{"-2.01 is down", 47.99, 50, TrendDown},
		{"+2 with float error is stable", percent(3, 5), percent(29, 50), TrendStable},
		{"unchanged", 30, 30, TrendStable},
		{"from zero", 10, 0, TrendUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTrend(tt.current, tt.previous, 2))
		})
	}
}

func TestTrendAtBandEdgeIsStable(t *testing.T) {
	f := newFixture()
	// 29 of 50 last month, 3 of 5 this month: exactly +2 points.
	for i := 0; i < 50; i++ {
		pid := f.run(fmt.Sprintf("december query %02d", i), 1, dec2025, "")
		if i < 29 {
			f.mention(pid, "wix", 1, "positive")
		} else {
			f.absent(pid, "wix")
		}
	}
	for i := 0; i < 5; i++ {
		pid := f.run(fmt.Sprintf("january query %d", i), 1, jan2026, "")
		if i < 3 {
			f.mention(pid, "wix", 1, "positive")
		} else {
			f.absent(pid, "wix")
		}
	}

	brands := ListBrands(&f.snap, DefaultOptions(), time.Now())
	require.NotEmpty(t, brands)
	assert.Equal(t, "wix", brands[0].ID)
	assert.Equal(t, 60.0, brands[0].Visibility)
	assert.Equal(t, TrendStable, brands[0].Trend)

	kpis := Dashboard(&f.snap, DefaultOptions(), time.Now())
	assert.Equal(t, 2.0, kpis.Visibility.Change)
}

func TestBrandDroppedToZeroTrendsDown(t *testing.T) {
	f := newFixture()
	d1 := f.run("best online store builder", 1, dec2025, "")
	d2 := f.run("shopify alternatives", 1, dec2025, "")
	f.mention(d1, "shopify", 2, "positive")
	f.absent(d2, "shopify")
	j1 := f.run("best online store builder", 2, jan2026, "")
	f.run("shopify alternatives", 2, jan2026, "")
	f.mention(j1, "wix", 1, "positive")

	detail, err := GetBrand(&f.snap, "shopify", DefaultOptions(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0.0, detail.Visibility)
	assert.Equal(t, 50.0, detail.PreviousVisibility)
	assert.Equal(t, TrendDown, detail.Trend)
	assert.Equal(t, "neutral", detail.Sentiment)
	assert.Empty(t, detail.TopPrompts)
	assert.Equal(t, 1, detail.TotalMentions)
	assert.Equal(t, 1, detail.TotalPromptsMentionedIn)

	require.Len(t, detail.VisibilityByMonth, 5)
	assert.Equal(t, "Sep 2025", detail.VisibilityByMonth[0].Month)
	assert.Equal(t, "Dec 2025", detail.VisibilityByMonth[3].Month)
	assert.Equal(t, 50.0, detail.VisibilityByMonth[3].Visibility)
	assert.Equal(t, "2026-01", detail.VisibilityByMonth[4].Key)
	assert.Equal(t, 0.0, detail.VisibilityByMonth[4].Visibility)
}

func TestVisibilityDenominatorIsQueriesInBucket(t *testing.T) {
	f := newFixture()
	// Asked only in December, so it does not dilute January.
	f.run("old query", 1, dec2025, "")
	j1 := f.run("new query", 1, jan2026, "")
	j2 := f.run("new query", 2, jan2026, "")
	f.mention(j1, "wix", 2, "positive")
	f.absent(j2, "wix")

	brands := ListBrands(&f.snap, DefaultOptions(), time.Now())
	require.Len(t, brands, 2)
	assert.Equal(t, "wix", brands[0].ID)
	assert.Equal(t, 100.0, brands[0].Visibility)
	assert.Equal(t, 2.0, brands[0].AvgPosition)
	assert.Equal(t, "positive", brands[0].Sentiment)
	assert.Equal(t, TrendUp, brands[0].Trend)
}

func TestListBrandsPrimaryFirst(t *testing.T) {
	f := newFixture()
	p := f.run("ecommerce platforms", 1, jan2026, "")
	f.mention(p, "shopify", 1, "")
	f.absent(p, "wix")

	brands := ListBrands(&f.snap, DefaultOptions(), time.Now())
	require.Len(t, brands, 2)
	assert.Equal(t, "wix", brands[0].ID)
	assert.Equal(t, 0.0, brands[0].Visibility)
	assert.Equal(t, "shopify", brands[1].ID)
	assert.Equal(t, 100.0, brands[1].Visibility)
}

func TestTopPromptsBestPosition(t *testing.T) {
	f := newFixture()
	a1 := f.run("query a", 1, jan2026, "")
	a2 := f.run("query a", 2, jan2026, "")
	b1 := f.run("query b", 1, jan2026, "")
	c1 := f.run("query c", 1, jan2026, "")
	f.mention(a1, "wix", 4, "neutral")
	f.mention(a2, "wix", 2, "positive")
	f.mention(b1, "wix", 0, "")
	f.mention(c1, "wix", 1, "")

	detail, err := GetBrand(&f.snap, "wix", DefaultOptions(), time.Now())
	require.NoError(t, err)
	require.Len(t, detail.TopPrompts, 3)

	assert.Equal(t, "query c", detail.TopPrompts[0].Query)
	assert.Equal(t, 1, *detail.TopPrompts[0].Position)
	assert.Equal(t, "query a", detail.TopPrompts[1].Query)
	assert.Equal(t, 2, *detail.TopPrompts[1].Position)
	assert.Equal(t, "positive", detail.TopPrompts[1].Sentiment)
	assert.Equal(t, "query-1", detail.TopPrompts[1].QueryID)
	assert.Equal(t, "query b", detail.TopPrompts[2].Query)
	assert.Nil(t, detail.TopPrompts[2].Position)
}

func TestTopPromptsCapped(t *testing.T) {
	f := newFixture()
	for i := 0; i < 12; i++ {
		p := f.run(string(rune('a'+i))+" query", 1, jan2026, "")
		f.mention(p, "wix", i+1, "")
	}
	detail, err := GetBrand(&f.snap, "wix", DefaultOptions(), time.Now())
	require.NoError(t, err)
	assert.Len(t, detail.TopPrompts, 10)
}

func TestGetBrandNotFound(t *testing.T) {
	f := newFixture()
	_, err := GetBrand(&f.snap, "nope", DefaultOptions(), time.Now())
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestDominantSentiment(t *testing.T) {
	f := newFixture()
	p1 := f.run("q1", 1, jan2026, "")
	p2 := f.run("q2", 1, jan2026, "")
	p3 := f.run("q3", 1, jan2026, "")
	f.mention(p1, "shopify", 1, "negative")
	f.mention(p2, "shopify", 1, "positive")
	f.mention(p3, "shopify", 1, "positive")

	brands := ListBrands(&f.snap, DefaultOptions(), time.Now())
	assert.Equal(t, "positive", brands[1].Sentiment)
}

func TestVisibilitySeries(t *testing.T) {
	f := newFixture()
	d := f.run("q", 1, dec2025, "")
	j := f.run("q", 2, jan2026, "")
	f.mention(d, "wix", 1, "")
	f.mention(j, "shopify", 1, "")

	series := VisibilitySeries(&f.snap, Options{LookbackMonths: 3}, time.Now())
	require.Len(t, series, 3)
	assert.Equal(t, "Nov 2025", series[0].Month)
	assert.Equal(t, 0.0, series[0].Visibility["wix"])
	assert.Equal(t, 100.0, series[1].Visibility["wix"])
	assert.Equal(t, 0.0, series[1].Visibility["shopify"])
	assert.Equal(t, 100.0, series[2].Visibility["shopify"])
}

func TestWindowWithoutRuns(t *testing.T) {
	now := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	w := NewWindow(nil, 1, now)
	require.Len(t, w.Buckets, 2)
	assert.Equal(t, "Mar 2026", w.Current().Label())
	assert.Equal(t, "Feb 2026", w.Previous().Label())
}
