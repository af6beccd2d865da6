package analytics

import (
	"sort"
	"time"

	"github.com/TobiSchelling/aiseo/internal/database"
)

// bucketStats is a brand's measurement over the runs of one month.
type bucketStats struct {
	Visibility  float64
	AvgPosition float64
	Sentiment   string
	// Mentioned holds the brand's positive mentions inside the bucket.
	Mentioned []*database.Mention
}

// runsIn returns the runs scraped during month m.
func (idx *index) runsIn(m Month) []*database.Prompt {
	var out []*database.Prompt
	for i := range idx.snap.Prompts {
		p := &idx.snap.Prompts[i]
		if m.Contains(p.ScrapedAt) {
			out = append(out, p)
		}
	}
	return out
}

// brandBucket computes visibility as the share of distinct queries asked in
// the bucket for which at least one run mentioned the brand.
func (idx *index) brandBucket(brandID string, m Month) bucketStats {
	st := bucketStats{Sentiment: defaultSentiment}

	asked := make(map[string]struct{})
	hit := make(map[string]struct{})
	for _, p := range idx.runsIn(m) {
		asked[p.Query] = struct{}{}
		mn := idx.mention(p.ID, brandID)
		if mn == nil || !mn.Mentioned {
			continue
		}
		hit[p.Query] = struct{}{}
		st.Mentioned = append(st.Mentioned, mn)
	}
	st.Visibility = percent(len(hit), len(asked))

	var positions []float64
	for _, mn := range st.Mentioned {
		if mn.Position != nil {
			positions = append(positions, float64(*mn.Position))
		}
	}
	st.AvgPosition = mean(positions)
	st.Sentiment = dominantSentiment(st.Mentioned)
	return st
}

// dominantSentiment returns the most frequent non-empty sentiment. Ties go
// to the value seen first.
func dominantSentiment(mentions []*database.Mention) string {
	counts := make(map[string]int)
	var order []string
	for _, m := range mentions {
		if m.Sentiment == nil || *m.Sentiment == "" {
			continue
		}
		s := *m.Sentiment
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	best, bestN := defaultSentiment, 0
	for _, s := range order {
		if counts[s] > bestN {
			best, bestN = s, counts[s]
		}
	}
	return best
}

// trendEpsilon absorbs float error in percentages such as 29/50*100.
const trendEpsilon = 1e-9

// ClassifyTrend compares two visibilities. Changes within band percentage
// points, inclusive, are stable.
func ClassifyTrend(current, previous, band float64) string {
	d := current - previous
	switch {
	case d > band+trendEpsilon:
		return TrendUp
	case d < -band-trendEpsilon:
		return TrendDown
	default:
		return TrendStable
	}
}

func (idx *index) brandSummary(b *database.Brand, w Window, opts Options) (BrandSummary, bucketStats, bucketStats) {
	cur := idx.brandBucket(b.ID, w.Current())
	prev := idx.brandBucket(b.ID, w.Previous())
	return BrandSummary{
		ID:          b.ID,
		Name:        b.Name,
		Type:        b.Type,
		Color:       b.Color,
		Visibility:  round1(cur.Visibility),
		AvgPosition: round1(cur.AvgPosition),
		Trend:       ClassifyTrend(cur.Visibility, prev.Visibility, opts.TrendBand),
		Sentiment:   cur.Sentiment,
	}, cur, prev
}

// ListBrands returns every brand's current-month summary, primary brand
// first, then by descending visibility.
func ListBrands(snap *database.Snapshot, opts Options, now time.Time) []BrandSummary {
	opts = opts.normalized()
	idx := newIndex(snap)
	w := NewWindow(idx.snap.Prompts, opts.LookbackMonths, now)

	out := make([]BrandSummary, 0, len(idx.snap.Brands))
	for i := range idx.snap.Brands {
		s, _, _ := idx.brandSummary(&idx.snap.Brands[i], w, opts)
		out = append(out, s)
	}
	sortBrandSummaries(out)
	return out
}

func sortBrandSummaries(out []BrandSummary) {
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Type == database.BrandPrimary, out[j].Type == database.BrandPrimary
		if pi != pj {
			return pi
		}
		return out[i].Visibility > out[j].Visibility
	})
}

// GetBrand returns a brand's summary with its history, all-time mention
// totals and the queries where it ranked best this month.
func GetBrand(snap *database.Snapshot, brandID string, opts Options, now time.Time) (*BrandDetail, error) {
	opts = opts.normalized()
	idx := newIndex(snap)
	b, ok := idx.brandsByID[brandID]
	if !ok {
		return nil, newError(KindNotFound, "brand %s not found", brandID)
	}
	w := NewWindow(idx.snap.Prompts, opts.LookbackMonths, now)
	summary, cur, prev := idx.brandSummary(b, w, opts)

	detail := &BrandDetail{
		BrandSummary:       summary,
		Variations:         b.MatchTerms(),
		PreviousVisibility: round1(prev.Visibility),
		TopPrompts:         idx.topPrompts(cur.Mentioned, opts.TopPrompts),
		VisibilityByMonth:  idx.monthlyVisibility(b.ID, w),
	}

	queries := make(map[string]struct{})
	for _, m := range idx.mentionsByBrand[b.ID] {
		if !m.Mentioned {
			continue
		}
		detail.TotalMentions++
		queries[idx.queryOf(m.PromptID)] = struct{}{}
	}
	detail.TotalPromptsMentionedIn = len(queries)
	return detail, nil
}

func (idx *index) monthlyVisibility(brandID string, w Window) []MonthlyVisibility {
	out := make([]MonthlyVisibility, 0, len(w.Buckets))
	for _, m := range w.Buckets {
		out = append(out, MonthlyVisibility{
			Month:      m.Label(),
			Key:        m.Key(),
			Visibility: round1(idx.brandBucket(brandID, m).Visibility),
		})
	}
	return out
}

// topPrompts keeps, per query, the mention with the best (lowest) position,
// then orders by position with unranked mentions last.
func (idx *index) topPrompts(mentions []*database.Mention, limit int) []TopPrompt {
	best := make(map[string]*database.Mention)
	var order []string
	for _, m := range mentions {
		q := idx.queryOf(m.PromptID)
		cur, seen := best[q]
		if !seen {
			order = append(order, q)
			best[q] = m
			continue
		}
		if betterPosition(m.Position, cur.Position) {
			best[q] = m
		}
	}

	out := make([]TopPrompt, 0, len(order))
	for _, q := range order {
		m := best[q]
		tp := TopPrompt{
			QueryID:   FormatQueryID(idx.queryIDs[q]),
			Query:     q,
			Position:  m.Position,
			Sentiment: defaultSentiment,
		}
		if m.Sentiment != nil && *m.Sentiment != "" {
			tp.Sentiment = *m.Sentiment
		}
		if m.Context != nil {
			tp.Context = *m.Context
		}
		out = append(out, tp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return betterPosition(out[i].Position, out[j].Position)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// betterPosition reports whether a ranks strictly ahead of b. A nil position
// ranks after every concrete one.
func betterPosition(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

// VisibilitySeries returns one point per window month with every brand's
// visibility in that month.
func VisibilitySeries(snap *database.Snapshot, opts Options, now time.Time) []SeriesPoint {
	opts = opts.normalized()
	idx := newIndex(snap)
	w := NewWindow(idx.snap.Prompts, opts.LookbackMonths, now)

	out := make([]SeriesPoint, 0, len(w.Buckets))
	for _, m := range w.Buckets {
		pt := SeriesPoint{
			Month:      m.Label(),
			Key:        m.Key(),
			Visibility: make(map[string]float64, len(idx.snap.Brands)),
		}
		for _, b := range idx.snap.Brands {
			pt.Visibility[b.ID] = round1(idx.brandBucket(b.ID, m).Visibility)
		}
		out = append(out, pt)
	}
	return out
}
