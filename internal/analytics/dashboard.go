package analytics

import (
	"time"

	"github.com/TobiSchelling/aiseo/internal/database"
)

// Dashboard summarizes the primary brand for the current month against the
// previous one.
func Dashboard(snap *database.Snapshot, opts Options, now time.Time) DashboardKPIs {
	opts = opts.normalized()
	idx := newIndex(snap)
	w := NewWindow(idx.snap.Prompts, opts.LookbackMonths, now)

	kpis := DashboardKPIs{
		CurrentPeriod:  w.Current().Label(),
		PreviousPeriod: w.Previous().Label(),
		TotalQueries:   CountKPI{Value: len(idx.queries)},
	}

	if idx.primary != nil {
		cur := idx.brandBucket(idx.primary.ID, w.Current())
		prev := idx.brandBucket(idx.primary.ID, w.Previous())
		kpis.Visibility = PercentKPI{
			Value:  round1(cur.Visibility),
			Change: round1(round1(cur.Visibility) - round1(prev.Visibility)),
		}
		kpis.AvgPosition = PositionKPI{Value: round1(cur.AvgPosition)}
		if cur.AvgPosition > 0 && prev.AvgPosition > 0 {
			kpis.AvgPosition.Change = round1(prev.AvgPosition - cur.AvgPosition)
		}
	}

	curCites := idx.citationsIn(w.Current())
	prevCites := idx.citationsIn(w.Previous())
	kpis.TotalSources = CitationKPI{
		Value:  curCites,
		Change: curCites - prevCites,
		Total:  len(idx.snap.Sources),
	}
	return kpis
}

// citationsIn counts citation rows made by runs scraped during month m.
func (idx *index) citationsIn(m Month) int {
	n := 0
	for _, p := range idx.runsIn(m) {
		n += len(idx.citationsByRun[p.ID])
	}
	return n
}
