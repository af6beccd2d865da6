package analytics

import (
	"time"

	"github.com/TobiSchelling/aiseo/internal/database"
)

// Month is a calendar month bucket in UTC.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the bucket containing t.
func MonthOf(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

// Add returns the month n months after m (n may be negative).
func (m Month) Add(n int) Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

// Contains reports whether t falls inside the month.
func (m Month) Contains(t time.Time) bool {
	return MonthOf(t) == m
}

// Label formats the month for display, e.g. "Jan 2026".
func (m Month) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// Key formats the month as YYYY-MM.
func (m Month) Key() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Window is a run of consecutive month buckets, oldest first, ending at the
// current month.
type Window struct {
	Buckets []Month
}

// NewWindow derives the window from the data: the current month is the month
// of the latest run, or the month of now when there are no runs.
func NewWindow(prompts []database.Prompt, lookback int, now time.Time) Window {
	if lookback < 2 {
		lookback = 2
	}
	current := MonthOf(now)
	var latest time.Time
	for _, p := range prompts {
		if p.ScrapedAt.After(latest) {
			latest = p.ScrapedAt
		}
	}
	if !latest.IsZero() {
		current = MonthOf(latest)
	}

	w := Window{Buckets: make([]Month, lookback)}
	for i := 0; i < lookback; i++ {
		w.Buckets[i] = current.Add(i - lookback + 1)
	}
	return w
}

// Current returns the most recent bucket.
func (w Window) Current() Month {
	return w.Buckets[len(w.Buckets)-1]
}

// Previous returns the bucket before the current one.
func (w Window) Previous() Month {
	return w.Buckets[len(w.Buckets)-2]
}
