package analytics

import (
	"math"

	"github.com/TobiSchelling/aiseo/internal/database"
)

// Score converts a mention into a 0-100 visibility score. Position 1 scores
// 100 and each later position loses 20 points, floored at 0. Unmentioned or
// unranked mentions score 0.
func Score(m *database.Mention) float64 {
	if m == nil || !m.Mentioned || m.Position == nil || *m.Position < 1 {
		return 0
	}
	return math.Max(0, 100-float64(*m.Position-1)*20)
}

// runScore is the per-run measurement of the primary brand.
type runScore struct {
	Visibility float64
	// Position is the primary brand's rank, 0 when it was not mentioned.
	Position     int
	MentionCount int
}

// scoreRun measures one run. Only the primary brand drives visibility and
// position; the mention count covers every brand mentioned in the run.
func scoreRun(idx *index, p database.Prompt) runScore {
	var rs runScore
	for _, m := range idx.mentionsByPrompt[p.ID] {
		if m.Mentioned {
			rs.MentionCount++
		}
	}
	if idx.primary == nil {
		return rs
	}
	m := idx.mention(p.ID, idx.primary.ID)
	rs.Visibility = Score(m)
	if m != nil && m.Mentioned && m.Position != nil && *m.Position >= 1 {
		rs.Position = *m.Position
	}
	return rs
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// round1 rounds to one decimal place for display.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
