package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TobiSchelling/aiseo/internal/database"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		m    *database.Mention
		want float64
	}{
		{"nil mention", nil, 0},
		{"not mentioned", &database.Mention{Mentioned: false, Position: intPtr(1)}, 0},
		{"mentioned without position", &database.Mention{Mentioned: true}, 0},
		{"position zero", &database.Mention{Mentioned: true, Position: intPtr(0)}, 0},
		{"position 1", &database.Mention{Mentioned: true, Position: intPtr(1)}, 100},
		{"position 2", &database.Mention{Mentioned: true, Position: intPtr(2)}, 80},
		{"position 3", &database.Mention{Mentioned: true, Position: intPtr(3)}, 60},
		{"position 5", &database.Mention{Mentioned: true, Position: intPtr(5)}, 20},
		{"position 6", &database.Mention{Mentioned: true, Position: intPtr(6)}, 0},
		{"position 10 floors at zero", &database.Mention{Mentioned: true, Position: intPtr(10)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.m))
		})
	}
}

func TestScoreRunUsesPrimaryOnly(t *testing.T) {
	f := newFixture()
	p := f.run("best website builder", 1, jan2026, "")
	f.mention(p, "shopify", 1, "positive")
	f.absent(p, "wix")

	idx := newIndex(&f.snap)
	rs := scoreRun(idx, idx.snap.Prompts[0])
	assert.Equal(t, 0.0, rs.Visibility)
	assert.Equal(t, 0, rs.Position)
	assert.Equal(t, 1, rs.MentionCount)
}

func TestPercentGuardsZero(t *testing.T) {
	assert.Equal(t, 0.0, percent(3, 0))
	assert.Equal(t, 50.0, percent(1, 2))
	assert.Equal(t, 0.0, mean(nil))
}
