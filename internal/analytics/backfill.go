package analytics

import (
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/aiseo/internal/database"
)

const contextRadius = 50

// SynthesizeMentions scans every run's answer for a newly added brand and
// returns one mention per run where any of its variations appears.
//
// The result is a best-effort estimate, not ground truth. Matching is a
// case-insensitive substring search, so short names can match inside other
// words. The position is 1 plus the number of other brands whose first
// occurrence starts strictly earlier in the text; brands starting at the
// same offset share a position. Sentiment is always neutral.
func SynthesizeMentions(b database.Brand, others []database.Brand, runs []database.Prompt) []database.Mention {
	terms := b.MatchTerms()
	var out []database.Mention
	for _, p := range runs {
		at, n := firstOccurrence(p.ResponseText, terms)
		if at < 0 {
			continue
		}

		pos := 1
		for _, o := range others {
			if o.ID == b.ID {
				continue
			}
			if oa, _ := firstOccurrence(p.ResponseText, o.MatchTerms()); oa >= 0 && oa < at {
				pos++
			}
		}

		sentiment := defaultSentiment
		ctx := excerpt(p.ResponseText, at, n)
		out = append(out, database.Mention{
			PromptID:  p.ID,
			BrandID:   b.ID,
			Mentioned: true,
			Position:  &pos,
			Sentiment: &sentiment,
			Context:   &ctx,
		})
	}
	return out
}

// firstOccurrence returns the byte offset and length of the earliest match of
// any term. When several terms start at the same offset the longest wins.
func firstOccurrence(text string, terms []string) (int, int) {
	at, n := -1, 0
	for _, t := range terms {
		if t == "" {
			continue
		}
		i := indexFold(text, t)
		if i < 0 {
			continue
		}
		if at < 0 || i < at || (i == at && len(t) > n) {
			at, n = i, len(t)
		}
	}
	return at, n
}

// indexFold is strings.Index with Unicode case folding. Offsets refer to s.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if i > 0 && !utf8.RuneStart(s[i]) {
			continue
		}
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

// excerpt returns the match with up to contextRadius characters either side.
func excerpt(text string, at, n int) string {
	start := at
	for i := 0; i < contextRadius && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	end := min(len(text), at+n)
	for i := 0; i < contextRadius && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}
