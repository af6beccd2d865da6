package analytics

import "github.com/TobiSchelling/aiseo/internal/database"

// index holds lookup tables over one snapshot. It is built per call and
// never mutated afterwards.
type index struct {
	snap    *database.Snapshot
	primary *database.Brand

	brandsByID       map[string]*database.Brand
	promptsByID      map[int64]*database.Prompt
	mentionsByPrompt map[int64][]*database.Mention
	mentionsByBrand  map[string][]*database.Mention
	sourcesByID      map[int64]*database.Source
	citationsByRun   map[int64][]database.Citation
	citationsBySrc   map[int64][]database.Citation

	// queries in display order; queryIDs maps query text to its display number.
	queries  []*queryGroup
	queryIDs map[string]int
}

// queryGroup is every run sharing one query text, ordered by run number.
type queryGroup struct {
	DisplayID int
	Text      string
	Runs      []*database.Prompt
}

func newIndex(snap *database.Snapshot) *index {
	if snap == nil {
		snap = &database.Snapshot{}
	}
	idx := &index{
		snap:             snap,
		brandsByID:       make(map[string]*database.Brand, len(snap.Brands)),
		promptsByID:      make(map[int64]*database.Prompt, len(snap.Prompts)),
		mentionsByPrompt: make(map[int64][]*database.Mention),
		mentionsByBrand:  make(map[string][]*database.Mention),
		sourcesByID:      make(map[int64]*database.Source, len(snap.Sources)),
		citationsByRun:   make(map[int64][]database.Citation),
		citationsBySrc:   make(map[int64][]database.Citation),
		queryIDs:         make(map[string]int),
	}

	for i := range snap.Brands {
		b := &snap.Brands[i]
		idx.brandsByID[b.ID] = b
		if idx.primary == nil && b.IsPrimary() {
			idx.primary = b
		}
	}
	for i := range snap.Prompts {
		p := &snap.Prompts[i]
		idx.promptsByID[p.ID] = p
	}
	for i := range snap.Mentions {
		m := &snap.Mentions[i]
		if _, ok := idx.promptsByID[m.PromptID]; !ok {
			continue
		}
		idx.mentionsByPrompt[m.PromptID] = append(idx.mentionsByPrompt[m.PromptID], m)
		idx.mentionsByBrand[m.BrandID] = append(idx.mentionsByBrand[m.BrandID], m)
	}
	for i := range snap.Sources {
		s := &snap.Sources[i]
		idx.sourcesByID[s.ID] = s
	}
	for _, c := range snap.Citations {
		if _, ok := idx.promptsByID[c.PromptID]; !ok {
			continue
		}
		if _, ok := idx.sourcesByID[c.SourceID]; !ok {
			continue
		}
		idx.citationsByRun[c.PromptID] = append(idx.citationsByRun[c.PromptID], c)
		idx.citationsBySrc[c.SourceID] = append(idx.citationsBySrc[c.SourceID], c)
	}

	idx.groupQueries()
	return idx
}

// mention returns the mention of brandID in a prompt, or nil if none was
// recorded (treated as not mentioned).
func (idx *index) mention(promptID int64, brandID string) *database.Mention {
	for _, m := range idx.mentionsByPrompt[promptID] {
		if m.BrandID == brandID {
			return m
		}
	}
	return nil
}

func (idx *index) queryOf(promptID int64) string {
	if p, ok := idx.promptsByID[promptID]; ok {
		return p.Query
	}
	return ""
}
