package database

import "fmt"

// Snapshot reads brands, prompts, mentions, sources and citations inside a
// single read transaction so every aggregation sees one consistent state.
func (db *DB) Snapshot() (*Snapshot, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	s := &Snapshot{}
	if s.Brands, err = queryBrands(tx, "SELECT "+brandColumns+" FROM brands ORDER BY type = 'primary' DESC, name"); err != nil {
		return nil, fmt.Errorf("reading brands: %w", err)
	}
	if s.Prompts, err = queryPrompts(tx); err != nil {
		return nil, fmt.Errorf("reading prompts: %w", err)
	}
	if s.Mentions, err = queryMentions(tx); err != nil {
		return nil, fmt.Errorf("reading mentions: %w", err)
	}
	if s.Sources, err = querySources(tx, "SELECT "+sourceColumns+" FROM sources ORDER BY id"); err != nil {
		return nil, fmt.Errorf("reading sources: %w", err)
	}
	if s.Citations, err = queryCitations(tx); err != nil {
		return nil, fmt.Errorf("reading citations: %w", err)
	}
	return s, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM brands", &s.Brands},
		{"SELECT COUNT(DISTINCT query) FROM prompts", &s.Queries},
		{"SELECT COUNT(*) FROM prompts", &s.Runs},
		{"SELECT COUNT(*) FROM prompt_brand_mentions WHERE mentioned = 1", &s.Mentions},
		{"SELECT COUNT(*) FROM sources", &s.Sources},
		{"SELECT COUNT(DISTINCT domain) FROM sources", &s.Domains},
		{"SELECT COUNT(*) FROM prompt_sources", &s.Citations},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
