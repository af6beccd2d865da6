package database

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertPrompt stores a recorded run. Returns ErrDuplicate if the
// (query, run_number) pair already exists.
func (db *DB) InsertPrompt(query string, runNumber int, responseText string, scrapedAt time.Time) (int64, error) {
	return insertPrompt(db.conn, query, runNumber, responseText, scrapedAt)
}

func insertPrompt(e execer, query string, runNumber int, responseText string, scrapedAt time.Time) (int64, error) {
	result, err := e.Exec(
		`INSERT INTO prompts (query, run_number, response_text, scraped_at) VALUES (?, ?, ?, ?)`,
		query, runNumber, responseText, scrapedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("prompt %q run %d: %w", query, runNumber, ErrDuplicate)
		}
		return 0, err
	}
	return result.LastInsertId()
}

// InsertRun stores a run together with its mentions and cited sources in one
// transaction, so a failure leaves nothing behind. Sources are matched by URL
// and cited in slice order starting at 1; a URL cited twice keeps its first
// position. Returns the prompt ID and the number of citations written, or
// ErrDuplicate if the (query, run_number) pair already exists.
func (db *DB) InsertRun(p Prompt, mentions []Mention, sources []Source) (int64, int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	promptID, err := insertPrompt(tx, p.Query, p.RunNumber, p.ResponseText, p.ScrapedAt)
	if err != nil {
		return 0, 0, err
	}

	for _, m := range mentions {
		m.PromptID = promptID
		if err := insertMention(tx, m); err != nil {
			return 0, 0, fmt.Errorf("inserting mention of %s: %w", m.BrandID, err)
		}
	}

	cited := 0
	for i, s := range sources {
		src, err := getOrCreateSource(tx, s)
		if err != nil {
			return 0, 0, err
		}
		added, err := insertCitation(tx, promptID, src.ID, i+1)
		if err != nil {
			return 0, 0, fmt.Errorf("citing %s: %w", s.URL, err)
		}
		if added {
			cited++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return promptID, cited, nil
}

// GetPromptByQueryRun returns the run for a query and run number, or nil.
func (db *DB) GetPromptByQueryRun(query string, runNumber int) (*Prompt, error) {
	row := db.conn.QueryRow(
		`SELECT id, query, run_number, response_text, scraped_at
		FROM prompts WHERE query = ? AND run_number = ?`, query, runNumber,
	)
	var p Prompt
	var scrapedAt string
	if err := row.Scan(&p.ID, &p.Query, &p.RunNumber, &p.ResponseText, &scrapedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	t, err := parseTimestamp(scrapedAt)
	if err != nil {
		return nil, err
	}
	p.ScrapedAt = t
	return &p, nil
}

// GetAllPrompts returns every run ordered by query text, then run number.
func (db *DB) GetAllPrompts() ([]Prompt, error) {
	return queryPrompts(db.conn)
}

// InsertMention stores the mention of a brand in a prompt.
func (db *DB) InsertMention(m Mention) error {
	return insertMention(db.conn, m)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertMention(e execer, m Mention) error {
	mentioned := 0
	if m.Mentioned {
		mentioned = 1
	}
	_, err := e.Exec(
		`INSERT OR REPLACE INTO prompt_brand_mentions
		(prompt_id, brand_id, mentioned, position, sentiment, context)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.PromptID, m.BrandID, mentioned, m.Position, m.Sentiment, m.Context,
	)
	return err
}

func queryPrompts(q queryer) ([]Prompt, error) {
	rows, err := q.Query(
		`SELECT id, query, run_number, response_text, scraped_at
		FROM prompts ORDER BY query, run_number`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prompts []Prompt
	for rows.Next() {
		var p Prompt
		var scrapedAt string
		if err := rows.Scan(&p.ID, &p.Query, &p.RunNumber, &p.ResponseText, &scrapedAt); err != nil {
			return nil, err
		}
		t, err := parseTimestamp(scrapedAt)
		if err != nil {
			return nil, fmt.Errorf("prompt %d: %w", p.ID, err)
		}
		p.ScrapedAt = t
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

func queryMentions(q queryer) ([]Mention, error) {
	rows, err := q.Query(
		`SELECT id, prompt_id, brand_id, mentioned, position, sentiment, context
		FROM prompt_brand_mentions ORDER BY prompt_id, brand_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mentions []Mention
	for rows.Next() {
		var m Mention
		var mentioned int
		var position *int64
		if err := rows.Scan(&m.ID, &m.PromptID, &m.BrandID, &mentioned, &position, &m.Sentiment, &m.Context); err != nil {
			return nil, err
		}
		m.Mentioned = mentioned != 0
		if position != nil {
			p := int(*position)
			m.Position = &p
		}
		mentions = append(mentions, m)
	}
	return mentions, rows.Err()
}

// parseTimestamp accepts RFC 3339 and SQLite's datetime('now') layout.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
