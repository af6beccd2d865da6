package database

import (
	"database/sql"
	"fmt"
	"time"
)

const sourceColumns = "id, url, domain, title, description, published_date"

// GetOrCreateSource returns the source with the given URL, inserting it first
// if needed. Metadata of an existing source is not overwritten.
func (db *DB) GetOrCreateSource(url, domain string, title, description, publishedDate *string) (*Source, error) {
	return getOrCreateSource(db.conn, Source{
		URL:           url,
		Domain:        domain,
		Title:         title,
		Description:   description,
		PublishedDate: publishedDate,
	})
}

// GetSourceByURL returns the source with the given URL, or nil.
func (db *DB) GetSourceByURL(url string) (*Source, error) {
	return getSourceByURL(db.conn, url)
}

type rowQueryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

type sourceStore interface {
	execer
	rowQueryer
}

func getOrCreateSource(w sourceStore, s Source) (*Source, error) {
	existing, err := getSourceByURL(w, s.URL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	result, err := w.Exec(
		`INSERT INTO sources (url, domain, title, description, published_date) VALUES (?, ?, ?, ?, ?)`,
		s.URL, s.Domain, s.Title, s.Description, s.PublishedDate,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting source %s: %w", s.URL, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	s.ID = id
	return &s, nil
}

func getSourceByURL(q rowQueryer, url string) (*Source, error) {
	row := q.QueryRow("SELECT "+sourceColumns+" FROM sources WHERE url = ?", url)
	var s Source
	if err := row.Scan(&s.ID, &s.URL, &s.Domain, &s.Title, &s.Description, &s.PublishedDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// InsertCitation links a prompt to a cited source. Re-citing the same
// source from the same prompt keeps the first citation order.
func (db *DB) InsertCitation(promptID, sourceID int64, citationOrder int) error {
	_, err := insertCitation(db.conn, promptID, sourceID, citationOrder)
	return err
}

func insertCitation(e execer, promptID, sourceID int64, citationOrder int) (bool, error) {
	result, err := e.Exec(
		`INSERT OR IGNORE INTO prompt_sources (prompt_id, source_id, citation_order) VALUES (?, ?, ?)`,
		promptID, sourceID, citationOrder,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// GetSourcesMissingMetadata returns sources lacking a title or description
// that have not been fetched yet.
func (db *DB) GetSourcesMissingMetadata(limit int) ([]Source, error) {
	query := "SELECT " + sourceColumns + ` FROM sources
		WHERE (title IS NULL OR title = '' OR description IS NULL OR description = '')
			AND metadata_checked_at IS NULL
		ORDER BY id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return querySources(db.conn, query, args...)
}

// UpdateSourceMetadata fills in title and description and marks the source
// as checked. Nil or empty values leave the stored column unchanged.
func (db *DB) UpdateSourceMetadata(sourceID int64, title, description *string) error {
	_, err := db.conn.Exec(
		`UPDATE sources SET
			title = COALESCE(NULLIF(?, ''), title),
			description = COALESCE(NULLIF(?, ''), description),
			metadata_checked_at = ?
		WHERE id = ?`,
		title, description, time.Now().UTC().Format(time.RFC3339), sourceID,
	)
	return err
}

// MarkSourceChecked records a fetch attempt that yielded no metadata, so the
// source is not selected again.
func (db *DB) MarkSourceChecked(sourceID int64) error {
	_, err := db.conn.Exec(
		`UPDATE sources SET metadata_checked_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), sourceID,
	)
	return err
}

func querySources(q queryer, query string, args ...any) ([]Source, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.URL, &s.Domain, &s.Title, &s.Description, &s.PublishedDate); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func queryCitations(q queryer) ([]Citation, error) {
	rows, err := q.Query(
		`SELECT prompt_id, source_id, citation_order FROM prompt_sources ORDER BY prompt_id, citation_order`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var citations []Citation
	for rows.Next() {
		var c Citation
		if err := rows.Scan(&c.PromptID, &c.SourceID, &c.CitationOrder); err != nil {
			return nil, err
		}
		citations = append(citations, c)
	}
	return citations, rows.Err()
}
