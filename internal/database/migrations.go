package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS brands (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    type TEXT NOT NULL CHECK(type IN ('primary', 'competitor')),
    color TEXT NOT NULL DEFAULT '',
    variations TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS prompts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    query TEXT NOT NULL,
    run_number INTEGER NOT NULL DEFAULT 1,
    response_text TEXT NOT NULL DEFAULT '',
    scraped_at TEXT NOT NULL,
    UNIQUE(query, run_number)
);

CREATE TABLE IF NOT EXISTS prompt_brand_mentions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    prompt_id INTEGER NOT NULL REFERENCES prompts(id),
    brand_id TEXT NOT NULL REFERENCES brands(id),
    mentioned INTEGER NOT NULL DEFAULT 0,
    position INTEGER,
    sentiment TEXT CHECK(sentiment IS NULL OR sentiment IN ('positive', 'neutral', 'negative')),
    context TEXT,
    UNIQUE(prompt_id, brand_id)
);

CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT UNIQUE NOT NULL,
    domain TEXT NOT NULL,
    title TEXT,
    description TEXT,
    published_date TEXT
);

CREATE TABLE IF NOT EXISTS prompt_sources (
    prompt_id INTEGER NOT NULL REFERENCES prompts(id),
    source_id INTEGER NOT NULL REFERENCES sources(id),
    citation_order INTEGER NOT NULL,
    PRIMARY KEY (prompt_id, source_id)
);

CREATE INDEX IF NOT EXISTS idx_prompts_query ON prompts(query);
CREATE INDEX IF NOT EXISTS idx_mentions_prompt ON prompt_brand_mentions(prompt_id);
CREATE INDEX IF NOT EXISTS idx_mentions_brand ON prompt_brand_mentions(brand_id);
CREATE INDEX IF NOT EXISTS idx_sources_domain ON sources(domain);
CREATE INDEX IF NOT EXISTS idx_prompt_sources_source ON prompt_sources(source_id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "track source metadata fetch attempts",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE sources ADD COLUMN metadata_checked_at TEXT`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
