package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

const brandColumns = "id, name, type, color, variations, created_at"

// GetAllBrands returns every brand, primary first, then by name.
func (db *DB) GetAllBrands() ([]Brand, error) {
	return queryBrands(db.conn, "SELECT "+brandColumns+" FROM brands ORDER BY type = 'primary' DESC, name")
}

// GetBrand returns a single brand by ID, or nil if it does not exist.
func (db *DB) GetBrand(brandID string) (*Brand, error) {
	row := db.conn.QueryRow("SELECT "+brandColumns+" FROM brands WHERE id = ?", brandID)
	b, err := scanBrand(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// EnsureBrands inserts any of the given brands that are not stored yet.
// Existing rows are left untouched. Returns the number inserted.
func (db *DB) EnsureBrands(brands []Brand) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	inserted := 0
	for _, b := range brands {
		varJSON, err := marshalVariations(b.Variations)
		if err != nil {
			return 0, err
		}
		result, err := tx.Exec(
			`INSERT OR IGNORE INTO brands (id, name, type, color, variations) VALUES (?, ?, ?, ?, ?)`,
			b.ID, b.Name, b.Type, b.Color, varJSON,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting brand %s: %w", b.ID, err)
		}
		n, _ := result.RowsAffected()
		inserted += int(n)
	}
	return inserted, tx.Commit()
}

// InsertBrandWithMentions stores a new brand together with mention rows
// backfilled for existing prompts. Returns ErrDuplicate if the ID is taken.
func (db *DB) InsertBrandWithMentions(b Brand, mentions []Mention) error {
	varJSON, err := marshalVariations(b.Variations)
	if err != nil {
		return err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO brands (id, name, type, color, variations) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Type, b.Color, varJSON,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("brand %s: %w", b.ID, ErrDuplicate)
		}
		return err
	}

	for _, m := range mentions {
		if err := insertMention(tx, m); err != nil {
			return fmt.Errorf("inserting mention for prompt %d: %w", m.PromptID, err)
		}
	}

	return tx.Commit()
}

// DeleteBrand removes a brand and all of its mentions.
// Returns false if the brand did not exist.
func (db *DB) DeleteBrand(brandID string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM prompt_brand_mentions WHERE brand_id = ?", brandID); err != nil {
		return false, err
	}
	result, err := tx.Exec("DELETE FROM brands WHERE id = ?", brandID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return true, tx.Commit()
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func queryBrands(q queryer, query string, args ...any) ([]Brand, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brands []Brand
	for rows.Next() {
		var b Brand
		var varJSON *string
		if err := rows.Scan(&b.ID, &b.Name, &b.Type, &b.Color, &varJSON, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Variations = unmarshalVariations(varJSON)
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

func scanBrand(row *sql.Row) (*Brand, error) {
	var b Brand
	var varJSON *string
	if err := row.Scan(&b.ID, &b.Name, &b.Type, &b.Color, &varJSON, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Variations = unmarshalVariations(varJSON)
	return &b, nil
}

func marshalVariations(variations []string) (*string, error) {
	if variations == nil {
		return nil, nil
	}
	data, err := json.Marshal(variations)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func unmarshalVariations(varJSON *string) []string {
	if varJSON == nil {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(*varJSON), &out); err != nil {
		return nil
	}
	return out
}
