package export

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aman-ray/tradescout/internal/model"
)

// SQLiteSink writes records into a single-table database. The unique
// dedupe_key index makes re-exports into an existing file idempotent.
type SQLiteSink struct {
	Path string
}

func (s *SQLiteSink) Name() string { return "sqlite" }

const schema = `
CREATE TABLE IF NOT EXISTS businesses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	place_name TEXT NOT NULL,
	category TEXT NOT NULL,
	rating REAL,
	review_count INTEGER NOT NULL,
	website TEXT,
	phone TEXT NOT NULL,
	address_full TEXT,
	locality TEXT,
	postal_code TEXT,
	lat REAL,
	lng REAL,
	maps_profile_url TEXT,
	source TEXT NOT NULL,
	scraped_at TEXT NOT NULL,
	dedupe_key TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_businesses_phone ON businesses(phone);
CREATE INDEX IF NOT EXISTS idx_businesses_review ON businesses(review_count);
CREATE INDEX IF NOT EXISTS idx_businesses_category ON businesses(category);
`

func (s *SQLiteSink) Write(records []model.BusinessRecord) error {
	db, err := openDB(s.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO businesses
		(place_name, category, rating, review_count, website, phone,
		 address_full, locality, postal_code, lat, lng, maps_profile_url,
		 source, scraped_at, dedupe_key)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing stmt: %w", err)
	}
	defer stmt.Close()

	for _, b := range records {
		var rating any
		if b.Rating != nil {
			rating = *b.Rating
		}
		if _, err := stmt.Exec(
			b.PlaceName, b.Category, rating, b.ReviewCount, b.Website, b.Phone,
			b.AddressFull, b.Locality, b.PostalCode, b.Lat, b.Lng,
			b.MapsProfileURL, b.Source, b.ScrapedAt.Format(time.RFC3339),
			b.DedupeKey,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting %q: %w", b.PlaceName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}
	return nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	// Write-throughput pragmas
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}
	return db, nil
}

// LoadSQLite reads every record back out of a run database, for re-encoding
// into the flat formats.
func LoadSQLite(path string) ([]model.BusinessRecord, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT place_name, category, rating, review_count, website, phone,
		       address_full, locality, postal_code, lat, lng,
		       maps_profile_url, source, scraped_at, dedupe_key
		FROM businesses ORDER BY place_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.BusinessRecord
	for rows.Next() {
		var b model.BusinessRecord
		var rating sql.NullFloat64
		var scrapedAt string
		if err := rows.Scan(
			&b.PlaceName, &b.Category, &rating, &b.ReviewCount, &b.Website,
			&b.Phone, &b.AddressFull, &b.Locality, &b.PostalCode, &b.Lat,
			&b.Lng, &b.MapsProfileURL, &b.Source, &scrapedAt, &b.DedupeKey,
		); err != nil {
			return nil, err
		}
		if rating.Valid {
			v := rating.Float64
			b.Rating = &v
		}
		if ts, err := time.Parse(time.RFC3339, scrapedAt); err == nil {
			b.ScrapedAt = ts
		}
		records = append(records, b)
	}
	return records, rows.Err()
}
