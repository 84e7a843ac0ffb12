package store

import "fmt"

// migrate creates all tables if they don't exist. DDL is idempotent, so
// migrate runs unconditionally on every open.
func (s *SQLiteStore) migrate() error {
	statements := []string{
		// Contact directory consulted by the cross-reference resolver
		`CREATE TABLE IF NOT EXISTS contacts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			company    TEXT NOT NULL DEFAULT '',
			position   TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			type       TEXT NOT NULL DEFAULT 'individual',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(lower(name))`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(lower(email))`,

		// Analysis archive: one row per pipeline run, result as JSON
		`CREATE TABLE IF NOT EXISTS analyses (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL DEFAULT '',
			document    TEXT NOT NULL,
			result_json TEXT NOT NULL,
			analyzed_at DATETIME NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_analyses_analyzed_at ON analyses(analyzed_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}
