package store

import (
	"database/sql"
	"errors"
)

const seededKey = "_seeded"

// runMigrations creates the schema.
func (s *Store) runMigrations() error {
	migrations := []string{
		// key/value tunables
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// model class id -> posture label
		`CREATE TABLE IF NOT EXISTS class_labels (
			class_id INTEGER PRIMARY KEY,
			label TEXT NOT NULL CHECK(label IN ('good', 'bad', 'unknown')),
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// camera sessions
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			strategy TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			stopped_at DATETIME
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// seed writes the default class labels the first time a database is opened.
// Labels deleted later stay deleted.
func (s *Store) seed() error {
	var v string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, seededKey).Scan(&v)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, label := range defaultClassLabels {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO class_labels (class_id, label) VALUES (?, ?)`,
			id, label,
		); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, '1')`, seededKey); err != nil {
		return err
	}

	return tx.Commit()
}
