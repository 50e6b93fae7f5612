package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session records one period during which the camera was running.
type Session struct {
	ID        string     `json:"id"`
	Strategy  string     `json:"strategy"`
	StartedAt time.Time  `json:"started_at"`
	StoppedAt *time.Time `json:"stopped_at,omitempty"`
}

// SessionRepository records camera sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start records a new session.
func (r *SessionRepository) Start(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, strategy, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.Strategy, sess.StartedAt,
	)
	return err
}

// Stop marks the session as stopped now.
func (r *SessionRepository) Stop(id string) error {
	res, err := r.db.Exec(
		`UPDATE sessions SET stopped_at = ? WHERE id = ? AND stopped_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a session.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}
	var stopped sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, strategy, started_at, stopped_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Strategy, &sess.StartedAt, &stopped)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if stopped.Valid {
		sess.StoppedAt = &stopped.Time
	}
	return sess, nil
}

// Recent returns up to limit sessions, newest first.
func (r *SessionRepository) Recent(limit int) ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, strategy, started_at, stopped_at FROM sessions
		 ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess := &Session{}
		var stopped sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.Strategy, &sess.StartedAt, &stopped); err != nil {
			return nil, err
		}
		if stopped.Valid {
			sess.StoppedAt = &stopped.Time
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
