package store

import (
	"database/sql"
	"time"
)

// Session records one run of the drawing surface.
type Session struct {
	ID        int64
	StartedAt time.Time
	EndedAt   *time.Time
	Frames    int64
	Strokes   int64
	Dissolves int64
}

// SessionRepository provides access to session history.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Begin records a new session starting now and returns its id.
func (r *SessionRepository) Begin() (int64, error) {
	res, err := r.db.Exec(
		`INSERT INTO sessions (started_at) VALUES (?)`,
		time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Finish closes a session with its final counters.
func (r *SessionRepository) Finish(id int64, frames, strokes, dissolves int64) error {
	_, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, strokes = ?, dissolves = ?
		 WHERE id = ?`,
		time.Now(), frames, strokes, dissolves, id,
	)
	return err
}

// Recent returns up to limit sessions, newest first.
func (r *SessionRepository) Recent(limit int) ([]Session, error) {
	rows, err := r.db.Query(
		`SELECT id, started_at, ended_at, frames, strokes, dissolves
		 FROM sessions ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var ended sql.NullTime
		if err := rows.Scan(&s.ID, &s.StartedAt, &ended, &s.Frames, &s.Strokes, &s.Dissolves); err != nil {
			return nil, err
		}
		if ended.Valid {
			t := ended.Time
			s.EndedAt = &t
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
