package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/google/uuid"
)

// ActivityStore persists the log events, session styles and project records
// read by the temporal and pattern engines.
type ActivityStore struct {
	db *DB
}

func NewActivityStore(db *DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) CreateEvent(ctx context.Context, e *domain.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		s.db.rebind(`INSERT INTO events (id, event_type, category, message, created) VALUES (?, ?, ?, ?, ?)`),
		e.ID, e.EventType, e.Category, e.Message, toMillis(e.Created))
	return err
}

// ListEventsBetween returns events created in [start, end), newest first.
// A non-positive limit returns all of them.
func (s *ActivityStore) ListEventsBetween(ctx context.Context, start, end time.Time, limit int) ([]domain.Event, error) {
	q := `SELECT id, event_type, category, message, created FROM events
		WHERE created >= ? AND created < ? ORDER BY created DESC`
	args := []any{toMillis(start), toMillis(end)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.db.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var created int64
		if err := rows.Scan(&e.ID, &e.EventType, &e.Category, &e.Message, &created); err != nil {
			return nil, err
		}
		e.Created = fromMillis(created)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *ActivityStore) CreateSession(ctx context.Context, sess *domain.Session) error {
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		s.db.rebind(`INSERT INTO sessions (id, style, started) VALUES (?, ?, ?)`),
		sess.ID, sess.Style, toMillis(sess.Started))
	return err
}

func (s *ActivityStore) ListSessionsSince(ctx context.Context, since time.Time) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.rebind(`SELECT id, style, started FROM sessions WHERE started >= ? ORDER BY started ASC`),
		toMillis(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var sess domain.Session
		var started int64
		if err := rows.Scan(&sess.ID, &sess.Style, &started); err != nil {
			return nil, err
		}
		sess.Started = fromMillis(started)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpsertProject inserts a project or refreshes the record with the same name.
// The original start time is kept on update.
func (s *ActivityStore) UpsertProject(ctx context.Context, p *domain.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	var started int64
	err := s.db.QueryRowContext(ctx, s.db.rebind(`
		INSERT INTO projects (id, name, status, started, last_active, ended)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET status = excluded.status, last_active = excluded.last_active, ended = excluded.ended
		RETURNING id, started`),
		p.ID, p.Name, p.Status, toMillis(p.Started), toMillis(p.LastActive), nullMillis(p.Ended),
	).Scan(&p.ID, &started)
	if err != nil {
		return err
	}
	p.Started = fromMillis(started)
	return nil
}

// ListProjectsActiveBetween returns projects whose activity overlaps
// [start, end), most recently active first.
func (s *ActivityStore) ListProjectsActiveBetween(ctx context.Context, start, end time.Time, limit int) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, s.db.rebind(`
		SELECT id, name, status, started, last_active, ended FROM projects
		WHERE started < ? AND COALESCE(ended, last_active) >= ?
		ORDER BY last_active DESC
		LIMIT ?`),
		toMillis(end), toMillis(start), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		var started, lastActive int64
		var ended sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &started, &lastActive, &ended); err != nil {
			return nil, err
		}
		p.Started = fromMillis(started)
		p.LastActive = fromMillis(lastActive)
		p.Ended = fromNullMillis(ended)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
