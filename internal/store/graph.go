package store

import (
	"context"
	"database/sql"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/google/uuid"
)

const relationColumns = `id, source_fact_id, target_fact_id, relation_type, created`

type RelationStore struct {
	db    *DB
	clock domain.Clock
}

func NewRelationStore(db *DB, clock domain.Clock) *RelationStore {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &RelationStore{db: db, clock: clock}
}

// Create inserts the edge unless the same (source, target, type) triple
// already exists, in which case r is overwritten with the stored edge.
// It reports whether a row was written.
func (s *RelationStore) Create(ctx context.Context, r *domain.Relation) (bool, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Created.IsZero() {
		r.Created = s.clock.Now()
	}
	res, err := s.db.ExecContext(ctx, s.db.rebind(`
		INSERT INTO relations (`+relationColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (source_fact_id, target_fact_id, relation_type) DO NOTHING`),
		r.ID, r.SourceFactID, r.TargetFactID, r.RelationType, toMillis(r.Created))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	row := s.db.QueryRowContext(ctx, s.db.rebind(`SELECT `+relationColumns+` FROM relations
		WHERE source_fact_id = ? AND target_fact_id = ? AND relation_type = ?`),
		r.SourceFactID, r.TargetFactID, r.RelationType)
	var created int64
	if err := row.Scan(&r.ID, &r.SourceFactID, &r.TargetFactID, &r.RelationType, &created); err != nil {
		return false, err
	}
	r.Created = fromMillis(created)
	return false, nil
}

func (s *RelationStore) Delete(ctx context.Context, sourceID, targetID uuid.UUID, relationType domain.RelationType) error {
	res, err := s.db.ExecContext(ctx,
		s.db.rebind(`DELETE FROM relations WHERE source_fact_id = ? AND target_fact_id = ? AND relation_type = ?`),
		sourceID, targetID, relationType)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RelationStore) ListOutgoing(ctx context.Context, factID uuid.UUID) ([]domain.Relation, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.rebind(`SELECT `+relationColumns+` FROM relations WHERE source_fact_id = ? ORDER BY created ASC, relation_type ASC`),
		factID)
	if err != nil {
		return nil, err
	}
	return scanRelations(rows)
}

func (s *RelationStore) ListIncoming(ctx context.Context, factID uuid.UUID) ([]domain.Relation, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.rebind(`SELECT `+relationColumns+` FROM relations WHERE target_fact_id = ? ORDER BY created ASC, relation_type ASC`),
		factID)
	if err != nil {
		return nil, err
	}
	return scanRelations(rows)
}

func scanRelations(rows *sql.Rows) ([]domain.Relation, error) {
	defer rows.Close()
	var rels []domain.Relation
	for rows.Next() {
		var r domain.Relation
		var created int64
		if err := rows.Scan(&r.ID, &r.SourceFactID, &r.TargetFactID, &r.RelationType, &created); err != nil {
			return nil, err
		}
		r.Created = fromMillis(created)
		rels = append(rels, r)
	}
	return rels, rows.Err()
}
