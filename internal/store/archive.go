package store

import (
	"context"
	"database/sql"

	"github.com/Harshitk-cp/factstore/internal/domain"
)

// ArchiveStore reads the forgetting archive. Rows are written by FactStore.Archive.
type ArchiveStore struct {
	db *DB
}

func NewArchiveStore(db *DB) *ArchiveStore {
	return &ArchiveStore{db: db}
}

func (s *ArchiveStore) List(ctx context.Context, limit int) ([]domain.ArchiveEntry, error) {
	q := `SELECT id, original_fact_id, category, key, value, original_confidence,
		final_confidence, days_unused, archived_date, reason
		FROM forgetting_archive ORDER BY archived_date DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.db.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	return scanArchive(rows)
}

func scanArchive(rows *sql.Rows) ([]domain.ArchiveEntry, error) {
	defer rows.Close()
	var entries []domain.ArchiveEntry
	for rows.Next() {
		var e domain.ArchiveEntry
		var archived int64
		if err := rows.Scan(&e.ID, &e.OriginalFactID, &e.Category, &e.Key, &e.Value,
			&e.OriginalConfidence, &e.FinalConfidence, &e.DaysUnused, &archived, &e.Reason); err != nil {
			return nil, err
		}
		e.ArchivedDate = fromMillis(archived)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
