package store

import (
	"context"
	"database/sql"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/google/uuid"
)

const ledgerColumns = `id, fact_id, category, key, old_value, new_value, change_type, source, created`

// LedgerStore reads the change ledger. Entries are only written by FactStore.
type LedgerStore struct {
	db *DB
}

func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func insertLedgerTx(ctx context.Context, db *DB, tx *sql.Tx, e *domain.LedgerEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := tx.ExecContext(ctx, db.rebind(`INSERT INTO change_ledger (`+ledgerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.FactID, e.Category, e.Key, nullString(e.OldValue), e.NewValue,
		e.ChangeType, e.Source, toMillis(e.Created))
	return err
}

// List returns entries newest-first, optionally filtered by a case-insensitive
// substring of the key.
func (s *LedgerStore) List(ctx context.Context, keyword string, limit int) ([]domain.LedgerEntry, error) {
	q := `SELECT ` + ledgerColumns + ` FROM change_ledger`
	var args []any
	if keyword != "" {
		q += ` WHERE ` + s.db.lower("key") + ` LIKE ? ESCAPE '\'`
		args = append(args, likePattern(keyword))
	}
	q += ` ORDER BY created DESC, seq DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.db.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	return scanLedger(rows)
}

// ListByFact returns a fact's entries in the order they were written.
func (s *LedgerStore) ListByFact(ctx context.Context, factID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.rebind(`SELECT `+ledgerColumns+` FROM change_ledger WHERE fact_id = ? ORDER BY seq ASC`),
		factID)
	if err != nil {
		return nil, err
	}
	return scanLedger(rows)
}

func scanLedger(rows *sql.Rows) ([]domain.LedgerEntry, error) {
	defer rows.Close()
	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var old sql.NullString
		var created int64
		if err := rows.Scan(&e.ID, &e.FactID, &e.Category, &e.Key, &old, &e.NewValue,
			&e.ChangeType, &e.Source, &created); err != nil {
			return nil, err
		}
		e.OldValue = fromNullString(old)
		e.Created = fromMillis(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
