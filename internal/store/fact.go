package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const factColumns = `id, category, key, value, source, confidence, scope, tier, expires_at,
	last_verified, source_type, access_count, last_accessed, created, updated`

const ledgerSourceConsolidation = "consolidation"

// FactStore persists facts and writes their ledger entries in the same
// transaction as each row change. Committed changes are mirrored into the
// search index when one is configured.
type FactStore struct {
	db     *DB
	index  domain.SearchIndex
	clock  domain.Clock
	logger *zap.Logger
}

func NewFactStore(db *DB, index domain.SearchIndex, clock domain.Clock, logger *zap.Logger) *FactStore {
	if clock == nil {
		clock = domain.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FactStore{db: db, index: index, clock: clock, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFact(row rowScanner) (*domain.Fact, error) {
	var f domain.Fact
	var expiresAt, lastVerified, lastAcc sql.NullInt64
	var created, updated int64
	err := row.Scan(&f.ID, &f.Category, &f.Key, &f.Value, &f.Source, &f.Confidence,
		&f.Scope, &f.Tier, &expiresAt, &lastVerified, &f.SourceType, &f.AccessCount,
		&lastAcc, &created, &updated)
	if err != nil {
		return nil, err
	}
	f.ExpiresAt = fromNullMillis(expiresAt)
	f.LastVerified = fromNullMillis(lastVerified)
	f.LastAccessed = fromNullMillis(lastAcc)
	f.Created = fromMillis(created)
	f.Updated = fromMillis(updated)
	return &f, nil
}

func scanFacts(rows *sql.Rows) ([]domain.Fact, error) {
	defer rows.Close()
	var facts []domain.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, *f)
	}
	return facts, rows.Err()
}

// Upsert inserts the fact or applies it to the existing (category, key) row.
// An unchanged value only refreshes last_verified and confidence; a changed
// value overwrites the row and appends an "updated" ledger entry.
func (s *FactStore) Upsert(ctx context.Context, f *domain.Fact) (*domain.UpsertResult, error) {
	now := s.clock.Now()
	var result *domain.UpsertResult

	err := s.db.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.getByKeyTx(ctx, tx, f.Category, f.Key)
		switch {
		case errors.Is(err, ErrNotFound):
			f.ID = uuid.New()
			f.Created = now
			f.Updated = now
			f.LastVerified = &now
			if err := s.insertTx(ctx, tx, f); err != nil {
				return err
			}
			result = &domain.UpsertResult{Fact: f, Outcome: domain.UpsertCreated}
			return insertLedgerTx(ctx, s.db, tx, &domain.LedgerEntry{
				FactID:     f.ID,
				Category:   f.Category,
				Key:        f.Key,
				NewValue:   f.Value,
				ChangeType: domain.ChangeCreated,
				Source:     f.Source,
				Created:    now,
			})
		case err != nil:
			return err
		case existing.Value == f.Value:
			if f.Confidence > existing.Confidence {
				existing.Confidence = f.Confidence
			}
			existing.LastVerified = &now
			_, err := tx.ExecContext(ctx,
				s.db.rebind(`UPDATE facts SET last_verified = ?, confidence = ? WHERE id = ?`),
				toMillis(now), existing.Confidence, existing.ID)
			if err != nil {
				return err
			}
			*f = *existing
			result = &domain.UpsertResult{Fact: f, Outcome: domain.UpsertTouched}
			return nil
		default:
			old := existing.Value
			f.ID = existing.ID
			f.Created = existing.Created
			f.AccessCount = existing.AccessCount
			f.LastAccessed = existing.LastAccessed
			f.Updated = now
			f.LastVerified = &now
			_, err := tx.ExecContext(ctx, s.db.rebind(`
				UPDATE facts SET value = ?, source = ?, confidence = ?, scope = ?, tier = ?,
					expires_at = ?, source_type = ?, last_verified = ?, updated = ?
				WHERE id = ?`),
				f.Value, f.Source, f.Confidence, f.Scope, f.Tier, nullMillis(f.ExpiresAt),
				f.SourceType, toMillis(now), toMillis(now), f.ID)
			if err != nil {
				return err
			}
			result = &domain.UpsertResult{Fact: f, Outcome: domain.UpsertUpdated, OldValue: &old}
			return insertLedgerTx(ctx, s.db, tx, &domain.LedgerEntry{
				FactID:     f.ID,
				Category:   f.Category,
				Key:        f.Key,
				OldValue:   &old,
				NewValue:   f.Value,
				ChangeType: domain.ChangeUpdated,
				Source:     f.Source,
				Created:    now,
			})
		}
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if result.Outcome != domain.UpsertTouched {
		s.mirrorIndex(result.Fact)
	}
	return result, nil
}

func (s *FactStore) insertTx(ctx context.Context, tx *sql.Tx, f *domain.Fact) error {
	_, err := tx.ExecContext(ctx, s.db.rebind(`INSERT INTO facts (`+factColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		f.ID, f.Category, f.Key, f.Value, f.Source, f.Confidence, f.Scope, f.Tier,
		nullMillis(f.ExpiresAt), nullMillis(f.LastVerified), f.SourceType, f.AccessCount,
		nullMillis(f.LastAccessed), toMillis(f.Created), toMillis(f.Updated))
	return err
}

func (s *FactStore) getByKeyTx(ctx context.Context, tx *sql.Tx, category, key string) (*domain.Fact, error) {
	row := tx.QueryRowContext(ctx,
		s.db.rebind(`SELECT `+factColumns+` FROM facts WHERE category = ? AND key = ?`+s.db.forUpdate()),
		category, key)
	f, err := scanFact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *FactStore) GetByKey(ctx context.Context, category, key string) (*domain.Fact, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.rebind(`SELECT `+factColumns+` FROM facts WHERE category = ? AND key = ?`),
		category, key)
	f, err := scanFact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *FactStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fact, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.rebind(`SELECT `+factColumns+` FROM facts WHERE id = ?`), id)
	f, err := scanFact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

// GetByIDs returns the facts that still exist, in no particular order.
func (s *FactStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Fact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		s.db.rebind(`SELECT `+factColumns+` FROM facts WHERE id IN (`+placeholders(len(ids))+`)`),
		args...)
	if err != nil {
		return nil, err
	}
	return scanFacts(rows)
}

// Delete removes the fact; its relations and ledger entries cascade.
func (s *FactStore) Delete(ctx context.Context, category, key string) error {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx,
		s.db.rebind(`DELETE FROM facts WHERE category = ? AND key = ? RETURNING id`),
		category, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.unindex(id)
	return nil
}

func (s *FactStore) List(ctx context.Context, filter domain.FactFilter) ([]domain.Fact, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Scope != "" {
		where = append(where, "scope = ?")
		args = append(args, filter.Scope)
	}
	if filter.Tier != "" {
		where = append(where, "tier = ?")
		args = append(args, filter.Tier)
	}

	q := `SELECT ` + factColumns + ` FROM facts`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	switch filter.Order {
	case domain.OrderByRecent:
		q += ` ORDER BY updated DESC, created DESC, key ASC`
	default:
		q += ` ORDER BY category ASC, key ASC`
	}
	if filter.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.db.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	return scanFacts(rows)
}

// DeleteExpiredWorking removes working-tier facts whose expiry has passed.
// Facts without expires_at are never removed here.
func (s *FactStore) DeleteExpiredWorking(ctx context.Context, now time.Time) (int64, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.rebind(`DELETE FROM facts WHERE tier = ? AND expires_at IS NOT NULL AND expires_at <= ? RETURNING id`),
		domain.TierWorking, toMillis(now))
	if err != nil {
		return 0, err
	}
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.unindex(id)
	}
	return int64(len(ids)), nil
}

// TrackAccess bumps access_count and last_accessed without touching the ledger.
func (s *FactStore) TrackAccess(ctx context.Context, id uuid.UUID) (*domain.Fact, error) {
	res, err := s.db.ExecContext(ctx,
		s.db.rebind(`UPDATE facts SET access_count = access_count + 1, last_accessed = ? WHERE id = ?`),
		toMillis(s.clock.Now()), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *FactStore) UpdateConfidence(ctx context.Context, id uuid.UUID, confidence float64) error {
	return s.execOne(ctx, `UPDATE facts SET confidence = ? WHERE id = ?`, confidence, id)
}

func (s *FactStore) UpdateTier(ctx context.Context, id uuid.UUID, tier domain.Tier) error {
	return s.execOne(ctx, `UPDATE facts SET tier = ? WHERE id = ?`, tier, id)
}

func (s *FactStore) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind(query), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateValue rewrites a fact's value and records the transition.
func (s *FactStore) UpdateValue(ctx context.Context, id uuid.UUID, value, source string) error {
	now := s.clock.Now()
	var updated *domain.Fact

	err := s.db.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			s.db.rebind(`SELECT `+factColumns+` FROM facts WHERE id = ?`+s.db.forUpdate()), id)
		f, err := scanFact(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if f.Value == value {
			return nil
		}
		old := f.Value
		if _, err := tx.ExecContext(ctx,
			s.db.rebind(`UPDATE facts SET value = ?, updated = ? WHERE id = ?`),
			value, toMillis(now), id); err != nil {
			return err
		}
		f.Value = value
		f.Updated = now
		updated = f
		return insertLedgerTx(ctx, s.db, tx, &domain.LedgerEntry{
			FactID:     f.ID,
			Category:   f.Category,
			Key:        f.Key,
			OldValue:   &old,
			NewValue:   value,
			ChangeType: domain.ChangeUpdated,
			Source:     source,
			Created:    now,
		})
	})
	if err != nil {
		return err
	}
	if updated != nil {
		s.mirrorIndex(updated)
	}
	return nil
}

// Merge replaces the source facts with merged in one transaction. Relations
// of the sources are cascade-deleted with them.
func (s *FactStore) Merge(ctx context.Context, sourceIDs []uuid.UUID, merged *domain.Fact) error {
	if len(sourceIDs) == 0 {
		return errors.New("merge requires at least one source fact")
	}
	now := s.clock.Now()
	if merged.ID == uuid.Nil {
		merged.ID = uuid.New()
	}
	merged.Created = now
	merged.Updated = now

	err := s.db.inTx(ctx, func(tx *sql.Tx) error {
		args := make([]any, len(sourceIDs))
		for i, id := range sourceIDs {
			args[i] = id
		}
		res, err := tx.ExecContext(ctx,
			s.db.rebind(`DELETE FROM facts WHERE id IN (`+placeholders(len(sourceIDs))+`)`), args...)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n != int64(len(sourceIDs)) {
			return fmt.Errorf("%w: %d of %d source facts present", ErrConflict, n, len(sourceIDs))
		}
		if err := s.insertTx(ctx, tx, merged); err != nil {
			return err
		}
		return insertLedgerTx(ctx, s.db, tx, &domain.LedgerEntry{
			FactID:     merged.ID,
			Category:   merged.Category,
			Key:        merged.Key,
			NewValue:   merged.Value,
			ChangeType: domain.ChangeCreated,
			Source:     ledgerSourceConsolidation,
			Created:    now,
		})
	})
	if err != nil {
		return err
	}

	for _, id := range sourceIDs {
		s.unindex(id)
	}
	s.mirrorIndex(merged)
	return nil
}

// Archive copies the fact into the forgetting archive and deletes it.
func (s *FactStore) Archive(ctx context.Context, entry *domain.ArchiveEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ArchivedDate.IsZero() {
		entry.ArchivedDate = s.clock.Now()
	}

	err := s.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.db.rebind(`
			INSERT INTO forgetting_archive (id, original_fact_id, category, key, value,
				original_confidence, final_confidence, days_unused, archived_date, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			entry.ID, entry.OriginalFactID, entry.Category, entry.Key, entry.Value,
			entry.OriginalConfidence, entry.FinalConfidence, entry.DaysUnused,
			toMillis(entry.ArchivedDate), entry.Reason); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM facts WHERE id = ?`), entry.OriginalFactID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.unindex(entry.OriginalFactID)
	return nil
}

// SearchSubstring matches the raw query against key or value, ignoring case.
func (s *FactStore) SearchSubstring(ctx context.Context, query string, limit int) ([]domain.Fact, error) {
	pattern := likePattern(query)
	rows, err := s.db.QueryContext(ctx, s.db.rebind(`
		SELECT `+factColumns+` FROM facts
		WHERE `+s.db.lower("key")+` LIKE ? ESCAPE '\' OR `+s.db.lower("value")+` LIKE ? ESCAPE '\'
		ORDER BY updated DESC
		LIMIT ?`),
		pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	return scanFacts(rows)
}

func (s *FactStore) ListUpdatedBetween(ctx context.Context, start, end time.Time, limit int) ([]domain.Fact, error) {
	rows, err := s.db.QueryContext(ctx, s.db.rebind(`
		SELECT `+factColumns+` FROM facts
		WHERE updated >= ? AND updated < ?
		ORDER BY updated DESC
		LIMIT ?`),
		toMillis(start), toMillis(end), limit)
	if err != nil {
		return nil, err
	}
	return scanFacts(rows)
}

// RebuildIndex reloads every live fact into the search index.
func (s *FactStore) RebuildIndex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	facts, err := s.List(ctx, domain.FactFilter{})
	if err != nil {
		return 0, err
	}
	if err := s.index.Rebuild(facts); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	return len(facts), nil
}

// The row change has already committed by the time the index is touched, so
// index failures are logged and searches fall back to substring matching.
func (s *FactStore) mirrorIndex(f *domain.Fact) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(f); err != nil {
		s.logger.Warn("failed to index fact", zap.String("fact_id", f.ID.String()), zap.Error(err))
	}
}

func (s *FactStore) unindex(id uuid.UUID) {
	if s.index == nil {
		return
	}
	if err := s.index.Delete(id); err != nil {
		s.logger.Warn("failed to remove fact from index", zap.String("fact_id", id.String()), zap.Error(err))
	}
}
