package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/Harshitk-cp/factstore/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrFactNotFound     = errors.New("fact not found")
	ErrFactConflict     = errors.New("fact was modified concurrently")
	ErrSearchQueryEmpty = errors.New("query is required")
)

const (
	DefaultListLimit   = 100
	DefaultSearchLimit = 20
)

// FactService is the entry point for manual edits and ingestion-apply. Both
// paths go through the same store upsert so the ledger rule holds for each.
type FactService struct {
	store  domain.FactStore
	ledger domain.LedgerStore
	index  domain.SearchIndex
	clock  domain.Clock
	logger *zap.Logger
}

func NewFactService(fs domain.FactStore, ls domain.LedgerStore, index domain.SearchIndex, clock domain.Clock, logger *zap.Logger) *FactService {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &FactService{
		store:  fs,
		ledger: ls,
		index:  index,
		clock:  clock,
		logger: logger,
	}
}

func (s *FactService) Upsert(ctx context.Context, f *domain.Fact) (*domain.UpsertResult, error) {
	f.ApplyDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	res, err := s.store.Upsert(ctx, f)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if res.Outcome != domain.UpsertTouched {
		s.logger.Debug("fact written",
			zap.String("ref", f.Ref()),
			zap.String("outcome", string(res.Outcome)))
	}
	return res, nil
}

// ApplyExtracted validates every candidate before writing any of them.
func (s *FactService) ApplyExtracted(ctx context.Context, candidates []domain.ExtractedFact) ([]domain.UpsertResult, error) {
	now := s.clock.Now()
	facts := make([]*domain.Fact, 0, len(candidates))
	for i, c := range candidates {
		f, err := c.ToFact(now)
		if err != nil {
			return nil, fmt.Errorf("candidate %d (%s/%s): %w", i, c.Category, c.Key, err)
		}
		facts = append(facts, f)
	}

	results := make([]domain.UpsertResult, 0, len(facts))
	for _, f := range facts {
		res, err := s.store.Upsert(ctx, f)
		if err != nil {
			return results, fmt.Errorf("apply %s: %w", f.Ref(), mapStoreErr(err))
		}
		results = append(results, *res)
	}
	s.logger.Info("applied extracted facts", zap.Int("count", len(results)))
	return results, nil
}

func (s *FactService) Get(ctx context.Context, ref string) (*domain.Fact, error) {
	category, key, err := domain.ParseRef(ref)
	if err != nil {
		return nil, err
	}
	f, err := s.store.GetByKey(ctx, category, key)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return f, nil
}

func (s *FactService) Remove(ctx context.Context, ref string) error {
	category, key, err := domain.ParseRef(ref)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, category, key); err != nil {
		return mapStoreErr(err)
	}
	s.logger.Info("fact removed", zap.String("ref", ref))
	return nil
}

func (s *FactService) List(ctx context.Context, filter domain.FactFilter) ([]domain.Fact, error) {
	if filter.Scope != "" && !domain.ValidScope(string(filter.Scope)) {
		return nil, domain.ErrInvalidScope
	}
	if filter.Tier != "" && !domain.ValidTier(string(filter.Tier)) {
		return nil, domain.ErrInvalidTier
	}
	if !domain.ValidFactOrder(string(filter.Order)) {
		return nil, domain.ErrInvalidOrder
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	return s.store.List(ctx, filter)
}

// TrackAccess records a read of the referenced fact.
func (s *FactService) TrackAccess(ctx context.Context, ref string) (*domain.Fact, error) {
	f, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.TrackAccess(ctx, f.ID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return updated, nil
}

// History returns the ledger entries of one fact, oldest first.
func (s *FactService) History(ctx context.Context, ref string) ([]domain.LedgerEntry, error) {
	f, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListByFact(ctx, f.ID)
}

// Search queries the term index and falls back to a substring scan of key
// and value when the index has no hits.
func (s *FactService) Search(ctx context.Context, q string, limit int) ([]domain.Fact, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrSearchQueryEmpty
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	if s.index != nil {
		facts, err := s.searchIndex(ctx, q, limit)
		if err != nil {
			s.logger.Warn("index search failed, using substring fallback", zap.Error(err))
		} else if len(facts) > 0 {
			return facts, nil
		}
	}
	return s.store.SearchSubstring(ctx, q, limit)
}

func (s *FactService) searchIndex(ctx context.Context, q string, limit int) ([]domain.Fact, error) {
	hits, err := s.index.Search(q, limit)
	if err != nil || len(hits) == 0 {
		return nil, err
	}
	ids := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	found, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]domain.Fact, len(found))
	for _, f := range found {
		byID[f.ID] = f
	}
	facts := make([]domain.Fact, 0, len(found))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			facts = append(facts, f)
		}
	}
	return facts, nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrFactNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrFactConflict
	}
	return err
}
