package service

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/Harshitk-cp/factstore/internal/search"
	"github.com/Harshitk-cp/factstore/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// testEnv wires real stores over an in-memory database and index.
type testEnv struct {
	clock     *fakeClock
	facts     *store.FactStore
	ledger    *store.LedgerStore
	relations *store.RelationStore
	archive   *store.ArchiveStore
	activity  *store.ActivityStore
	index     *search.Index
	logger    *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	idx, err := search.NewMemOnly()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	clock := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	logger := zap.NewNop()
	return &testEnv{
		clock:     clock,
		facts:     store.NewFactStore(db, idx, clock, logger),
		ledger:    store.NewLedgerStore(db),
		relations: store.NewRelationStore(db, clock),
		archive:   store.NewArchiveStore(db),
		activity:  store.NewActivityStore(db),
		index:     idx,
		logger:    logger,
	}
}

func (e *testEnv) factService() *FactService {
	return NewFactService(e.facts, e.ledger, e.index, e.clock, e.logger)
}

func (e *testEnv) put(t *testing.T, category, key, value string) *domain.Fact {
	t.Helper()
	f := &domain.Fact{Category: category, Key: key, Value: value, Confidence: 0.9}
	res, err := e.factService().Upsert(t.Context(), f)
	require.NoError(t, err)
	return res.Fact
}

func (e *testEnv) putFact(t *testing.T, f *domain.Fact) *domain.Fact {
	t.Helper()
	res, err := e.factService().Upsert(t.Context(), f)
	require.NoError(t, err)
	return res.Fact
}
