package app

import (
	"path/filepath"
	"testing"

	"github.com/Harshitk-cp/factstore/internal/config"
	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/Harshitk-cp/factstore/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpen_RebuildsEmptyIndex(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		Dialect: store.DialectSQLite,
		DSN:     filepath.Join(dir, "facts.db"),
		Policy:  config.DefaultPolicy(),
	}
	ctx := t.Context()

	a, err := Open(ctx, opts, zap.NewNop())
	require.NoError(t, err)
	_, err = a.Facts.Upsert(ctx, &domain.Fact{Category: "person", Key: "alice.email", Value: "alice@example.com", Confidence: 1})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// A fresh in-memory index starts empty and is filled from the database.
	a, err = Open(ctx, opts, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	count, err := a.Index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	facts, err := a.Facts.Search(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, facts, 1)
}

func TestApp_WorkersFollowPolicy(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.Forgetting.Enabled = false

	a, err := Open(t.Context(), Options{DSN: ":memory:", Policy: policy}, nil)
	require.NoError(t, err)

	a.StartWorkers()
	assert.Len(t, a.workers, 2)
	require.NoError(t, a.Close())
	assert.Empty(t, a.workers)
}
