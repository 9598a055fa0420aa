package search

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewMemOnly()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func fact(key, value string, updated time.Time) domain.Fact {
	return domain.Fact{ID: uuid.New(), Category: "test", Key: key, Value: value, Updated: updated}
}

func TestIndex_AllTermsMustMatch(t *testing.T) {
	idx := testIndex(t)
	now := time.Now()

	city := fact("alice.city", "Berlin", now)
	name := fact("alice.name", "Alice", now)
	require.NoError(t, idx.Index(&city))
	require.NoError(t, idx.Index(&name))

	hits, err := idx.Search("alice ber", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, city.ID, hits[0].ID)

	hits, err = idx.Search("ALI", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestIndex_TiesBreakByRecency(t *testing.T) {
	idx := testIndex(t)
	now := time.Now()

	older := fact("deploy.alpha", "x", now.Add(-time.Hour))
	newer := fact("deploy.gamma", "x", now)
	require.NoError(t, idx.Index(&older))
	require.NoError(t, idx.Index(&newer))

	hits, err := idx.Search("deploy", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, newer.ID, hits[0].ID)
	assert.Equal(t, older.ID, hits[1].ID)
}

func TestIndex_DeleteAndRebuild(t *testing.T) {
	idx := testIndex(t)
	now := time.Now()

	a := fact("editor", "vim", now)
	b := fact("shell", "zsh", now)
	require.NoError(t, idx.Index(&a))
	require.NoError(t, idx.Delete(a.ID))

	hits, err := idx.Search("vim", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, idx.Rebuild([]domain.Fact{b}))
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	hits, err = idx.Search("zs", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, b.ID, hits[0].ID)
}

func TestIndex_EmptyQuery(t *testing.T) {
	idx := testIndex(t)
	hits, err := idx.Search("   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestOpen_CreatesIndexOnDisk(t *testing.T) {
	path := t.TempDir() + "/facts.bleve"
	idx, err := Open(path)
	require.NoError(t, err)
	f := fact("k", "persisted", time.Now())
	require.NoError(t, idx.Index(&f))
	require.NoError(t, idx.Close())

	idx, err = Open(path)
	require.NoError(t, err)
	defer idx.Close()
	hits, err := idx.Search("persist", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
