package service

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangelogService_Query(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChangelogService(env.ledger)
	ctx := t.Context()

	env.put(t, "person", "alice.name", "Alice")
	env.clock.Advance(time.Minute)
	env.put(t, "person", "bob.name", "Bob")
	env.clock.Advance(time.Minute)
	env.put(t, "person", "alice.name", "Alice B.")

	cl, err := svc.Query(ctx, ChangelogQuery{})
	require.NoError(t, err)
	assert.Equal(t, ChangelogCounts{Total: 3, Created: 2, Updated: 1, Keys: 2}, cl.Counts)
	require.Len(t, cl.Entries, 3)
	assert.Equal(t, domain.ChangeUpdated, cl.Entries[0].ChangeType)
	require.Len(t, cl.ByKey, 2)
	assert.Equal(t, "alice.name", cl.ByKey[0].Key)
	assert.Len(t, cl.ByKey[0].Entries, 2)

	cl, err = svc.Query(ctx, ChangelogQuery{Keyword: "BOB"})
	require.NoError(t, err)
	assert.Equal(t, ChangelogCounts{Total: 1, Created: 1, Keys: 1}, cl.Counts)

	cl, err = svc.Query(ctx, ChangelogQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, cl.Entries, 1)
	assert.Equal(t, "Alice B.", cl.Entries[0].NewValue)
}

func TestChangelogService_EmptyLedger(t *testing.T) {
	svc := NewChangelogService(newTestEnv(t).ledger)

	cl, err := svc.Query(t.Context(), ChangelogQuery{Keyword: "missing"})
	require.NoError(t, err)
	assert.NotNil(t, cl.Entries)
	assert.NotNil(t, cl.ByKey)
	assert.Zero(t, cl.Counts.Total)
}
