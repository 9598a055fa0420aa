package service

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactService_UpsertRecordsValueChange(t *testing.T) {
	env := newTestEnv(t)
	svc := env.factService()
	ctx := t.Context()

	_, err := svc.Upsert(ctx, &domain.Fact{Category: "person", Key: "alice.name", Value: "Alice", Confidence: 0.8})
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	res, err := svc.Upsert(ctx, &domain.Fact{Category: "person", Key: "alice.name", Value: "Alice B.", Confidence: 0.8})
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertUpdated, res.Outcome)

	all, err := svc.List(ctx, domain.FactFilter{Category: "person"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Alice B.", all[0].Value)

	history, err := svc.History(ctx, "person/alice.name")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ChangeCreated, history[0].ChangeType)
	assert.Nil(t, history[0].OldValue)
	assert.Equal(t, domain.ChangeUpdated, history[1].ChangeType)
	require.NotNil(t, history[1].OldValue)
	assert.Equal(t, "Alice", *history[1].OldValue)
	assert.Equal(t, "Alice B.", history[1].NewValue)
}

func TestFactService_UpsertSameValueTouches(t *testing.T) {
	env := newTestEnv(t)
	svc := env.factService()
	ctx := t.Context()

	first := env.put(t, "person", "bob.role", "engineer")
	env.clock.Advance(time.Hour)
	res, err := svc.Upsert(ctx, &domain.Fact{Category: "person", Key: "bob.role", Value: "engineer", Confidence: 0.95})
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertTouched, res.Outcome)
	assert.Equal(t, first.Updated, res.Fact.Updated)
	require.NotNil(t, res.Fact.LastVerified)
	assert.Equal(t, env.clock.Now(), *res.Fact.LastVerified)

	history, err := svc.History(ctx, "person/bob.role")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestFactService_UpsertValidation(t *testing.T) {
	svc := newTestEnv(t).factService()
	ctx := t.Context()

	_, err := svc.Upsert(ctx, &domain.Fact{Category: "", Key: "k", Value: "v"})
	assert.ErrorIs(t, err, domain.ErrCategoryEmpty)

	_, err = svc.Upsert(ctx, &domain.Fact{Category: "c", Key: "k", Value: "v", Tier: "eternal"})
	assert.ErrorIs(t, err, domain.ErrInvalidTier)

	_, err = svc.Upsert(ctx, &domain.Fact{Category: "c", Key: "k", Value: "v", Confidence: 1.5})
	assert.ErrorIs(t, err, domain.ErrInvalidConfidence)
}

func TestFactService_ApplyExtractedFailsFast(t *testing.T) {
	env := newTestEnv(t)
	svc := env.factService()
	ctx := t.Context()

	_, err := svc.ApplyExtracted(ctx, []domain.ExtractedFact{
		{Category: "project", Key: "db", Value: "postgres", Confidence: 0.7},
		{Category: "project", Key: "cache", Value: "redis", Confidence: 0.7, TTL: "3 days"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTTL)

	all, err := svc.List(ctx, domain.FactFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFactService_ApplyExtractedSetsExpiry(t *testing.T) {
	env := newTestEnv(t)
	svc := env.factService()
	ctx := t.Context()

	results, err := svc.ApplyExtracted(ctx, []domain.ExtractedFact{
		{Category: "task", Key: "current", Value: "refactor", Tier: domain.TierWorking, Confidence: 0.6, TTL: "2h"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	f := results[0].Fact
	assert.Equal(t, domain.SourceInferred, f.SourceType)
	require.NotNil(t, f.ExpiresAt)
	assert.Equal(t, env.clock.Now().Add(2*time.Hour), *f.ExpiresAt)
}

func TestFactService_GetAndRemove(t *testing.T) {
	env := newTestEnv(t)
	svc := env.factService()
	ctx := t.Context()

	env.put(t, "docs", "guides/setup", "run make")

	f, err := svc.Get(ctx, "docs/guides/setup")
	require.NoError(t, err)
	assert.Equal(t, "guides/setup", f.Key)

	require.NoError(t, svc.Remove(ctx, "docs/guides/setup"))
	_, err = svc.Get(ctx, "docs/guides/setup")
	assert.ErrorIs(t, err, ErrFactNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, "docs/guides/setup"), ErrFactNotFound)

	_, err = svc.Get(ctx, "no-slash")
	assert.ErrorIs(t, err, domain.ErrInvalidRef)
}

func TestFactService_TrackAccess(t *testing.T) {
	env := newTestEnv(t)
	svc := env.factService()

	env.put(t, "tool", "editor", "helix")
	env.clock.Advance(time.Minute)

	f, err := svc.TrackAccess(t.Context(), "tool/editor")
	require.NoError(t, err)
	assert.Equal(t, 1, f.AccessCount)
	require.NotNil(t, f.LastAccessed)
	assert.Equal(t, env.clock.Now(), *f.LastAccessed)
}

func TestFactService_Search(t *testing.T) {
	env := newTestEnv(t)
	svc := env.factService()
	ctx := t.Context()

	env.put(t, "person", "alice.email", "alice@example.com")
	env.clock.Advance(time.Minute)
	env.put(t, "person", "bob.email", "bob@example.com")

	t.Run("index hit", func(t *testing.T) {
		facts, err := svc.Search(ctx, "bob", 10)
		require.NoError(t, err)
		require.Len(t, facts, 1)
		assert.Equal(t, "bob.email", facts[0].Key)
	})

	t.Run("substring fallback", func(t *testing.T) {
		facts, err := svc.Search(ctx, "lice", 10)
		require.NoError(t, err)
		require.Len(t, facts, 1)
		assert.Equal(t, "alice.email", facts[0].Key)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := svc.Search(ctx, "   ", 10)
		assert.ErrorIs(t, err, ErrSearchQueryEmpty)
	})
}

func TestFactService_ListRejectsUnknownEnums(t *testing.T) {
	svc := newTestEnv(t).factService()

	_, err := svc.List(t.Context(), domain.FactFilter{Scope: "planet"})
	assert.ErrorIs(t, err, domain.ErrInvalidScope)
}
