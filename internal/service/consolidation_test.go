package service

import (
	"strings"
	"testing"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidate_MergesNearDuplicates(t *testing.T) {
	env := newTestEnv(t)
	svc := NewConsolidationService(env.facts, env.logger)
	ctx := t.Context()

	env.put(t, "project", "deploy.target", "fly.io")
	env.clock.Advance(time.Minute)
	env.put(t, "project", "deploy.targets", "fly.io")
	env.put(t, "person", "deploy.target", "fly.io")

	result, err := svc.Consolidate(ctx, ConsolidationOptions{SimilarityThreshold: 0.8})
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, 2, result.FactsMerged)
	assert.Equal(t, 6, result.BytesSaved)
	assert.NotEqual(t, uuid.Nil, result.Groups[0].MergedID)

	project, err := env.facts.List(ctx, domain.FactFilter{Category: "project"})
	require.NoError(t, err)
	require.Len(t, project, 1)
	assert.Equal(t, "deploy.targets", project[0].Key)
	assert.Equal(t, "fly.io", project[0].Value)
	assert.Equal(t, domain.SourceConsolidated, project[0].SourceType)

	history, err := env.ledger.ListByFact(ctx, project[0].ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ChangeCreated, history[0].ChangeType)
	assert.Equal(t, "consolidation", history[0].Source)

	_, err = env.facts.GetByKey(ctx, "person", "deploy.target")
	require.NoError(t, err, "other categories are untouched")

	again, err := svc.Consolidate(ctx, ConsolidationOptions{SimilarityThreshold: 0.8})
	require.NoError(t, err)
	assert.Empty(t, again.Groups)
}

func TestConsolidate_DryRunWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	svc := NewConsolidationService(env.facts, env.logger)
	ctx := t.Context()

	env.put(t, "project", "deploy.target", "fly.io")
	env.put(t, "project", "deploy.targets", "fly.io")

	result, err := svc.Consolidate(ctx, ConsolidationOptions{DryRun: true, SimilarityThreshold: 0.8})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, uuid.Nil, result.Groups[0].MergedID)

	all, err := env.facts.List(ctx, domain.FactFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConsolidate_CompressesLongValues(t *testing.T) {
	env := newTestEnv(t)
	svc := NewConsolidationService(env.facts, env.logger)
	ctx := t.Context()

	long := "The deploy pipeline basically runs on every merge. " +
		strings.Repeat("It then publishes artifacts to the registry and notifies the team channel. ", 3)
	f := env.put(t, "process", "deploy", long)

	result, err := svc.Consolidate(ctx, ConsolidationOptions{CompressLong: true})
	require.NoError(t, err)
	require.Len(t, result.Compressed, 1)
	assert.Equal(t, "The deploy pipeline runs on every merge.", result.Compressed[0].Value)

	stored, err := env.facts.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "The deploy pipeline runs on every merge.", stored.Value)

	history, err := env.ledger.ListByFact(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ChangeUpdated, history[1].ChangeType)
	assert.Equal(t, long, *history[1].OldValue)
}

func TestConsolidate_AutoPrioritizePromotesOnly(t *testing.T) {
	env := newTestEnv(t)
	svc := NewConsolidationService(env.facts, env.logger)
	ctx := t.Context()

	busy := env.put(t, "tool", "editor", "helix")
	pinned := env.putFact(t, &domain.Fact{Category: "rule", Key: "never-force-push", Value: "ask first", Confidence: 1, Tier: domain.TierCritical})
	for range 5 {
		_, err := env.facts.TrackAccess(ctx, busy.ID)
		require.NoError(t, err)
	}
	for range 2 {
		_, err := env.facts.TrackAccess(ctx, pinned.ID)
		require.NoError(t, err)
	}

	result, err := svc.Consolidate(ctx, ConsolidationOptions{AutoPrioritize: true})
	require.NoError(t, err)
	require.Len(t, result.Prioritized, 1)
	assert.Equal(t, domain.TierImportant, result.Prioritized[0].To)

	stored, err := env.facts.GetByID(ctx, busy.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierImportant, stored.Tier)

	stored, err = env.facts.GetByID(ctx, pinned.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierCritical, stored.Tier)
}

func TestConsolidate_RejectsBadThreshold(t *testing.T) {
	env := newTestEnv(t)
	svc := NewConsolidationService(env.facts, env.logger)

	_, err := svc.Consolidate(t.Context(), ConsolidationOptions{SimilarityThreshold: 1.5})
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestMergeGroup(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := t0.Add(48 * time.Hour)
	group := []domain.Fact{
		{ID: uuid.New(), Category: "c", Key: "k1", Value: "a", Confidence: 0.5, AccessCount: 2, Updated: t0, Tier: domain.TierLongTerm},
		{ID: uuid.New(), Category: "c", Key: "k2", Value: "b", Confidence: 0.9, AccessCount: 3, Updated: t0.Add(time.Hour), Tier: domain.TierWorking, LastAccessed: &seen},
		{ID: uuid.New(), Category: "c", Key: "k3", Value: "a", Confidence: 0.7, Updated: t0.Add(-time.Hour)},
	}

	merged, summary := mergeGroup(group)
	assert.Equal(t, "k2", merged.Key)
	assert.Equal(t, domain.TierWorking, merged.Tier)
	assert.Equal(t, "a | b", merged.Value)
	assert.Equal(t, 0.9, merged.Confidence)
	assert.Equal(t, 5, merged.AccessCount)
	require.NotNil(t, merged.LastAccessed)
	assert.Equal(t, seen, *merged.LastAccessed)
	assert.Equal(t, domain.SourceConsolidated, merged.SourceType)
	assert.Len(t, summary.SourceIDs, 3)
	assert.Equal(t, 3-len("a | b"), summary.BytesSaved)
}

func TestCompressValue(t *testing.T) {
	short := "fine as is"
	out, ok := compressValue(short)
	assert.False(t, ok)
	assert.Equal(t, short, out)

	noSentence := strings.Repeat("word ", 60)
	out, ok = compressValue(noSentence)
	assert.True(t, ok)
	assert.Equal(t, 200, runeLen(out))
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestConsolidation_WorkerStopIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	svc := NewConsolidationService(env.facts, env.logger)
	svc.SetInterval(time.Hour)

	svc.Start()
	svc.Start()
	svc.Stop()
	assert.NotPanics(t, svc.Stop)

	svc.Start()
	svc.Stop()
}
