package service

import (
	"math"
	"testing"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecayedConfidence(t *testing.T) {
	assert.Equal(t, 0.8, DecayedConfidence(0.8, 0.05, 10, 30))
	assert.Equal(t, 0.8, DecayedConfidence(0.8, 0.05, 30, 30))
	assert.InDelta(t, math.Pow(0.95, 10), DecayedConfidence(1, 0.05, 40, 30), 1e-9)
	assert.Zero(t, DecayedConfidence(0, 0.05, 400, 30))
}

func TestForgetting_DecaysAndArchives(t *testing.T) {
	env := newTestEnv(t)
	svc := NewForgettingService(env.facts, env.clock, env.logger)
	ctx := t.Context()

	stale := env.putFact(t, &domain.Fact{Category: "note", Key: "stale", Value: "old idea", Confidence: 0.9})
	weak := env.putFact(t, &domain.Fact{Category: "note", Key: "weak", Value: "vague hunch", Confidence: 0.15})
	env.putFact(t, &domain.Fact{Category: "rule", Key: "pinned", Value: "always test", Confidence: 0.5, Tier: domain.TierCritical})
	used := env.putFact(t, &domain.Fact{Category: "note", Key: "used", Value: "read often", Confidence: 0.9})

	env.clock.Advance(35 * 24 * time.Hour)
	_, err := env.facts.TrackAccess(ctx, used.ID)
	require.NoError(t, err)
	env.clock.Advance(5 * 24 * time.Hour)

	result, err := svc.Run(ctx, DefaultForgettingOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, result.FactsScanned)
	assert.Equal(t, 2, result.Decayed)
	assert.Equal(t, 1, result.Archived)

	factor := math.Pow(0.95, 10)
	wantDelta := ((0.9 - 0.9*factor) + (0.15 - 0.15*factor)) / 2
	assert.InDelta(t, wantDelta, result.AverageConfidenceDelta, 1e-9)

	got, err := env.facts.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.9*factor, got.Confidence, 1e-9)

	_, err = env.facts.GetByID(ctx, weak.ID)
	assert.Error(t, err, "archived facts leave the live store")

	archived, err := env.archive.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, weak.ID, archived[0].OriginalFactID)
	assert.Equal(t, 40, archived[0].DaysUnused)
	assert.Equal(t, 0.15, archived[0].OriginalConfidence)
	assert.Equal(t, domain.ArchiveReasonConfidenceDecay, archived[0].Reason)

	got, err = env.facts.GetByID(ctx, used.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.9, got.Confidence, "accessed inside the grace period")
}

func TestForgetting_DryRun(t *testing.T) {
	env := newTestEnv(t)
	svc := NewForgettingService(env.facts, env.clock, env.logger)
	ctx := t.Context()

	f := env.putFact(t, &domain.Fact{Category: "note", Key: "weak", Value: "vague", Confidence: 0.15})
	env.clock.Advance(40 * 24 * time.Hour)

	opts := DefaultForgettingOptions()
	opts.DryRun = true
	result, err := svc.Run(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Archived)
	require.Len(t, result.Changes, 1)
	assert.True(t, result.Changes[0].Archived)

	got, err := env.facts.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.15, got.Confidence)
}

func TestForgetting_InvalidOptions(t *testing.T) {
	env := newTestEnv(t)
	svc := NewForgettingService(env.facts, env.clock, env.logger)

	_, err := svc.Run(t.Context(), ForgettingOptions{DecayRate: 1})
	assert.ErrorIs(t, err, ErrInvalidForgettingOptions)

	_, err = svc.Run(t.Context(), ForgettingOptions{DecayRate: 0.05, GraceDays: -1})
	assert.ErrorIs(t, err, ErrInvalidForgettingOptions)
}

func TestForgetting_WorkerStartStop(t *testing.T) {
	env := newTestEnv(t)
	svc := NewForgettingService(env.facts, env.clock, env.logger)
	svc.SetInterval(time.Hour)
	svc.Start()
	svc.Stop()
	svc.Stop()
	svc.Start()
	svc.Stop()
}
