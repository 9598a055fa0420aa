package service

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityService_Validation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewActivityService(env.activity, env.archive, env.clock, env.logger)
	ctx := t.Context()

	assert.ErrorIs(t, svc.RecordEvent(ctx, &domain.Event{}), ErrEventTypeEmpty)
	assert.ErrorIs(t, svc.RecordSession(ctx, &domain.Session{Style: " "}), ErrSessionStyleEmpty)
	assert.ErrorIs(t, svc.UpsertProject(ctx, &domain.Project{}), ErrProjectNameEmpty)
}

func TestActivityService_Defaults(t *testing.T) {
	env := newTestEnv(t)
	svc := NewActivityService(env.activity, env.archive, env.clock, env.logger)
	ctx := t.Context()

	e := &domain.Event{EventType: "decision", Message: "use chi"}
	require.NoError(t, svc.RecordEvent(ctx, e))
	assert.Equal(t, env.clock.Now(), e.Created)

	p := &domain.Project{Name: "factstore"}
	require.NoError(t, svc.UpsertProject(ctx, p))
	assert.Equal(t, "active", p.Status)
	started := p.Started

	env.clock.Advance(time.Hour)
	again := &domain.Project{Name: "factstore"}
	require.NoError(t, svc.UpsertProject(ctx, again))
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, started, again.Started)
}

func TestActivityService_ListArchive(t *testing.T) {
	env := newTestEnv(t)
	svc := NewActivityService(env.activity, env.archive, env.clock, env.logger)

	entries, err := svc.ListArchive(t.Context(), 0)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
