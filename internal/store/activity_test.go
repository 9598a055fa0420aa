package store

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityStore_EventsAndSessions(t *testing.T) {
	db := testDB(t)
	s := NewActivityStore(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateEvent(ctx, &domain.Event{
			EventType: "decision",
			Category:  "arch",
			Created:   base.Add(time.Duration(i) * time.Hour),
		}))
	}

	events, err := s.ListEventsBetween(ctx, base, base.Add(2*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Created.After(events[1].Created))

	events, err = s.ListEventsBetween(ctx, base, base.Add(24*time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	require.NoError(t, s.CreateSession(ctx, &domain.Session{Style: "focused", Started: base}))
	require.NoError(t, s.CreateSession(ctx, &domain.Session{Style: "exploratory", Started: base.Add(-48 * time.Hour)}))

	sessions, err := s.ListSessionsSince(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "focused", sessions[0].Style)
}

func TestActivityStore_Projects(t *testing.T) {
	db := testDB(t)
	s := NewActivityStore(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	p := &domain.Project{Name: "factstore", Status: "active", Started: base, LastActive: base.Add(24 * time.Hour)}
	require.NoError(t, s.UpsertProject(ctx, p))
	firstID := p.ID

	again := &domain.Project{Name: "factstore", Status: "active", Started: base.Add(72 * time.Hour), LastActive: base.Add(96 * time.Hour)}
	require.NoError(t, s.UpsertProject(ctx, again))
	assert.Equal(t, firstID, again.ID)
	assert.True(t, again.Started.Equal(base), "start time is kept on update")

	ended := base.Add(2 * time.Hour)
	require.NoError(t, s.UpsertProject(ctx, &domain.Project{
		Name: "spike", Status: "done", Started: base, LastActive: ended, Ended: &ended,
	}))

	got, err := s.ListProjectsActiveBetween(ctx, base.Add(90*time.Hour), base.Add(100*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "factstore", got[0].Name)

	got, err = s.ListProjectsActiveBetween(ctx, base, base.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
