package service

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraphEnv(t *testing.T) (*testEnv, *GraphService) {
	t.Helper()
	env := newTestEnv(t)
	return env, NewGraphService(env.facts, env.relations, env.logger)
}

func TestGraphService_LinkIsIdempotent(t *testing.T) {
	env, svc := newGraphEnv(t)
	ctx := t.Context()
	env.put(t, "project", "api", "REST service")
	env.put(t, "person", "alice", "backend lead")

	rel, created, err := svc.Link(ctx, "project/api", "person/alice", domain.RelationOwnedBy)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.RelationOwnedBy, rel.RelationType)

	env.clock.Advance(time.Hour)
	again, created, err := svc.Link(ctx, "project/api", "person/alice", domain.RelationOwnedBy)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, rel.ID, again.ID, "the stored edge is returned")
	assert.True(t, rel.Created.Equal(again.Created))

	_, created, err = svc.Link(ctx, "project/api", "person/alice", domain.RelationRelatedTo)
	require.NoError(t, err)
	assert.True(t, created, "a different type is a different edge")

	n, err := svc.Neighbors(ctx, "project/api")
	require.NoError(t, err)
	assert.Len(t, n.Outgoing, 2)
	assert.Empty(t, n.Incoming)
}

func TestGraphService_LinkErrors(t *testing.T) {
	env, svc := newGraphEnv(t)
	ctx := t.Context()
	env.put(t, "project", "api", "REST service")

	_, _, err := svc.Link(ctx, "project/api", "project/api", "depends_on")
	assert.ErrorIs(t, err, ErrInvalidRelationType)

	_, _, err = svc.Link(ctx, "project/api", "person/nobody", domain.RelationOwnedBy)
	assert.ErrorIs(t, err, ErrFactNotFound)

	_, _, err = svc.Link(ctx, "project", "person/nobody", domain.RelationOwnedBy)
	assert.ErrorIs(t, err, domain.ErrInvalidRef)
}

func TestGraphService_Unlink(t *testing.T) {
	env, svc := newGraphEnv(t)
	ctx := t.Context()
	env.put(t, "decision", "use-sqlite", "embedded store")
	env.put(t, "person", "bob", "architect")

	_, _, err := svc.Link(ctx, "decision/use-sqlite", "person/bob", domain.RelationDecidedBy)
	require.NoError(t, err)

	require.NoError(t, svc.Unlink(ctx, "decision/use-sqlite", "person/bob", domain.RelationDecidedBy))
	assert.ErrorIs(t, svc.Unlink(ctx, "decision/use-sqlite", "person/bob", domain.RelationDecidedBy), ErrRelationNotFound)
}

func TestGraphService_Neighbors(t *testing.T) {
	env, svc := newGraphEnv(t)
	ctx := t.Context()
	env.put(t, "module", "auth", "login flow")
	env.put(t, "project", "api", "REST service")
	env.put(t, "person", "carol", "security")

	_, _, err := svc.Link(ctx, "module/auth", "project/api", domain.RelationPartOf)
	require.NoError(t, err)
	_, _, err = svc.Link(ctx, "module/auth", "person/carol", domain.RelationOwnedBy)
	require.NoError(t, err)

	n, err := svc.Neighbors(ctx, "project/api")
	require.NoError(t, err)
	assert.Empty(t, n.Outgoing)
	require.Len(t, n.Incoming, 1)
	assert.Equal(t, "auth", n.Incoming[0].Fact.Key)
	assert.Equal(t, domain.RelationPartOf, n.Incoming[0].Relation.RelationType)
}

func TestGraphService_Walk(t *testing.T) {
	env, svc := newGraphEnv(t)
	ctx := t.Context()
	env.put(t, "n", "a", "1")
	env.put(t, "n", "b", "2")
	env.put(t, "n", "c", "3")
	env.put(t, "n", "d", "4")

	// a -> b -> c, d -> c
	_, _, err := svc.Link(ctx, "n/a", "n/b", domain.RelationRelatedTo)
	require.NoError(t, err)
	_, _, err = svc.Link(ctx, "n/b", "n/c", domain.RelationRelatedTo)
	require.NoError(t, err)
	_, _, err = svc.Link(ctx, "n/d", "n/c", domain.RelationRelatedTo)
	require.NoError(t, err)

	keysAt := func(nodes []domain.WalkNode) map[string]int {
		m := make(map[string]int, len(nodes))
		for _, n := range nodes {
			m[n.Fact.Key] = n.Depth
		}
		return m
	}

	nodes, err := svc.Walk(ctx, "n/a", 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, keysAt(nodes))
	assert.Nil(t, nodes[0].Via)

	nodes, err = svc.Walk(ctx, "n/a", 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, keysAt(nodes))

	for _, depth := range []int{0, -3} {
		nodes, err = svc.Walk(ctx, "n/a", depth)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a": 0, "b": 1}, keysAt(nodes), "depth %d clamps to one hop", depth)
	}

	nodes, err = svc.Walk(ctx, "n/a", 99)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2, "d": 3}, keysAt(nodes))
	last := nodes[len(nodes)-1]
	assert.Equal(t, domain.DirectionIncoming, last.Direction)
	require.NotNil(t, last.Via)
}

func TestGraphService_RelationsCascadeWithFact(t *testing.T) {
	env, svc := newGraphEnv(t)
	ctx := t.Context()
	env.put(t, "n", "a", "1")
	env.put(t, "n", "b", "2")

	_, _, err := svc.Link(ctx, "n/a", "n/b", domain.RelationRelatedTo)
	require.NoError(t, err)
	require.NoError(t, env.factService().Remove(ctx, "n/b"))

	n, err := svc.Neighbors(ctx, "n/a")
	require.NoError(t, err)
	assert.Empty(t, n.Outgoing)
}
