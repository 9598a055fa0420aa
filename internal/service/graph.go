package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/Harshitk-cp/factstore/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidRelationType = errors.New("invalid relation_type")
	ErrRelationNotFound    = errors.New("relation not found")
)

const (
	DefaultWalkDepth = 2
	MaxWalkDepth     = 5
)

type GraphService struct {
	facts     domain.FactStore
	relations domain.RelationStore
	logger    *zap.Logger
}

func NewGraphService(fs domain.FactStore, rs domain.RelationStore, logger *zap.Logger) *GraphService {
	return &GraphService{facts: fs, relations: rs, logger: logger}
}

// Link adds a typed edge between two existing facts. Linking the same triple
// again is a no-op and reports created=false.
func (s *GraphService) Link(ctx context.Context, fromRef, toRef string, relType domain.RelationType) (*domain.Relation, bool, error) {
	if !domain.ValidRelationType(string(relType)) {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidRelationType, relType)
	}
	from, to, err := s.resolvePair(ctx, fromRef, toRef)
	if err != nil {
		return nil, false, err
	}

	rel := &domain.Relation{
		SourceFactID: from.ID,
		TargetFactID: to.ID,
		RelationType: relType,
	}
	created, err := s.relations.Create(ctx, rel)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info("facts linked",
			zap.String("from", fromRef),
			zap.String("to", toRef),
			zap.String("relation_type", string(relType)))
	}
	return rel, created, nil
}

func (s *GraphService) Unlink(ctx context.Context, fromRef, toRef string, relType domain.RelationType) error {
	if !domain.ValidRelationType(string(relType)) {
		return fmt.Errorf("%w: %q", ErrInvalidRelationType, relType)
	}
	from, to, err := s.resolvePair(ctx, fromRef, toRef)
	if err != nil {
		return err
	}
	if err := s.relations.Delete(ctx, from.ID, to.ID, relType); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRelationNotFound
		}
		return err
	}
	return nil
}

func (s *GraphService) resolvePair(ctx context.Context, fromRef, toRef string) (*domain.Fact, *domain.Fact, error) {
	from, err := s.resolve(ctx, fromRef)
	if err != nil {
		return nil, nil, err
	}
	to, err := s.resolve(ctx, toRef)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func (s *GraphService) resolve(ctx context.Context, ref string) (*domain.Fact, error) {
	category, key, err := domain.ParseRef(ref)
	if err != nil {
		return nil, err
	}
	f, err := s.facts.GetByKey(ctx, category, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFactNotFound, ref)
		}
		return nil, err
	}
	return f, nil
}

// Neighbors returns the edges leaving and entering the fact, each joined with
// the current state of the fact on the other end.
func (s *GraphService) Neighbors(ctx context.Context, ref string) (*domain.Neighbors, error) {
	root, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	out, err := s.relations.ListOutgoing(ctx, root.ID)
	if err != nil {
		return nil, err
	}
	in, err := s.relations.ListIncoming(ctx, root.ID)
	if err != nil {
		return nil, err
	}

	result := &domain.Neighbors{Fact: *root}
	result.Outgoing, err = s.joinEdges(ctx, out, func(r domain.Relation) uuid.UUID { return r.TargetFactID })
	if err != nil {
		return nil, err
	}
	result.Incoming, err = s.joinEdges(ctx, in, func(r domain.Relation) uuid.UUID { return r.SourceFactID })
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GraphService) joinEdges(ctx context.Context, rels []domain.Relation, other func(domain.Relation) uuid.UUID) ([]domain.Edge, error) {
	edges := make([]domain.Edge, 0, len(rels))
	if len(rels) == 0 {
		return edges, nil
	}
	ids := make([]uuid.UUID, len(rels))
	for i, r := range rels {
		ids[i] = other(r)
	}
	facts, err := s.facts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]domain.Fact, len(facts))
	for _, f := range facts {
		byID[f.ID] = f
	}
	for _, r := range rels {
		if f, ok := byID[other(r)]; ok {
			edges = append(edges, domain.Edge{Relation: r, Fact: f})
		}
	}
	return edges, nil
}

// Walk traverses edges in both directions breadth-first from ref, visiting
// each fact once and stopping at maxDepth hops, clamped to [1, MaxWalkDepth].
// The root is returned at depth 0.
func (s *GraphService) Walk(ctx context.Context, ref string, maxDepth int) ([]domain.WalkNode, error) {
	maxDepth = max(1, min(maxDepth, MaxWalkDepth))

	root, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	type queueItem struct {
		id    uuid.UUID
		depth int
	}

	visited := map[uuid.UUID]bool{root.ID: true}
	queue := []queueItem{{id: root.ID, depth: 0}}
	nodes := []domain.WalkNode{{Fact: *root, Depth: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= maxDepth {
			continue
		}

		out, err := s.relations.ListOutgoing(ctx, current.id)
		if err != nil {
			return nil, fmt.Errorf("outgoing relations of %s: %w", current.id, err)
		}
		in, err := s.relations.ListIncoming(ctx, current.id)
		if err != nil {
			return nil, fmt.Errorf("incoming relations of %s: %w", current.id, err)
		}

		type step struct {
			rel       domain.Relation
			otherID   uuid.UUID
			direction string
		}
		steps := make([]step, 0, len(out)+len(in))
		for _, r := range out {
			steps = append(steps, step{rel: r, otherID: r.TargetFactID, direction: domain.DirectionOutgoing})
		}
		for _, r := range in {
			steps = append(steps, step{rel: r, otherID: r.SourceFactID, direction: domain.DirectionIncoming})
		}

		for _, st := range steps {
			if visited[st.otherID] {
				continue
			}
			visited[st.otherID] = true

			f, err := s.facts.GetByID(ctx, st.otherID)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}

			rel := st.rel
			nodes = append(nodes, domain.WalkNode{
				Fact:      *f,
				Depth:     current.depth + 1,
				Via:       &rel,
				Direction: st.direction,
			})
			queue = append(queue, queueItem{id: st.otherID, depth: current.depth + 1})
		}
	}
	return nodes, nil
}
