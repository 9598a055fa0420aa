package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type FactStore interface {
	Upsert(ctx context.Context, f *Fact) (*UpsertResult, error)
	GetByKey(ctx context.Context, category, key string) (*Fact, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Fact, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Fact, error)
	Delete(ctx context.Context, category, key string) error
	List(ctx context.Context, filter FactFilter) ([]Fact, error)
	DeleteExpiredWorking(ctx context.Context, now time.Time) (int64, error)
	TrackAccess(ctx context.Context, id uuid.UUID) (*Fact, error)
	UpdateConfidence(ctx context.Context, id uuid.UUID, confidence float64) error
	UpdateTier(ctx context.Context, id uuid.UUID, tier Tier) error
	UpdateValue(ctx context.Context, id uuid.UUID, value, source string) error
	Merge(ctx context.Context, sourceIDs []uuid.UUID, merged *Fact) error
	Archive(ctx context.Context, entry *ArchiveEntry) error
	SearchSubstring(ctx context.Context, query string, limit int) ([]Fact, error)
	ListUpdatedBetween(ctx context.Context, start, end time.Time, limit int) ([]Fact, error)
}

type LedgerStore interface {
	List(ctx context.Context, keyword string, limit int) ([]LedgerEntry, error)
	ListByFact(ctx context.Context, factID uuid.UUID) ([]LedgerEntry, error)
}

type RelationStore interface {
	Create(ctx context.Context, r *Relation) (bool, error)
	Delete(ctx context.Context, sourceID, targetID uuid.UUID, relationType RelationType) error
	ListOutgoing(ctx context.Context, factID uuid.UUID) ([]Relation, error)
	ListIncoming(ctx context.Context, factID uuid.UUID) ([]Relation, error)
}

type ArchiveStore interface {
	List(ctx context.Context, limit int) ([]ArchiveEntry, error)
}

type ActivityStore interface {
	CreateEvent(ctx context.Context, e *Event) error
	ListEventsBetween(ctx context.Context, start, end time.Time, limit int) ([]Event, error)
	CreateSession(ctx context.Context, s *Session) error
	ListSessionsSince(ctx context.Context, since time.Time) ([]Session, error)
	UpsertProject(ctx context.Context, p *Project) error
	ListProjectsActiveBetween(ctx context.Context, start, end time.Time, limit int) ([]Project, error)
}

type SearchHit struct {
	ID    uuid.UUID `json:"id"`
	Score float64   `json:"score"`
}

// SearchIndex is the term index kept in lockstep with the fact store.
type SearchIndex interface {
	Index(f *Fact) error
	Delete(id uuid.UUID) error
	Search(query string, limit int) ([]SearchHit, error)
	Rebuild(facts []Fact) error
	Close() error
}
