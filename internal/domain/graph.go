package domain

import (
	"time"

	"github.com/google/uuid"
)

type RelationType string

const (
	RelationRelatedTo  RelationType = "related_to"
	RelationPartOf     RelationType = "part_of"
	RelationDecidedBy  RelationType = "decided_by"
	RelationOwnedBy    RelationType = "owned_by"
	RelationReplacedBy RelationType = "replaced_by"
)

func ValidRelationType(r string) bool {
	switch RelationType(r) {
	case RelationRelatedTo, RelationPartOf, RelationDecidedBy, RelationOwnedBy, RelationReplacedBy:
		return true
	}
	return false
}

// Relation is a typed directed edge between two facts.
type Relation struct {
	ID           uuid.UUID    `json:"id"`
	SourceFactID uuid.UUID    `json:"source_fact_id"`
	TargetFactID uuid.UUID    `json:"target_fact_id"`
	RelationType RelationType `json:"relation_type"`
	Created      time.Time    `json:"created"`
}

// Edge pairs a relation with the current snapshot of the fact on its far end.
type Edge struct {
	Relation Relation `json:"relation"`
	Fact     Fact     `json:"fact"`
}

type Neighbors struct {
	Fact     Fact   `json:"fact"`
	Outgoing []Edge `json:"outgoing"`
	Incoming []Edge `json:"incoming"`
}

const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// WalkNode is one fact reached during a bounded walk. Via is nil for the root.
type WalkNode struct {
	Fact      Fact      `json:"fact"`
	Depth     int       `json:"depth"`
	Via       *Relation `json:"via,omitempty"`
	Direction string    `json:"direction,omitempty"`
}
