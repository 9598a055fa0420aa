package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
)

// LedgerEntry records one value transition of a fact. Entries are never
// rewritten; they disappear only when their fact is deleted.
type LedgerEntry struct {
	ID         uuid.UUID  `json:"id"`
	FactID     uuid.UUID  `json:"fact_id"`
	Category   string     `json:"category"`
	Key        string     `json:"key"`
	OldValue   *string    `json:"old_value"`
	NewValue   string     `json:"new_value"`
	ChangeType ChangeType `json:"change_type"`
	Source     string     `json:"source,omitempty"`
	Created    time.Time  `json:"created"`
}

// UpsertOutcome says what an upsert did to the stored row.
type UpsertOutcome string

const (
	UpsertCreated UpsertOutcome = "created"
	UpsertUpdated UpsertOutcome = "updated"
	UpsertTouched UpsertOutcome = "touched"
)

type UpsertResult struct {
	Fact     *Fact         `json:"fact"`
	Outcome  UpsertOutcome `json:"outcome"`
	OldValue *string       `json:"old_value,omitempty"`
}
