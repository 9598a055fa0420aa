package domain

import (
	"time"

	"github.com/google/uuid"
)

const ArchiveReasonConfidenceDecay = "confidence_decay"

// ArchiveEntry is the write-once copy of a fact removed by the forgetting curve.
type ArchiveEntry struct {
	ID                 uuid.UUID `json:"id"`
	OriginalFactID     uuid.UUID `json:"original_fact_id"`
	Category           string    `json:"category"`
	Key                string    `json:"key"`
	Value              string    `json:"value"`
	OriginalConfidence float64   `json:"original_confidence"`
	FinalConfidence    float64   `json:"final_confidence"`
	DaysUnused         int       `json:"days_unused"`
	ArchivedDate       time.Time `json:"archived_date"`
	Reason             string    `json:"reason"`
}
