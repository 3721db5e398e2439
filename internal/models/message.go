package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictionMessage is published to Kafka once per ranked match
type PredictionMessage struct {
	RunID       uuid.UUID   `json:"run_id"`
	Rank        int         `json:"rank"` // 1-based position in the predictability view
	Match       RankedMatch `json:"match"`
	WindowDays  int         `json:"window_days"`
	PublishedAt time.Time   `json:"published_at"`
}
