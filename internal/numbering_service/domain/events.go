package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NATSRangeSyncedV1 is published after a range save commits.
const NATSRangeSyncedV1 = "numbering.range.synced.v1"

// RangeSyncedEvent is the payload of NATSRangeSyncedV1.
type RangeSyncedEvent struct {
	RangeID     uuid.UUID `json:"range_id"`
	CountryCode string    `json:"country_calling_code"`
	StartNumber string    `json:"start_number"`
	EndNumber   string    `json:"end_number"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher is satisfied by messagebroker.NATSClient.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}
