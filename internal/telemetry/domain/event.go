package domain

import (
	"encoding/json"
	"time"
)

// Event is a telemetry event flowing through the Kafka pipeline. Metadata is
// an event-type specific JSON document.
type Event struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id,omitempty"`
	EventType string          `json:"event_type"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
