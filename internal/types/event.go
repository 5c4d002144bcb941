package types

import "time"

// Event is an append-only audit record. Snapshots share this table with
// event_type suffixed "Snapshot" and metadata["is_snapshot"] = true.
type Event struct {
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	EventData     map[string]any `json:"event_data"`
	AggregateID   string         `json:"aggregate_id,omitempty"`
	AggregateType string         `json:"aggregate_type,omitempty"`
	TimestampUTC  time.Time      `json:"timestamp_utc"`
	Version       int            `json:"version"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// IsSnapshot reports whether this event row is a snapshot marker.
func (e *Event) IsSnapshot() bool {
	if e.Metadata == nil {
		return false
	}
	v, ok := e.Metadata["is_snapshot"]
	return ok && v == true
}

// EventFilter narrows Get() queries.
type EventFilter struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Since         *time.Time
	Limit         int
}
