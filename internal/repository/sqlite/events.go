package sqlite

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	orcherrors "github.com/denkhaus/conductor/internal/errors"
	"github.com/denkhaus/conductor/internal/types"
)

var _ types.EventStore = eventStore{}

// eventStore is the append-only log of §4.8: snapshots share the events
// table, distinguished only by is_snapshot/event_type, matching
// original_source's event_store.py design of one table for both.
type eventStore struct{ *Store }

func (s *Store) Events() types.EventStore { return eventStore{s} }

func (e eventStore) Append(ctx context.Context, event *types.Event) (string, error) {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", orcherrors.Wrap(orcherrors.InternalError, "marshal event", err)
	}
	_, err = e.db.ExecContext(ctx, `INSERT INTO events (event_id, aggregate_id, aggregate_type,
		event_type, timestamp_utc, version, is_snapshot, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventID, event.AggregateID, event.AggregateType, event.EventType,
		event.TimestampUTC, event.Version, event.IsSnapshot(), string(data))
	if err != nil {
		return "", mapError("event", event.EventID, err)
	}
	return event.EventID, nil
}

func (e eventStore) Get(ctx context.Context, filter types.EventFilter) ([]*types.Event, error) {
	query := `SELECT data FROM events WHERE 1=1`
	var args []any
	if filter.AggregateID != "" {
		query += ` AND aggregate_id = ?`
		args = append(args, filter.AggregateID)
	}
	if filter.AggregateType != "" {
		query += ` AND aggregate_type = ?`
		args = append(args, filter.AggregateType)
	}
	if filter.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, filter.EventType)
	}
	if filter.Since != nil {
		query += ` AND timestamp_utc >= ?`
		args = append(args, *filter.Since)
	}
	query += ` ORDER BY timestamp_utc, version`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	return e.queryEvents(ctx, query, args...)
}

func (e eventStore) GetAggregate(ctx context.Context, aggregateID string, fromVersion int) ([]*types.Event, error) {
	return e.queryEvents(ctx, `SELECT data FROM events WHERE aggregate_id = ? AND version >= ?
		AND is_snapshot = 0 ORDER BY version`, aggregateID, fromVersion)
}

func (e eventStore) Snapshot(ctx context.Context, aggregateID, aggregateType string, data map[string]any, version int) (string, error) {
	return e.Append(ctx, &types.Event{
		EventType:     aggregateType + "Snapshot",
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventData:     data,
		Version:       version,
		Metadata:      map[string]any{"is_snapshot": true},
	})
}

func (e eventStore) LatestSnapshot(ctx context.Context, aggregateID string) (*types.Event, error) {
	events, err := e.queryEvents(ctx, `SELECT data FROM events WHERE aggregate_id = ? AND is_snapshot = 1
		ORDER BY version DESC LIMIT 1`, aggregateID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, orcherrors.NotFoundErr("snapshot", aggregateID)
	}
	return events[0], nil
}

func (e eventStore) Clear(ctx context.Context) error {
	_, err := e.db.ExecContext(ctx, `DELETE FROM events`)
	return mapError("event", "", err)
}

func (e eventStore) queryEvents(ctx context.Context, query string, args ...any) ([]*types.Event, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("event", "", err)
	}
	defer rows.Close()

	var out []*types.Event
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, mapError("event", "", err)
		}
		ev := &types.Event{}
		if err := json.Unmarshal([]byte(data), ev); err != nil {
			return nil, orcherrors.Wrap(orcherrors.InternalError, "unmarshal event", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
