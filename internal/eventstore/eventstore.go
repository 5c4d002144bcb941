// Package eventstore composes the durable append-only log of spec.md §4.8
// (internal/repository/sqlite's types.EventStore implementation) with the
// in-process notification fabric of internal/bus, grounded on
// original_source's event_store.py (single table, snapshot-via-type-suffix)
// for the durability half and on the ODSapper-CLIAIMONITOR embedded-NATS
// pattern for the notification half. The database row is the sole source
// of truth for GetAggregate/replay; the bus publish is best-effort and
// never fails the append.
package eventstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/denkhaus/conductor/internal/bus"
	"github.com/denkhaus/conductor/internal/logger"
	"github.com/denkhaus/conductor/internal/types"
)

// Store decorates a durable types.EventStore with best-effort publish of
// every successfully appended event onto the bus.
type Store struct {
	durable types.EventStore
	bus     *bus.Bus
	log     *zap.Logger
}

var _ types.EventStore = (*Store)(nil)

// New wraps durable with publish-on-append. bus may be nil, in which case
// Append behaves exactly like the durable store (used by tests and by any
// caller that does not need live notifications).
func New(durable types.EventStore, b *bus.Bus) *Store {
	return &Store{durable: durable, bus: b, log: logger.GetLogger()}
}

// Append persists event durably, then best-effort publishes it to
// "events.<aggregate_type>.<event_type>" (or "events.<event_type>" when no
// aggregate type is set). Publish failures are logged, never returned.
func (s *Store) Append(ctx context.Context, event *types.Event) (string, error) {
	id, err := s.durable.Append(ctx, event)
	if err != nil {
		return "", err
	}
	if s.bus == nil {
		return id, nil
	}
	subject := subjectFor(event)
	if pubErr := s.bus.PublishJSON(subject, event); pubErr != nil {
		s.log.Warn("event bus publish failed",
			zap.String("subject", subject),
			zap.String("event_id", id),
			zap.Error(pubErr))
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, filter types.EventFilter) ([]*types.Event, error) {
	return s.durable.Get(ctx, filter)
}

func (s *Store) GetAggregate(ctx context.Context, aggregateID string, fromVersion int) ([]*types.Event, error) {
	return s.durable.GetAggregate(ctx, aggregateID, fromVersion)
}

func (s *Store) Snapshot(ctx context.Context, aggregateID, aggregateType string, data map[string]any, version int) (string, error) {
	return s.durable.Snapshot(ctx, aggregateID, aggregateType, data, version)
}

func (s *Store) LatestSnapshot(ctx context.Context, aggregateID string) (*types.Event, error) {
	return s.durable.LatestSnapshot(ctx, aggregateID)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.durable.Clear(ctx)
}

func subjectFor(event *types.Event) string {
	if event.AggregateType == "" {
		return fmt.Sprintf("events.%s", event.EventType)
	}
	return fmt.Sprintf("events.%s.%s", event.AggregateType, event.EventType)
}
