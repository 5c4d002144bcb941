package eventstore_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denkhaus/conductor/internal/bus"
	"github.com/denkhaus/conductor/internal/eventstore"
	"github.com/denkhaus/conductor/internal/types"
)

type fakeDurable struct {
	appended []*types.Event
}

func (f *fakeDurable) Append(_ context.Context, e *types.Event) (string, error) {
	f.appended = append(f.appended, e)
	return e.EventID, nil
}
func (f *fakeDurable) Get(context.Context, types.EventFilter) ([]*types.Event, error) {
	return f.appended, nil
}
func (f *fakeDurable) GetAggregate(context.Context, string, int) ([]*types.Event, error) { return nil, nil }
func (f *fakeDurable) Snapshot(context.Context, string, string, map[string]any, int) (string, error) {
	return "", nil
}
func (f *fakeDurable) LatestSnapshot(context.Context, string) (*types.Event, error) { return nil, nil }
func (f *fakeDurable) Clear(context.Context) error                                  { return nil }

func TestAppendPublishesToBus(t *testing.T) {
	b, err := bus.New()
	require.NoError(t, err)
	defer b.Close()

	durable := &fakeDurable{}
	store := eventstore.New(durable, b)

	received := make(chan []byte, 1)
	_, err = b.Subscribe("events.Task.TaskStateChanged", func(_ string, data []byte) {
		received <- data
	})
	require.NoError(t, err)

	id, err := store.Append(context.Background(), &types.Event{
		EventID: "evt-1", EventType: "TaskStateChanged", AggregateType: "Task",
		AggregateID: "task-1", TimestampUTC: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)

	select {
	case data := <-received:
		var decoded types.Event
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "TaskStateChanged", decoded.EventType)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for bus publish")
	}

	require.Len(t, durable.appended, 1, "append must persist to the durable store regardless of bus delivery")
}

func TestAppendSucceedsWithNilBus(t *testing.T) {
	durable := &fakeDurable{}
	store := eventstore.New(durable, nil)

	_, err := store.Append(context.Background(), &types.Event{EventID: "evt-2", EventType: "HintGenerated"})
	require.NoError(t, err)
	assert.Len(t, durable.appended, 1)
}
