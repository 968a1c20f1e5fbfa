package events

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventStore_AppendAndRead(t *testing.T) {
	store := NewInMemoryEventStore(zerolog.Nop())

	require.NoError(t, store.AppendEvent("run-1", NewEvent(MRPRunStartedEvent, "run-1", MRPRunStarted{RunID: "run-1"})))
	require.NoError(t, store.AppendEvent("run-1", NewEvent(MRPRunCompletedEvent, "run-1", MRPRunCompleted{RunID: "run-1"})))
	require.NoError(t, store.AppendEvent("run-2", NewEvent(MRPRunFailedEvent, "run-2", MRPRunFailed{RunID: "run-2"})))

	stream, err := store.ReadEvents("run-1", 0)
	require.NoError(t, err)
	require.Len(t, stream, 2)
	assert.Equal(t, 1, stream[0].Version())
	assert.Equal(t, 2, stream[1].Version())
	assert.Equal(t, MRPRunCompletedEvent, stream[1].Type())

	tail, err := store.ReadEvents("run-1", 2)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	missing, err := store.ReadEvents("run-9", 1)
	require.NoError(t, err)
	assert.Empty(t, missing)

	all, err := store.ReadAllEvents(1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "run-2", all[1].StreamID())
}

func TestInMemoryEventStore_Subscribers(t *testing.T) {
	store := NewInMemoryEventStore(zerolog.Nop())

	var mu sync.Mutex
	var seen []string
	handler := &HandlerFunc{
		Types: []string{ShortageDetectedEvent},
		Fn: func(e Event) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, e.Type())
			return nil
		},
	}
	failing := &HandlerFunc{
		Types: []string{ShortageDetectedEvent},
		Fn:    func(Event) error { return errors.New("boom") },
	}

	require.NoError(t, store.Subscribe([]string{ShortageDetectedEvent}, handler))
	require.NoError(t, store.Subscribe([]string{ShortageDetectedEvent}, failing))

	require.NoError(t, store.AppendEvent("run-1", NewEvent(ShortageDetectedEvent, "run-1", ShortageDetected{RunID: "run-1"})))
	require.NoError(t, store.AppendEvent("run-1", NewEvent(MRPRunCompletedEvent, "run-1", MRPRunCompleted{RunID: "run-1"})))
	store.Wait()

	mu.Lock()
	assert.Equal(t, []string{ShortageDetectedEvent}, seen)
	mu.Unlock()

	require.NoError(t, store.Unsubscribe(handler))
	require.NoError(t, store.AppendEvent("run-1", NewEvent(ShortageDetectedEvent, "run-1", ShortageDetected{RunID: "run-1"})))
	store.Wait()

	mu.Lock()
	assert.Len(t, seen, 1)
	mu.Unlock()
}
