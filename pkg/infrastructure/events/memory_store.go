package events

import (
	"sync"

	"github.com/rs/zerolog"
)

type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	position    int
	allEvents   []Event
	handlers    sync.WaitGroup
	log         zerolog.Logger
}

func NewInMemoryEventStore(log zerolog.Logger) *InMemoryEventStore {
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		log:         log.With().Str("component", "event_store").Logger(),
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	eventWithVersion := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}

	s.streams[streamID] = append(s.streams[streamID], eventWithVersion)
	s.allEvents = append(s.allEvents, eventWithVersion)
	s.position++

	s.notifySubscribers(eventWithVersion)

	return nil
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}

	if fromVersion < 1 {
		fromVersion = 1
	}

	if fromVersion > len(events) {
		return []Event{}, nil
	}

	out := make([]Event, len(events)-fromVersion+1)
	copy(out, events[fromVersion-1:])
	return out, nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}

	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}

	out := make([]Event, len(s.allEvents)-fromPosition)
	copy(out, s.allEvents[fromPosition:])
	return out, nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		newHandlers := make([]EventHandler, 0, len(handlers))
		for _, h := range handlers {
			if h != handler {
				newHandlers = append(newHandlers, h)
			}
		}
		s.subscribers[eventType] = newHandlers
	}

	return nil
}

// Wait blocks until every dispatched handler has returned
func (s *InMemoryEventStore) Wait() {
	s.handlers.Wait()
}

// notifySubscribers dispatches handlers asynchronously; the caller holds the write lock
func (s *InMemoryEventStore) notifySubscribers(event Event) {
	for _, handler := range s.subscribers[event.Type()] {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		s.handlers.Add(1)
		go func(h EventHandler, e Event) {
			defer s.handlers.Done()
			if err := h.Handle(e); err != nil {
				s.log.Error().
					Err(err).
					Str("event_type", e.Type()).
					Str("stream_id", e.StreamID()).
					Msg("event handler failed")
			}
		}(handler, event)
	}
}
