package persistence

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/query"
	"github.com/google/uuid"
)

// operation names the events emitted around a collection operation.
type operation struct {
	name    string
	start   EventType
	success EventType
	failed  EventType
}

var (
	findOperation   = operation{"find", FindStart, FindSuccess, FindFailed}
	createOperation = operation{"create", DocumentCreateStart, DocumentCreateSuccess, DocumentCreateFailed}
)

// emitEvent is a helper method to emit events
func (c *Collection) emitEvent(event Event) {
	if c.bus != nil {
		c.bus.Emit(string(event.Type), event)
	}
}

// withEventEmission wraps an operation with start, success and failure events
// sharing one request id. Entries rejected by filter validation are reported
// as FilterRejected instead of the operation's failure event.
func withEventEmission[T any](
	c *Collection,
	op operation,
	input any,
	entries []filter.Entry,
	fn func() (T, *query.QueryDSL, error),
) (T, error) {
	requestID := uuid.NewString()
	startTime := time.Now()

	start := createEvent(op.start, op.name, c.Name(), requestID, input, nil, nil, startTime)
	start.Entries = entries
	c.emitEvent(start)

	result, dsl, err := fn()
	if err != nil {
		eventType := op.failed
		var fieldErr *filter.FieldError
		if errors.As(err, &fieldErr) {
			eventType = FilterRejected
		}
		failEvent := createEvent(eventType, op.name, c.Name(), requestID, input, nil, err, startTime)
		failEvent.Entries = entries
		failEvent.Query = dsl
		c.emitEvent(failEvent)
		var zero T
		return zero, err
	}

	successEvent := createEvent(op.success, op.name, c.Name(), requestID, input, result, nil, startTime)
	successEvent.Entries = entries
	successEvent.Query = dsl
	c.emitEvent(successEvent)
	return result, nil
}

// subscriptions tracks the callbacks registered on an event bus so they can
// be listed and removed by id.
type subscriptions struct {
	bus  *events.TypedEventBus[Event]
	mu   sync.RWMutex
	byID map[string]*SubscriptionInfo
}

func newSubscriptions(bus *events.TypedEventBus[Event]) *subscriptions {
	return &subscriptions{bus: bus, byID: make(map[string]*SubscriptionInfo)}
}

func (s *subscriptions) register(options RegisterSubscriptionOptions, accept func(Event) bool) string {
	callback := options.Callback
	unsubscribe := s.bus.Subscribe(string(options.Event), func(ctx context.Context, event Event) error {
		if accept != nil && !accept(event) {
			return nil
		}
		return callback(ctx, event)
	})

	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = &SubscriptionInfo{
		ID:          id,
		Event:       options.Event,
		Label:       options.Label,
		Description: options.Description,
		Unsubscribe: unsubscribe,
	}
	return id
}

func (s *subscriptions) unregister(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.byID[id]
	if !ok {
		return false
	}
	info.Unsubscribe()
	delete(s.byID, id)
	return true
}

func (s *subscriptions) list() []SubscriptionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SubscriptionInfo, 0, len(s.byID))
	for _, info := range s.byID {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
