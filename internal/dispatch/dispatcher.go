// Package dispatch fans hub events out to local subscribers. It decouples
// the transport from the stores: the connection layer emits, stores and UI
// code subscribe by event name.
package dispatch

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/famstack/famstack-client/internal/events"
)

// Handler receives the decoded payload for one event occurrence. Handlers
// run synchronously inside the dispatch turn and must not block; any slow
// work belongs in a goroutine the handler starts itself.
type Handler func(payload events.Payload)

// Subscription identifies one registered handler. Releasing it through Off
// is the only way to stop delivery.
type Subscription struct {
	id    uuid.UUID
	event string
}

type subscriber struct {
	id      uuid.UUID
	handler Handler
	removed bool
}

// Dispatcher routes named events to subscribers in registration order.
// Emit is serial: dispatch of the next event does not start until every
// handler for the current one has returned.
type Dispatcher struct {
	mu     sync.Mutex
	subs   map[string][]*subscriber
	logger zerolog.Logger
}

func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		subs:   make(map[string][]*subscriber),
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// On registers handler for event and returns the subscription used to
// release it.
func (d *Dispatcher) On(event string, handler Handler) Subscription {
	sub := &subscriber{id: uuid.New(), handler: handler}

	d.mu.Lock()
	d.subs[event] = append(d.subs[event], sub)
	d.mu.Unlock()

	return Subscription{id: sub.id, event: event}
}

// Off removes a subscription. Calling it twice, or with a zero Subscription,
// is a no-op; UI teardown paths double-fire routinely.
func (d *Dispatcher) Off(sub Subscription) {
	if sub.id == uuid.Nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	list := d.subs[sub.event]
	for i, s := range list {
		if s.id == sub.id {
			s.removed = true
			d.subs[sub.event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(d.subs[sub.event]) == 0 {
		delete(d.subs, sub.event)
	}
}

// Emit delivers payload to every live subscriber of event in registration
// order. A panicking handler is logged and skipped; the rest still run.
// Emit is called only by the connection layer's read loop.
func (d *Dispatcher) Emit(event string, payload events.Payload) {
	d.mu.Lock()
	list := d.subs[event]
	snapshot := make([]*subscriber, len(list))
	copy(snapshot, list)
	d.mu.Unlock()

	for _, s := range snapshot {
		d.mu.Lock()
		removed := s.removed
		d.mu.Unlock()
		if removed {
			continue
		}
		d.invoke(event, s, payload)
	}
}

func (d *Dispatcher) invoke(event string, s *subscriber, payload events.Payload) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn().
				Str("event", event).
				Str("subscription_id", s.id.String()).
				Str("panic", fmt.Sprint(r)).
				Msg("subscriber panicked during dispatch")
		}
	}()
	s.handler(payload)
}

// SubscriberCount reports how many handlers are registered for event.
func (d *Dispatcher) SubscriberCount(event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs[event])
}
