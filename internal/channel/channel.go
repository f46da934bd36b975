// Package channel abstracts the persistent full-duplex connection the
// client keeps with the chat server. It delivers named events to at most
// one handler per event name; handlers are released through Subscription
// handles so re-subscribing never stacks duplicate deliveries.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// ErrAlreadySubscribed is returned when an event name already has an
// active handler. The prior Subscription must be closed first.
var ErrAlreadySubscribed = errors.New("event already has an active handler")

// Handler receives the raw payload of one named event. Handlers for the
// same event name are invoked in arrival order.
type Handler func(data json.RawMessage)

// Subscription is the release handle for one registered handler.
type Subscription interface {
	// Close removes the handler. Safe to call more than once.
	Close()
}

// Channel is the full-duplex event connection as the core sees it.
type Channel interface {
	// Emit sends a named event, fire-and-forget. No acknowledgement
	// is assumed by callers.
	Emit(ctx context.Context, event string, payload any) error
	// Subscribe registers the single handler for an event name.
	Subscribe(event string, h Handler) (Subscription, error)
	// Close tears down the connection and drops all handlers.
	Close() error
}

// registry implements the one-handler-per-event discipline shared by the
// websocket transport and test fakes.
type registry struct {
	mu       sync.Mutex
	handlers map[string]*subscription
}

func newRegistry() *registry {
	return &registry{handlers: make(map[string]*subscription)}
}

func (r *registry) subscribe(event string, h Handler) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[event]; exists {
		return nil, ErrAlreadySubscribed
	}
	sub := &subscription{registry: r, event: event, handler: h}
	r.handlers[event] = sub
	return sub, nil
}

// dispatch invokes the handler registered for event, if any.
// Returns false when the event had no handler.
func (r *registry) dispatch(event string, data json.RawMessage) bool {
	r.mu.Lock()
	sub := r.handlers[event]
	r.mu.Unlock()

	if sub == nil {
		return false
	}
	sub.handler(data)
	return true
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[string]*subscription)
}

type subscription struct {
	registry *registry
	event    string
	handler  Handler
	once     sync.Once
}

func (s *subscription) Close() {
	s.once.Do(func() {
		s.registry.mu.Lock()
		defer s.registry.mu.Unlock()
		// Only remove our own registration; a successor may have
		// subscribed after an earlier Close.
		if s.registry.handlers[s.event] == s {
			delete(s.registry.handlers, s.event)
		}
	})
}
