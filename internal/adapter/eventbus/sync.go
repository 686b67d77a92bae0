// Package eventbus provides implementations of the EventBus interface.
// This package contains the synchronous event bus that carries visualization
// lifecycle events from the render loop to the shell.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/barviz/internal/domain"
	"github.com/tejashwikalptaru/barviz/internal/ports"
)

// ErrClosed is returned when closing a bus twice.
var ErrClosed = errors.New("event bus already closed")

// anyEvent marks a subscription that receives every event type.
const anyEvent domain.EventType = ""

// SyncEventBus is a synchronous implementation of the EventBus interface.
// Events are delivered to handlers on the publishing goroutine, type-specific
// subscribers first, then wildcard subscribers, each group in subscription order.
//
// Thread-safety: This implementation is thread-safe. Handlers may publish,
// subscribe and unsubscribe from inside a delivery.
//
// The render loop publishes from its frame goroutine, so handlers should return
// quickly or hand work to another goroutine.
type SyncEventBus struct {
	// Dependencies
	logger *slog.Logger

	// subs holds all subscriptions in the order they were made
	subs []*subscription

	// mu protects subs and closed
	mu sync.RWMutex

	// idCounter generates unique subscription IDs
	idCounter atomic.Uint64

	// published counts delivered events for diagnostics
	published atomic.Uint64

	closed bool
}

// a subscription represents a single event subscription.
type subscription struct {
	id        domain.SubscriptionID
	eventType domain.EventType
	handler   domain.EventHandler
	once      bool
	fired     atomic.Bool
}

// NewSyncEventBus creates a new synchronous event bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{}
}

// SetLogger sets the logger for this event bus.
// This should be called after construction before using the event bus.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish delivers an event to its subscribers.
// Publishing nil or publishing on a closed bus does nothing.
//
// Panics in handlers are recovered and logged, but do not stop other handlers
// from being called.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	eventType := event.Type()
	targets := make([]*subscription, 0, len(bus.subs))
	for _, sub := range bus.subs {
		if sub.eventType == eventType {
			targets = append(targets, sub)
		}
	}
	for _, sub := range bus.subs {
		if sub.eventType == anyEvent {
			targets = append(targets, sub)
		}
	}
	logger := bus.logger
	bus.mu.RUnlock()

	bus.published.Add(1)
	if logger != nil {
		logger.Debug("event published",
			slog.String("event_type", string(eventType)),
			slog.Int("handlers", len(targets)))
	}

	for _, sub := range targets {
		if sub.once {
			if !sub.fired.CompareAndSwap(false, true) {
				continue
			}
			bus.Unsubscribe(sub.id)
		}
		bus.deliver(logger, sub.handler, event)
	}
}

// deliver calls an event handler and recovers from panics.
func (bus *SyncEventBus) deliver(logger *slog.Logger, handler domain.EventHandler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())))
		}
	}()
	handler(event)
}

// Subscribe registers a handler for events of the specified type.
// The same handler can be registered multiple times with different IDs.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("sub", eventType, handler, false)
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("sub-all", anyEvent, handler, false)
}

// SubscribeOnce registers a handler that runs for the first matching event only.
func (bus *SyncEventBus) SubscribeOnce(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("sub-once", eventType, handler, true)
}

func (bus *SyncEventBus) add(prefix string, eventType domain.EventType, handler domain.EventHandler, once bool) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	id := domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.idCounter.Add(1)))
	bus.subs = append(bus.subs, &subscription{
		id:        id,
		eventType: eventType,
		handler:   handler,
		once:      once,
	})
	return id
}

// Unsubscribe removes a previously registered event handler.
// If the subscription ID is invalid or already unsubscribed, this is a no-op.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for i, sub := range bus.subs {
		if sub.id == id {
			bus.subs = append(bus.subs[:i:i], bus.subs[i+1:]...)
			return
		}
	}
}

// HasSubscribers returns true if an event of the given type would reach any handler.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, sub := range bus.subs {
		if sub.eventType == eventType || sub.eventType == anyEvent {
			return true
		}
	}
	return false
}

// Close shuts down the event bus and clears all subscriptions.
//
// Returns ErrClosed if already closed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}
	bus.closed = true
	bus.subs = nil
	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}

// PublishedCount returns how many events have been published.
func (bus *SyncEventBus) PublishedCount() uint64 {
	return bus.published.Load()
}

// Verify that SyncEventBus implements the EventBus interface
var _ ports.EventBus = (*SyncEventBus)(nil)
