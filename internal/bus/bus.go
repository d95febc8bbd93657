package bus

import (
	"log"
	"sync"
	"time"
)

// Message kinds recognized on the bus.
const (
	KindShowNotification = "show_notification"
	KindDataChanged      = "data_changed"
)

// Severity of a user-facing notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Message is anything that can be published on the bus.
type Message interface {
	Kind() string
}

// ShowNotification asks the notification layer to surface a message to the
// current user.
type ShowNotification struct {
	Severity Severity      `json:"severity"`
	Text     string        `json:"text"`
	Duration time.Duration `json:"duration"`
}

func (ShowNotification) Kind() string { return KindShowNotification }

// DataChanged announces that an entity was created, updated, or deleted so
// interested caches and views can refresh.
type DataChanged struct {
	Entity string `json:"entity"`
	ID     string `json:"id,omitempty"`
}

func (DataChanged) Kind() string { return KindDataChanged }

// Handler receives messages of the kind it subscribed to.
type Handler func(Message)

// Bus is an in-memory, synchronous publish/subscribe channel. Dispatch is
// fire-and-forget: publishers never learn whether anyone listened, and a
// panicking subscriber is contained so it cannot take the publisher down.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

func New() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for one message kind and returns the
// matching unsubscribe function. Consumers call it around their own
// lifecycle: subscribe on mount, unsubscribe on unmount.
func (b *Bus) Subscribe(kind string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[kind] == nil {
		b.subs[kind] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[kind][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[kind], id)
	}
}

// Publish dispatches msg synchronously to every current subscriber of its
// kind. Messages with no subscribers are dropped silently.
func (b *Bus) Publish(msg Message) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[msg.Kind()]))
	for _, h := range b.subs[msg.Kind()] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		dispatch(h, msg)
	}
}

func dispatch(h Handler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bus: subscriber for %s panicked: %v", msg.Kind(), r)
		}
	}()
	h(msg)
}
