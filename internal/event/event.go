package event

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind names a one-shot lifecycle event.
type Kind string

const (
	// Onboarded fires when progress first leaves zero.
	Onboarded Kind = "onboarded"
	// LeveledUp fires when the mascot reaches a new stage short of completion.
	LeveledUp Kind = "leveled_up"
	// Completed fires when progress crosses 1.0.
	Completed Kind = "completed"
	// EnteredNewArea fires when the device is seen in a different area.
	EnteredNewArea Kind = "entered_new_area"
)

// Event is a single occurrence of a Kind. ID identifies the occurrence so
// consumers can drop duplicate deliveries.
type Event struct {
	ID    uuid.UUID `json:"id"`
	Kind  Kind      `json:"kind"`
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
	Stage int       `json:"stage,omitempty"`
	Area  string    `json:"area,omitempty"`
}

// New returns an event of kind k stamped with a fresh ID.
func New(k Kind) Event {
	return Event{
		ID:   uuid.New(),
		Kind: k,
		At:   time.Now().UTC(),
	}
}

// Observer receives delivered events. Implementations must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Bus fans events out to every subscribed observer in subscription order.
type Bus struct {
	mu        sync.RWMutex
	observers []Observer
}

func NewBus(observers ...Observer) *Bus {
	return &Bus{observers: observers}
}

func (b *Bus) Subscribe(o Observer) {
	b.mu.Lock()
	b.observers = append(b.observers, o)
	b.mu.Unlock()
}

func (b *Bus) Observe(e Event) {
	b.mu.RLock()
	observers := make([]Observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.RUnlock()

	for _, o := range observers {
		o.Observe(e)
	}
}

// LogObserver writes every event to the standard logger.
var LogObserver = ObserverFunc(func(e Event) {
	log.Printf("INFO: event %s (%s) value=%.4f stage=%d area=%q", e.Kind, e.ID, e.Value, e.Stage, e.Area)
})
