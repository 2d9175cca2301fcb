package presentation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/stiffy-wanderers/internal/event"
)

// Overlay names a one-shot popup or video.
type Overlay string

const (
	OverlayNone       Overlay = ""
	OverlayCompletion Overlay = "completion"
	OverlayLevelUp    Overlay = "level_up"
	OverlayNewArea    Overlay = "new_area"
	OverlayOnboarding Overlay = "onboarding"
)

// priority lists overlays from most to least important.
var priority = []Overlay{OverlayCompletion, OverlayLevelUp, OverlayNewArea, OverlayOnboarding}

// ParseOverlay validates an overlay name.
func ParseOverlay(s string) (Overlay, error) {
	o := Overlay(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range priority {
		if o == p {
			return o, nil
		}
	}
	return OverlayNone, fmt.Errorf("unknown overlay %q", s)
}

// Prompt is what the app should display right now.
type Prompt struct {
	Overlay Overlay   `json:"overlay"`
	EventID uuid.UUID `json:"eventId,omitempty"`
	Area    string    `json:"area,omitempty"`
	Stage   int       `json:"stage,omitempty"`
	// Pending counts triggers queued behind the visible one.
	Pending int `json:"pending"`
}

// Coordinator turns engine and location events into at most one visible
// overlay. State is per process.
type Coordinator struct {
	mu sync.Mutex

	onboardingDismissed bool
	pending             map[Overlay]event.Event
	seen                map[uuid.UUID]struct{}
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		pending: make(map[Overlay]event.Event),
		seen:    make(map[uuid.UUID]struct{}),
	}
}

// Observe implements event.Observer. A redelivered event is ignored.
func (c *Coordinator) Observe(e event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.seen[e.ID]; dup {
		return
	}
	c.seen[e.ID] = struct{}{}

	switch e.Kind {
	case event.Completed:
		c.pending[OverlayCompletion] = e
		// A level-up on the way to completion is superseded by the video.
		delete(c.pending, OverlayLevelUp)
	case event.LeveledUp:
		c.pending[OverlayLevelUp] = e
	case event.EnteredNewArea:
		c.pending[OverlayNewArea] = e
	case event.Onboarded:
		// Onboarding is re-derived from the value; nothing to queue.
	}
}

// Current returns the overlay to show given the current progress value.
// Priority: completion > level_up > new_area > onboarding.
func (c *Coordinator) Current(value float64) Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()

	var active []Overlay
	for _, o := range priority {
		if c.activeLocked(o, value) {
			active = append(active, o)
		}
	}
	if len(active) == 0 {
		return Prompt{Overlay: OverlayNone}
	}

	top := active[0]
	p := Prompt{Overlay: top, Pending: len(active) - 1}
	if e, ok := c.pending[top]; ok {
		p.EventID = e.ID
		p.Area = e.Area
		p.Stage = e.Stage
	}
	return p
}

// Dismiss clears the trigger for o. It reports whether anything was cleared.
func (c *Coordinator) Dismiss(o Overlay) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if o == OverlayOnboarding {
		if c.onboardingDismissed {
			return false
		}
		c.onboardingDismissed = true
		return true
	}
	if _, ok := c.pending[o]; !ok {
		return false
	}
	delete(c.pending, o)
	return true
}

func (c *Coordinator) activeLocked(o Overlay, value float64) bool {
	if o == OverlayOnboarding {
		return value == 0 && !c.onboardingDismissed
	}
	_, ok := c.pending[o]
	return ok
}
