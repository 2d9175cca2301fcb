package location

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/i474232898/stiffy-wanderers/internal/event"
	"github.com/i474232898/stiffy-wanderers/internal/store"
)

// KeyLastArea is the record holding the last area the device was seen in.
const KeyLastArea = "lastArea"

// AreaResolver names the area a coordinate belongs to.
type AreaResolver interface {
	Area(ctx context.Context, c Coordinate) (string, error)
}

// GridResolver buckets coordinates into square cells of CellDegrees.
type GridResolver struct {
	CellDegrees float64
}

func (g GridResolver) Area(ctx context.Context, c Coordinate) (string, error) {
	size := g.CellDegrees
	if size <= 0 {
		size = 0.05
	}
	return fmt.Sprintf("cell:%d:%d",
		int64(math.Floor(c.Latitude/size)),
		int64(math.Floor(c.Longitude/size))), nil
}

// GeocodedResolver names areas by reverse-geocoded city and falls back to
// Fallback when the geocoder fails.
type GeocodedResolver struct {
	Geocoder Geocoder
	Fallback AreaResolver
}

func (r GeocodedResolver) Area(ctx context.Context, c Coordinate) (string, error) {
	name, err := r.Geocoder.Reverse(ctx, c)
	if err == nil && name != "" {
		return name, nil
	}
	if r.Fallback == nil {
		return "", err
	}
	log.Printf("WARN: location: reverse geocode failed, using fallback area: %v", err)
	return r.Fallback.Area(ctx, c)
}

// Records is the durable store the tracker keeps its last area in.
type Records interface {
	Get(ctx context.Context, key string) (string, error)
	PutMany(ctx context.Context, records map[string]string) error
}

// Tracker detects jumps to a new area and emits EnteredNewArea for each.
// The very first area ever seen is a baseline, not a jump.
type Tracker struct {
	resolver AreaResolver
	records  Records
	observer event.Observer

	mu     sync.Mutex
	last   string
	loaded bool
}

func NewTracker(resolver AreaResolver, records Records, observer event.Observer) *Tracker {
	return &Tracker{resolver: resolver, records: records, observer: observer}
}

// Observe resolves c to an area and reports whether it differs from the
// last one seen.
func (t *Tracker) Observe(ctx context.Context, c Coordinate) (string, bool, error) {
	area, err := t.resolver.Area(ctx, c)
	if err != nil {
		return "", false, fmt.Errorf("resolve area: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.loaded {
		t.loadLocked(ctx)
	}
	if area == t.last {
		return area, false, nil
	}

	prev := t.last
	t.last = area
	if t.records != nil {
		if err := t.records.PutMany(ctx, map[string]string{KeyLastArea: area}); err != nil {
			log.Printf("WARN: location: could not persist last area: %v", err)
		}
	}

	if prev == "" {
		log.Printf("INFO: location: baseline area %q", area)
		return area, false, nil
	}

	log.Printf("INFO: location: moved from %q to %q", prev, area)
	if t.observer != nil {
		ev := event.New(event.EnteredNewArea)
		ev.Area = area
		t.observer.Observe(ev)
	}
	return area, true, nil
}

// Current returns the last known area, if any.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func (t *Tracker) loadLocked(ctx context.Context) {
	if t.records == nil {
		t.loaded = true
		return
	}
	v, err := t.records.Get(ctx, KeyLastArea)
	switch {
	case err == nil:
		t.last = v
	case errors.Is(err, store.ErrNotFound):
	default:
		// Retry on the next observation rather than treating the area as new.
		log.Printf("WARN: location: could not load last area: %v", err)
		return
	}
	t.loaded = true
}
