package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
)

// KeyCurrentTemperature is the cache key for the last observed temperature.
const KeyCurrentTemperature = "currentTemperature"

// Service fetches from multiple providers, aggregates their readings and
// keeps the last temperature for offline display.
type Service struct {
	providers []Provider
	cache     Cache

	mu       sync.RWMutex
	latest   *Observation
	lastFail error
}

// NewService creates a new Service. cache may be nil.
func NewService(providers []Provider, cache Cache) *Service {
	return &Service{
		providers: providers,
		cache:     cache,
	}
}

// Lookup fetches data from all providers concurrently for loc and aggregates
// the successful readings. It returns ErrLookupFailed when none succeed.
func (s *Service) Lookup(ctx context.Context, loc Location) (Observation, error) {
	log.Printf("DEBUG: weather: lookup for %s with %d providers", loc.Key(), len(s.providers))
	if len(s.providers) == 0 {
		return s.fail(fmt.Errorf("%w: no weather providers configured", ErrLookupFailed))
	}

	var wg sync.WaitGroup
	results := make([]*ProviderReading, len(s.providers))
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()

			r, err := p.Fetch(ctx, loc)
			if err != nil {
				// Log and continue; we want partial success when possible.
				log.Printf("weather: provider %s fetch failed for %s: %v", p.Name(), loc.Key(), err)
				return
			}
			results[i] = &r
		}(i, p)
	}
	wg.Wait()

	readings := make([]ProviderReading, 0, len(results))
	for _, r := range results {
		if r != nil {
			readings = append(readings, *r)
		}
	}

	if len(readings) == 0 {
		return s.fail(fmt.Errorf("%w: no successful provider readings for %s", ErrLookupFailed, loc.Key()))
	}
	if err := ctx.Err(); err != nil {
		return Observation{}, err
	}

	obs := AggregateReadings(loc, readings)

	s.mu.Lock()
	s.latest = &obs
	s.lastFail = nil
	s.mu.Unlock()

	if s.cache != nil {
		temp := strconv.FormatFloat(obs.Temperature, 'f', 1, 64)
		if err := s.cache.PutMany(ctx, map[string]string{KeyCurrentTemperature: temp}); err != nil {
			log.Printf("WARN: weather: could not cache temperature: %v", err)
		}
	}
	return obs, nil
}

// MarkUnavailable records that no lookup could be attempted, e.g. because
// location access was denied, so Report stops presenting stale conditions.
func (s *Service) MarkUnavailable(reason error) {
	s.mu.Lock()
	s.lastFail = reason
	s.mu.Unlock()
}

// Report returns the data to display. After a failed lookup only the cached
// temperature is offered and Available is false.
func (s *Service) Report(ctx context.Context) Report {
	s.mu.RLock()
	latest, lastFail := s.latest, s.lastFail
	s.mu.RUnlock()

	if latest != nil && lastFail == nil {
		temp := latest.Temperature
		return Report{
			Available:     true,
			Condition:     latest.Condition,
			Precipitating: latest.Precipitating,
			Temperature:   &temp,
			ObservedAt:    latest.Timestamp,
		}
	}

	rep := Report{}
	if temp, ok := s.cachedTemperature(ctx); ok {
		rep.Temperature = &temp
		rep.Cached = true
	}
	return rep
}

func (s *Service) cachedTemperature(ctx context.Context) (float64, bool) {
	if s.cache == nil {
		return 0, false
	}
	raw, err := s.cache.Get(ctx, KeyCurrentTemperature)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("WARN: weather: ignoring malformed cached temperature %q", raw)
		return 0, false
	}
	return v, true
}

func (s *Service) fail(err error) (Observation, error) {
	if !errors.Is(err, context.Canceled) {
		log.Printf("ERROR: %v", err)
	}
	s.MarkUnavailable(err)
	return Observation{}, err
}
