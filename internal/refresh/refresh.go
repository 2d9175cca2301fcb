package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/stiffy-wanderers/internal/location"
	"github.com/i474232898/stiffy-wanderers/internal/progress"
	"github.com/i474232898/stiffy-wanderers/internal/weather"
)

// Locator supplies the coordinate for a refresh.
type Locator interface {
	Locate(ctx context.Context) (location.Coordinate, error)
}

// AreaTracker is told about every coordinate a refresh sees.
type AreaTracker interface {
	Observe(ctx context.Context, c location.Coordinate) (string, bool, error)
}

// WeatherSource looks up current conditions.
type WeatherSource interface {
	Lookup(ctx context.Context, loc weather.Location) (weather.Observation, error)
	MarkUnavailable(reason error)
}

// ProgressSink receives the classifier verdict of each refresh.
type ProgressSink interface {
	ApplyWeather(ctx context.Context, precipitating bool) (progress.Outcome, error)
}

// Result summarises one refresh.
type Result struct {
	At               time.Time            `json:"at"`
	Coordinate       *location.Coordinate `json:"coordinate,omitempty"`
	LocationDenied   bool                 `json:"locationDenied"`
	Area             string               `json:"area,omitempty"`
	NewArea          bool                 `json:"newArea"`
	WeatherAvailable bool                 `json:"weatherAvailable"`
	Condition        weather.Condition    `json:"condition,omitempty"`
	Precipitating    bool                 `json:"precipitating"`
	Outcome          progress.Outcome     `json:"outcome"`
}

// Refresher runs the locate, track, look up and apply cycle. Calls are
// serialised so a scheduled refresh and a manual one never interleave.
type Refresher struct {
	locator Locator
	tracker AreaTracker
	weather WeatherSource
	engine  ProgressSink

	mu sync.Mutex
}

// New creates a Refresher. tracker may be nil.
func New(locator Locator, tracker AreaTracker, ws WeatherSource, engine ProgressSink) *Refresher {
	return &Refresher{locator: locator, tracker: tracker, weather: ws, engine: engine}
}

// Refresh performs one cycle. A denied or missing location makes weather
// unavailable without touching progress. A failed lookup counts as not
// precipitating. A cancelled context never applies the weather rule.
func (r *Refresher) Refresh(ctx context.Context) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := Result{At: time.Now().UTC()}

	coord, err := r.locator.Locate(ctx)
	switch {
	case errors.Is(err, location.ErrPermissionDenied):
		log.Println("INFO: refresh: location denied; weather unavailable")
		r.weather.MarkUnavailable(err)
		res.LocationDenied = true
		return r.dry(ctx, res)
	case errors.Is(err, location.ErrNoFix):
		log.Println("INFO: refresh: no location fix yet; weather unavailable")
		r.weather.MarkUnavailable(err)
		return r.dry(ctx, res)
	case err != nil:
		return res, fmt.Errorf("locate: %w", err)
	}
	res.Coordinate = &coord

	if r.tracker != nil {
		area, jumped, err := r.tracker.Observe(ctx, coord)
		if err != nil {
			log.Printf("WARN: refresh: area tracking failed: %v", err)
		} else {
			res.Area, res.NewArea = area, jumped
		}
	}

	obs, err := r.weather.Lookup(ctx, weather.Location{Lat: coord.Latitude, Lon: coord.Longitude})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		log.Printf("WARN: refresh: weather lookup failed; treating as dry: %v", err)
		return r.dry(ctx, res)
	}
	res.WeatherAvailable = true
	res.Condition = obs.Condition
	res.Precipitating = obs.Precipitating

	if err := ctx.Err(); err != nil {
		return res, err
	}

	out, err := r.engine.ApplyWeather(ctx, obs.Precipitating)
	res.Outcome = out
	if err != nil {
		return res, fmt.Errorf("apply weather: %w", err)
	}
	if out.Credited {
		log.Printf("INFO: refresh: %s counted as precipitation; progress now %.4f", obs.Condition, out.Value)
	}
	return res, nil
}

// dry completes a refresh that saw no precipitation.
func (r *Refresher) dry(ctx context.Context, res Result) (Result, error) {
	out, err := r.engine.ApplyWeather(ctx, false)
	res.Outcome = out
	return res, err
}
