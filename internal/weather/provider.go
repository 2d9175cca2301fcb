package weather

import (
	"context"
	"time"
)

// ProviderReading represents a single provider's normalized reading
// that can be aggregated into an Observation.
type ProviderReading struct {
	ProviderName string
	Timestamp    time.Time

	TemperatureC float64
	HumidityPct  float64
	WindSpeedMS  float64
	Condition    Condition
}

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (ProviderReading, error)
}

// Cache persists the last observed temperature for offline display.
// Missing keys are reported as store.ErrNotFound.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	PutMany(ctx context.Context, records map[string]string) error
}
