package weather

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLookupFailed is returned when no provider produced a reading.
	ErrLookupFailed = errors.New("weather lookup failed")
	// ErrMalformedResponse marks a provider payload that could not be decoded.
	ErrMalformedResponse = errors.New("malformed weather response")
)

// Condition is a normalised condition label. The vocabulary follows the
// OpenWeatherMap icon groups so every provider speaks the same labels.
type Condition string

const (
	ConditionUnknown         Condition = ""
	ConditionClearSky        Condition = "clear sky"
	ConditionFewClouds       Condition = "few clouds"
	ConditionScatteredClouds Condition = "scattered clouds"
	ConditionBrokenClouds    Condition = "broken clouds"
	ConditionShowerRain      Condition = "shower rain"
	ConditionRain            Condition = "rain"
	ConditionThunderstorm    Condition = "thunderstorm"
	ConditionSnow            Condition = "snow"
	ConditionMist            Condition = "mist"
)

// Location is a point to look weather up for.
type Location struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Key returns a canonical string key for logs.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// Observation is the aggregated weather view at a point in time.
type Observation struct {
	Location      Location  `json:"location"`
	Timestamp     time.Time `json:"timestamp"` // always UTC
	Temperature   float64   `json:"temperatureC"`
	Humidity      float64   `json:"humidityPercent"`
	WindSpeed     float64   `json:"windSpeed"`
	Condition     Condition `json:"condition"`
	Precipitating bool      `json:"precipitating"`

	// Providers contributing to this observation.
	Providers []ProviderContribution `json:"providers,omitempty"`
}

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
	Condition    Condition `json:"condition"`
}

// Report is what the app displays: the latest observation when the last
// lookup succeeded, otherwise the cached temperature only.
type Report struct {
	Available     bool      `json:"available"`
	Condition     Condition `json:"condition,omitempty"`
	Precipitating bool      `json:"precipitating"`
	Temperature   *float64  `json:"temperatureC,omitempty"`
	ObservedAt    time.Time `json:"observedAt,omitempty"`
	// Cached is true when Temperature comes from the offline cache.
	Cached bool `json:"cached"`
}
