package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/stiffy-wanderers/internal/weather"
)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%f", loc.Lon))
		values.Set("current_weather", "true")
		values.Set("timeformat", "unixtime")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		CurrentWeather *struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
			Time        int64   `json:"time"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
	}

	if err := decodeJSON(resp.Body, &payload); err != nil {
		return weather.ProviderReading{}, err
	}
	if payload.CurrentWeather == nil {
		return weather.ProviderReading{}, fmt.Errorf("%w: missing current_weather", weather.ErrMalformedResponse)
	}

	ts := time.Now().UTC()
	if payload.CurrentWeather.Time > 0 {
		ts = time.Unix(payload.CurrentWeather.Time, 0).UTC()
	}

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: payload.CurrentWeather.Temperature,
		// Open-Meteo reports km/h.
		WindSpeedMS: payload.CurrentWeather.WindSpeed / 3.6,
		Condition:   mapOpenMeteoCondition(payload.CurrentWeather.WeatherCode),
	}, nil
}

// mapOpenMeteoCondition maps WMO weather codes onto the shared labels.
func mapOpenMeteoCondition(code int) weather.Condition {
	switch {
	case code == 0:
		return weather.ConditionClearSky
	case code == 1:
		return weather.ConditionFewClouds
	case code == 2:
		return weather.ConditionScatteredClouds
	case code == 3:
		return weather.ConditionBrokenClouds
	case code == 45 || code == 48:
		return weather.ConditionMist
	case code >= 51 && code <= 57:
		return weather.ConditionShowerRain
	case code >= 61 && code <= 67:
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 80 && code <= 82:
		return weather.ConditionShowerRain
	case code >= 95:
		return weather.ConditionThunderstorm
	default:
		return weather.ConditionUnknown
	}
}
