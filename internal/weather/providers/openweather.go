package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/stiffy-wanderers/internal/weather"
)

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lat", fmt.Sprintf("%f", loc.Lat))
		values.Set("lon", fmt.Sprintf("%f", loc.Lon))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64 `json:"dt"`
		Main *struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []openWeatherCondition `json:"weather"`
	}

	if err := decodeJSON(resp.Body, &payload); err != nil {
		return weather.ProviderReading{}, err
	}
	if payload.Main == nil || len(payload.Weather) == 0 {
		return weather.ProviderReading{}, fmt.Errorf("%w: missing main or weather", weather.ErrMalformedResponse)
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: payload.Main.Temp,
		HumidityPct:  payload.Main.Humidity,
		WindSpeedMS:  payload.Wind.Speed,
		Condition:    mapOpenWeatherCondition(payload.Weather[0]),
	}, nil
}

type openWeatherCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// openWeatherIcons maps the icon group (icon code without the day/night
// suffix) to its condition label.
var openWeatherIcons = map[string]weather.Condition{
	"01": weather.ConditionClearSky,
	"02": weather.ConditionFewClouds,
	"03": weather.ConditionScatteredClouds,
	"04": weather.ConditionBrokenClouds,
	"09": weather.ConditionShowerRain,
	"10": weather.ConditionRain,
	"11": weather.ConditionThunderstorm,
	"13": weather.ConditionSnow,
	"50": weather.ConditionMist,
}

func mapOpenWeatherCondition(c openWeatherCondition) weather.Condition {
	if len(c.Icon) >= 2 {
		if cond, ok := openWeatherIcons[c.Icon[:2]]; ok {
			return cond
		}
	}
	switch c.Main {
	case "Clear":
		return weather.ConditionClearSky
	case "Clouds":
		return weather.ConditionBrokenClouds
	case "Drizzle":
		return weather.ConditionShowerRain
	case "Rain":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionThunderstorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust", "Sand":
		return weather.ConditionMist
	default:
		return weather.Condition(strings.ToLower(c.Description))
	}
}
