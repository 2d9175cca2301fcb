package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/stiffy-wanderers/internal/common"
	"github.com/i474232898/stiffy-wanderers/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/current.json",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, fmt.Errorf("weatherapi api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current *struct {
			LastUpdatedEpoch int64   `json:"last_updated_epoch"`
			TempC            float64 `json:"temp_c"`
			Humidity         float64 `json:"humidity"`
			WindKph          float64 `json:"wind_kph"`
			Condition        struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := decodeJSON(resp.Body, &payload); err != nil {
		return weather.ProviderReading{}, err
	}
	if payload.Current == nil {
		return weather.ProviderReading{}, fmt.Errorf("%w: missing current block", weather.ErrMalformedResponse)
	}

	ts := time.Now().UTC()
	if payload.Current.LastUpdatedEpoch > 0 {
		ts = time.Unix(payload.Current.LastUpdatedEpoch, 0).UTC()
	}

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: payload.Current.TempC,
		HumidityPct:  payload.Current.Humidity,
		// Convert wind from kph to m/s (approx).
		WindSpeedMS: payload.Current.WindKph / 3.6,
		Condition:   mapWeatherAPICondition(payload.Current.Condition.Text),
	}, nil
}

// mapWeatherAPICondition folds WeatherAPI's free-text condition into the
// shared labels. Order matters: "rain with thunder" is a thunderstorm and
// "snow showers" is snow.
func mapWeatherAPICondition(text string) weather.Condition {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case t == "":
		return weather.ConditionUnknown
	case common.HasAny(t, "thunder", "storm"):
		return weather.ConditionThunderstorm
	case common.HasAny(t, "snow", "sleet", "blizzard", "ice pellets"):
		return weather.ConditionSnow
	case common.HasAny(t, "shower", "drizzle"):
		return weather.ConditionShowerRain
	case common.HasAny(t, "rain"):
		return weather.ConditionRain
	case common.HasAny(t, "mist", "fog"):
		return weather.ConditionMist
	case common.HasAny(t, "overcast", "cloudy") && !common.HasAny(t, "partly"):
		return weather.ConditionBrokenClouds
	case common.HasAny(t, "partly"):
		return weather.ConditionScatteredClouds
	case common.HasAny(t, "sunny", "clear"):
		return weather.ConditionClearSky
	default:
		return weather.Condition(t)
	}
}
