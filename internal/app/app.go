package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/i474232898/stiffy-wanderers/internal/calendar"
	"github.com/i474232898/stiffy-wanderers/internal/config"
	"github.com/i474232898/stiffy-wanderers/internal/event"
	"github.com/i474232898/stiffy-wanderers/internal/location"
	"github.com/i474232898/stiffy-wanderers/internal/presentation"
	"github.com/i474232898/stiffy-wanderers/internal/progress"
	"github.com/i474232898/stiffy-wanderers/internal/refresh"
	"github.com/i474232898/stiffy-wanderers/internal/store"
	"github.com/i474232898/stiffy-wanderers/internal/weather"
	"github.com/i474232898/stiffy-wanderers/internal/weather/providers"
)

// App is the assembled engine with everything the CLI and server drive.
type App struct {
	Store     store.Store
	Oracle    calendar.Oracle
	Events    *event.Bus
	Overlays  *presentation.Coordinator
	Engine    *progress.Engine
	Weather   *weather.Service
	Device    *location.DeviceProvider
	Tracker   *location.Tracker
	Refresher *refresh.Refresher
}

// Open builds an App from cfg. Callers must Close it.
func Open(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Printf("INFO: store: using %s backend", driverName(cfg.Store.Driver))

	a := &App{
		Store:    s,
		Oracle:   calendar.NewSystemOracle(cfg.Location),
		Overlays: presentation.NewCoordinator(),
		Device:   location.NewDeviceProvider(),
	}
	a.Events = event.NewBus(event.LogObserver, a.Overlays)

	a.Engine, err = progress.Open(ctx, s, a.Oracle, a.Events)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	a.Weather = weather.NewService(weatherProviders(cfg, httpClient), s)

	var locator location.Provider = a.Device
	var resolver location.AreaResolver = location.GridResolver{CellDegrees: cfg.AreaCellDegrees}
	if cfg.GeocoderAPIKey != "" {
		geo := location.NewGoogleGeocoder(cfg.GeocoderAPIKey)
		locator = location.Fallback{
			Primary:   a.Device,
			Secondary: location.NewHomeProvider(geo, cfg.HomeCity, cfg.HomeCountry),
		}
		resolver = location.GeocodedResolver{Geocoder: geo, Fallback: resolver}
	}
	a.Tracker = location.NewTracker(resolver, s, a.Events)
	a.Refresher = refresh.New(locator, a.Tracker, a.Weather, a.Engine)

	return a, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// weatherProviders returns the providers that are usable with cfg.
func weatherProviders(cfg *config.AppConfig, client *http.Client) []weather.Provider {
	var provs []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey))
	}
	if cfg.OpenMeteoEnabled {
		provs = append(provs, providers.NewOpenMeteoProvider(client))
	}
	if len(provs) == 0 {
		log.Println("WARN: no weather providers configured; weather will be unavailable")
	}
	return provs
}

func driverName(d string) string {
	if d == "" {
		return store.DriverSQLite
	}
	return d
}
