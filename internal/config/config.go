package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/stiffy-wanderers/internal/store"
)

// MinRefreshInterval is the shortest accepted REFRESH_INTERVAL.
const MinRefreshInterval = time.Minute

type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	OpenMeteoEnabled  bool

	// Geocoding for the home-city fallback and area names.
	GeocoderAPIKey string
	HomeCity       string
	HomeCountry    string
	// AreaCellDegrees sizes the grid used when no geocoder is configured.
	AreaCellDegrees float64

	// RefreshInterval controls how often location and weather are refreshed.
	RefreshInterval time.Duration
	HTTPTimeout     time.Duration

	// Location defines where calendar days start and end.
	Location *time.Location

	Store store.Config

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.OpenMeteoEnabled = getenvBool("OPENMETEO_ENABLED", true)

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.HomeCity = strings.TrimSpace(os.Getenv("HOME_CITY"))
	cfg.HomeCountry = strings.TrimSpace(os.Getenv("HOME_COUNTRY"))

	cell, err := getenvFloat("AREA_CELL_DEGREES", 0.05)
	if err != nil {
		return nil, err
	}
	if cell <= 0 {
		return nil, fmt.Errorf("invalid AREA_CELL_DEGREES: must be positive")
	}
	cfg.AreaCellDegrees = cell

	// Refresh interval: default 15 minutes.
	interval, err := time.ParseDuration(getenvDefault("REFRESH_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	if interval < MinRefreshInterval {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %s is below the %s minimum", interval, MinRefreshInterval)
	}
	cfg.RefreshInterval = interval

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	tz := getenvDefault("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.Store = store.Config{
		Driver: strings.ToLower(getenvDefault("STORE_DRIVER", store.DriverSQLite)),
		Path:   getenvDefault("STORE_PATH", "stiffy.db"),
		DSN:    os.Getenv("STORE_DSN"),
	}
	if cfg.Store.Driver == store.DriverPostgres && cfg.Store.DSN == "" {
		return nil, fmt.Errorf("STORE_DSN is required when STORE_DRIVER=postgres")
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
		log.Printf("WARN: ignoring invalid %s=%q", key, v)
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
