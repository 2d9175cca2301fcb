package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
)

// Geocoder resolves place names to coordinates and back.
type Geocoder interface {
	Geocode(ctx context.Context, city, country string) (Coordinate, error)
	Reverse(ctx context.Context, c Coordinate) (string, error)
}

// GoogleGeocoder wraps github.com/kelvins/geocoder (Google Geocoding API).
type GoogleGeocoder struct{}

// NewGoogleGeocoder sets the package-wide API key used by kelvins/geocoder.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, city, country string) (Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return Coordinate{}, err
	}
	loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocode %s, %s: %w", city, country, err)
	}
	return Coordinate{Latitude: loc.Latitude, Longitude: loc.Longitude}, nil
}

func (g *GoogleGeocoder) Reverse(ctx context.Context, c Coordinate) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	addrs, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: c.Latitude, Longitude: c.Longitude})
	if err != nil {
		return "", fmt.Errorf("reverse geocode %s: %w", c, err)
	}
	for _, a := range addrs {
		if a.City == "" {
			continue
		}
		if a.Country != "" {
			return a.City + ", " + a.Country, nil
		}
		return a.City, nil
	}
	return "", errors.New("reverse geocode: no city in results")
}

// HomeProvider resolves a configured home city once and then serves it.
type HomeProvider struct {
	geocoder Geocoder
	city     string
	country  string

	mu  sync.Mutex
	fix *Coordinate
}

func NewHomeProvider(g Geocoder, city, country string) *HomeProvider {
	return &HomeProvider{
		geocoder: g,
		city:     strings.TrimSpace(city),
		country:  strings.TrimSpace(country),
	}
}

func (h *HomeProvider) Locate(ctx context.Context) (Coordinate, error) {
	if h.city == "" {
		return Coordinate{}, ErrNoFix
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.fix != nil {
		return *h.fix, nil
	}
	c, err := h.geocoder.Geocode(ctx, h.city, h.country)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrNoFix, err)
	}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	h.fix = &c
	return c, nil
}
