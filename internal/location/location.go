package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrPermissionDenied is returned when the user refused location access.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrNoFix is returned when no coordinate is known yet.
	ErrNoFix = errors.New("no location fix")
	// ErrInvalidCoordinate is returned for out-of-range latitude or longitude.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Coordinate is a WGS84 position.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: %.5f,%.5f", ErrInvalidCoordinate, c.Latitude, c.Longitude)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Latitude, c.Longitude)
}

// Provider supplies the current coordinate or a denial.
type Provider interface {
	Locate(ctx context.Context) (Coordinate, error)
}

// DeviceProvider holds the last fix or denial reported by the app.
type DeviceProvider struct {
	mu     sync.RWMutex
	fix    *Coordinate
	at     time.Time
	denied bool
}

func NewDeviceProvider() *DeviceProvider {
	return &DeviceProvider{}
}

// Report records a fix. It also lifts an earlier denial.
func (d *DeviceProvider) Report(c Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	d.fix = &c
	d.at = time.Now().UTC()
	d.denied = false
	d.mu.Unlock()
	return nil
}

// Deny records that the user refused location access.
func (d *DeviceProvider) Deny() {
	d.mu.Lock()
	d.denied = true
	d.fix = nil
	d.mu.Unlock()
}

// LastFix returns the last reported coordinate and when it arrived.
func (d *DeviceProvider) LastFix() (Coordinate, time.Time, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.fix == nil {
		return Coordinate{}, time.Time{}, false
	}
	return *d.fix, d.at, true
}

// Denied reports whether the user refused location access.
func (d *DeviceProvider) Denied() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.denied
}

func (d *DeviceProvider) Locate(ctx context.Context) (Coordinate, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.denied {
		return Coordinate{}, ErrPermissionDenied
	}
	if d.fix == nil {
		return Coordinate{}, ErrNoFix
	}
	return *d.fix, nil
}

// Fallback asks Primary first and Secondary only when Primary has no fix.
// A denial from Primary is final.
type Fallback struct {
	Primary   Provider
	Secondary Provider
}

func (f Fallback) Locate(ctx context.Context) (Coordinate, error) {
	c, err := f.Primary.Locate(ctx)
	if err == nil || f.Secondary == nil || !errors.Is(err, ErrNoFix) {
		return c, err
	}
	return f.Secondary.Locate(ctx)
}
