package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/stiffy-wanderers/internal/refresh"
)

// DefaultInterval is used when no positive interval is configured.
const DefaultInterval = 15 * time.Minute

// Refresher runs one refresh cycle.
type Refresher interface {
	Refresh(ctx context.Context) (refresh.Result, error)
}

// Scheduler periodically refreshes location and weather, plus once right
// after local midnight so a new day's rain is picked up promptly.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler running in loc.
func New(refresher Refresher, interval, timeout time.Duration, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	if _, err := s.scheduler.Every(interval).Do(s.run, "interval"); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(1).Day().At("00:00:05").WaitForSchedule().Do(s.run, "day rollover"); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("INFO: scheduler: refreshing every %s", interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) run(trigger string) {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Printf("DEBUG: scheduler: running %s refresh", trigger)
	res, err := s.refresher.Refresh(ctx)
	if err != nil {
		log.Printf("ERROR: scheduler: %s refresh failed: %v", trigger, err)
		return
	}
	log.Printf("DEBUG: scheduler: %s refresh done (weather=%v precipitating=%v value=%.4f)",
		trigger, res.WeatherAvailable, res.Precipitating, res.Outcome.Value)
}
