package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-session/internal/store"
)

// Target is the subset of the weather store the refresher drives.
type Target interface {
	CurrentLocation() (string, bool)
	IsLoading() bool
	FetchWeather(ctx context.Context, query string) store.State
}

// Scheduler periodically re-fetches the location currently on display.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Target
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. A non-positive interval disables it.
func New(target Target, interval, timeout time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		target:    target,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: refresh interval not set; nothing to schedule")
		return nil
	}

	// The first run is deferred by one interval so startup does not fetch.
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes the current location. It is a no-op when nothing has been
// fetched yet or a fetch is already in flight.
func (s *Scheduler) RunOnce() {
	loc, ok := s.target.CurrentLocation()
	if !ok {
		log.Println("scheduler: no current location; skipping refresh")
		return
	}
	if s.target.IsLoading() {
		log.Println("scheduler: fetch in flight; skipping refresh")
		return
	}

	timeout := s.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Printf("scheduler: refreshing weather for %q", loc)
	st := s.target.FetchWeather(ctx, loc)
	if st.Error != nil {
		log.Printf("scheduler: refresh failed for %q: %s", loc, *st.Error)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
