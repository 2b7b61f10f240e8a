package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/aqi-nextday/internal/quota"
)

// Scheduler resets the shared usage counter at local midnight so the first
// request of the day does not pay for the reset write.
type Scheduler struct {
	scheduler *gocron.Scheduler
	tracker   *quota.Tracker
	timeout   time.Duration
}

// New creates a Scheduler whose day boundary is midnight in loc.
func New(tracker *quota.Tracker, loc *time.Location, timeout time.Duration) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		tracker:   tracker,
		timeout:   timeout,
	}
}

// Start schedules the daily job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At("00:00").Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// run reads the counter, which rewrites it when the stored day is stale.
func (s *Scheduler) run() {
	log.Println("scheduler: running daily quota reset")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	u := s.tracker.Current(ctx)
	log.Printf("scheduler: quota at %d/%d since %s", u.Count, u.Max, u.LastReset.Format("2006-01-02"))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Jobs reports how many jobs are scheduled.
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}
