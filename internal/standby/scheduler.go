// Package standby runs per-device standby schedules. Each device may carry a
// five-field cron expression; when it fires, the registered callback puts the
// device into network standby.
package standby

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a single cron runner and tracks one job per device.
type Scheduler struct {
	logger *log.Logger
	parser cron.Parser
	cron   *cron.Cron

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

func NewScheduler(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	// Standard 5 fields: minute, hour, day-of-month, month, day-of-week.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Scheduler{
		logger: logger,
		parser: parser,
		cron:   cron.New(cron.WithParser(parser)),
		jobs:   make(map[string]cron.EntryID),
	}
}

// Validate checks a cron expression without registering anything.
func (s *Scheduler) Validate(schedule string) error {
	if _, err := s.parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// Set registers or replaces the standby job for one device.
func (s *Scheduler) Set(deviceID, schedule string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.jobs[deviceID]; ok {
		s.cron.Remove(id)
		delete(s.jobs, deviceID)
	}
	id, err := s.cron.AddFunc(schedule, fn)
	if err != nil {
		return fmt.Errorf("schedule standby for %s: %w", deviceID, err)
	}
	s.jobs[deviceID] = id
	s.logger.Printf("standby: scheduled device %s at %q", deviceID, schedule)
	return nil
}

// Remove cancels the standby job for one device, if any.
func (s *Scheduler) Remove(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.jobs[deviceID]; ok {
		s.cron.Remove(id)
		delete(s.jobs, deviceID)
	}
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
