package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"rent-monitor/internal/config"
	"rent-monitor/internal/monitor"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the monitoring pass on a daily schedule.
type Scheduler struct {
	cron      *cron.Cron
	runner    *monitor.Runner
	config    *config.Config
	isRunning bool

	mu       sync.Mutex
	passBusy bool
}

func NewScheduler(runner *monitor.Runner, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		config: cfg,
	}
}

// Start registers the daily job and starts the cron loop.
func (s *Scheduler) Start() error {
	if !s.config.Scheduler.DailyRunEnabled {
		log.Println("Scheduler: Daily run is disabled in configuration")
		return nil
	}

	cronSpec := s.parseDailyRunTime(s.config.Scheduler.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("Scheduler: Starting daily monitoring pass...")
		if err := s.RunNow(); err != nil {
			log.Printf("Scheduler: Daily monitoring pass failed: %v", err)
		} else {
			log.Println("Scheduler: Daily monitoring pass completed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with daily run at %s (cron: %s)", s.config.Scheduler.DailyRunTime, cronSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// RunNow executes one monitoring pass. Overlapping passes are rejected
// so a slow fetch never stacks up with the next trigger.
func (s *Scheduler) RunNow() error {
	s.mu.Lock()
	if s.passBusy {
		s.mu.Unlock()
		return fmt.Errorf("a monitoring pass is already running")
	}
	s.passBusy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.passBusy = false
		s.mu.Unlock()
	}()

	result, err := s.runner.Run(context.Background())
	if err != nil {
		return err
	}

	log.Printf("Scheduler: Pass done (fetched=%d new=%d errors=%d)",
		result.Fetched, result.New, result.TargetErrors)
	return nil
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "08:00" -> "0 8 * * *"
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	log.Printf("Scheduler: Failed to parse time '%s', using default 08:00", timeStr)
	return "0 8 * * *"
}
