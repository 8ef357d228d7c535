// Package scheduler owns the recurring expiry scan triggers: a daily bulk
// scan at a fixed wall-clock time and an urgent same-day scan on a short
// interval. It is constructed once at process start and threaded through
// the startup/shutdown sequence; there is no package-level state.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ScanRunner executes the expiry scans.
type ScanRunner interface {
	RunDailyScan(ctx context.Context) error
	RunUrgentScan(ctx context.Context) error
}

var (
	ErrAlreadyStarted = errors.New("scheduler already started")

	// ErrScanInProgress is returned when a scan of the same kind is
	// currently running. The caller is expected to skip, not queue.
	ErrScanInProgress = errors.New("scan already in progress")
)

type Scheduler struct {
	runner         ScanRunner
	dailyAt        time.Duration // offset from local midnight
	urgentInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Per-kind guards: a scan kind never overlaps with itself, while the
	// daily and urgent kinds may run concurrently with each other.
	dailyMu  sync.Mutex
	urgentMu sync.Mutex
}

// New creates a Scheduler. dailyAt is a wall-clock time in "HH:MM" form.
func New(runner ScanRunner, dailyAt string, urgentInterval time.Duration) (*Scheduler, error) {
	offset, err := parseTimeOfDay(dailyAt)
	if err != nil {
		return nil, err
	}
	if urgentInterval <= 0 {
		urgentInterval = time.Hour
	}

	return &Scheduler{
		runner:         runner,
		dailyAt:        offset,
		urgentInterval: urgentInterval,
	}, nil
}

// Start launches both recurring triggers. Calling Start on a scheduler
// that is already running returns ErrAlreadyStarted; callers report it
// and carry on.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(2)
	go s.dailyLoop(ctx)
	go s.urgentLoop(ctx)

	logrus.Info("Expiry scheduler started")
	return nil
}

// Stop cancels future ticks and waits for any in-flight scan to finish.
// Scans are never interrupted mid-item; cancellation is cooperative.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	logrus.Info("Expiry scheduler stopped")
}

// TriggerManualScan runs the daily-scan logic immediately, outside the
// schedule. It obeys the same skip-if-running rule as the scheduled tick,
// so it is safe to call at any time, including during a scheduled scan.
func (s *Scheduler) TriggerManualScan(ctx context.Context) error {
	return s.runDaily(ctx)
}

func (s *Scheduler) dailyLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		timer := time.NewTimer(untilNext(time.Now(), s.dailyAt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			// The scan itself runs on a detached context: Stop cancels
			// future ticks only, never the tick already in flight.
			if err := s.runDaily(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, ErrScanInProgress) {
				logrus.Errorf("Daily expiry scan failed: %v", err)
			}
		}
	}
}

func (s *Scheduler) urgentLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.urgentInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runUrgent(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, ErrScanInProgress) {
				logrus.Errorf("Urgent expiry scan failed: %v", err)
			}
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context) (err error) {
	if !s.dailyMu.TryLock() {
		logrus.Warn("Daily scan already running, skipping")
		return ErrScanInProgress
	}
	defer s.dailyMu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("daily scan panicked: %v", p)
			logrus.Error(err)
		}
	}()

	return s.runner.RunDailyScan(ctx)
}

func (s *Scheduler) runUrgent(ctx context.Context) (err error) {
	if !s.urgentMu.TryLock() {
		logrus.Warn("Urgent scan already running, skipping")
		return ErrScanInProgress
	}
	defer s.urgentMu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("urgent scan panicked: %v", p)
			logrus.Error(err)
		}
	}()

	return s.runner.RunUrgentScan(ctx)
}

// untilNext returns the duration from now to the next occurrence of the
// given offset-from-midnight, in now's location.
func untilNext(now time.Time, offset time.Duration) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(offset)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

func parseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
