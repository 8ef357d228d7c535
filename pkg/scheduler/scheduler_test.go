package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	daily  atomic.Int64
	urgent atomic.Int64

	// block, when set, holds RunDailyScan until released.
	block chan struct{}
}

func (r *countingRunner) RunDailyScan(ctx context.Context) error {
	if r.block != nil {
		<-r.block
	}
	r.daily.Add(1)
	return nil
}

func (r *countingRunner) RunUrgentScan(ctx context.Context) error {
	r.urgent.Add(1)
	return nil
}

type panickingRunner struct{}

func (panickingRunner) RunDailyScan(ctx context.Context) error  { panic("boom") }
func (panickingRunner) RunUrgentScan(ctx context.Context) error { panic("boom") }

func TestNewRejectsBadTimeOfDay(t *testing.T) {
	_, err := New(&countingRunner{}, "25:99", time.Hour)
	assert.Error(t, err)

	_, err = New(&countingRunner{}, "8am", time.Hour)
	assert.Error(t, err)

	_, err = New(&countingRunner{}, "08:00", time.Hour)
	assert.NoError(t, err)
}

func TestStartIsIdempotent(t *testing.T) {
	s, err := New(&countingRunner{}, "08:00", time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)
}

func TestStopWithoutStart(t *testing.T) {
	s, err := New(&countingRunner{}, "08:00", time.Hour)
	require.NoError(t, err)

	// Must not block or panic.
	s.Stop()
}

func TestTriggerManualScan(t *testing.T) {
	runner := &countingRunner{}
	s, err := New(runner, "08:00", time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.TriggerManualScan(context.Background()))
	assert.Equal(t, int64(1), runner.daily.Load())
}

func TestManualScanSkipsWhenAlreadyRunning(t *testing.T) {
	runner := &countingRunner{block: make(chan struct{})}
	s, err := New(runner, "08:00", time.Hour)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.TriggerManualScan(context.Background())
	}()

	// Wait until the first scan holds the per-kind lock.
	assert.Eventually(t, func() bool {
		if s.dailyMu.TryLock() {
			s.dailyMu.Unlock()
			return false
		}
		return true
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, s.TriggerManualScan(context.Background()), ErrScanInProgress)

	close(runner.block)
	wg.Wait()
	assert.Equal(t, int64(1), runner.daily.Load())
}

func TestScanPanicIsRecovered(t *testing.T) {
	s, err := New(panickingRunner{}, "08:00", time.Hour)
	require.NoError(t, err)

	err = s.TriggerManualScan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// The per-kind lock must have been released by the panicking scan.
	assert.Error(t, s.TriggerManualScan(context.Background()))
	assert.NotErrorIs(t, s.TriggerManualScan(context.Background()), ErrScanInProgress)
}

func TestUrgentLoopTicks(t *testing.T) {
	runner := &countingRunner{}
	s, err := New(runner, "08:00", 20*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool {
		return runner.urgent.Load() >= 2
	}, time.Second, 10*time.Millisecond)

	s.Stop()

	stopped := runner.urgent.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, runner.urgent.Load(), "no ticks after Stop")
}

func TestUntilNext(t *testing.T) {
	base := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)

	// 08:00 today is two hours away.
	assert.Equal(t, 2*time.Hour, untilNext(base, 8*time.Hour))

	// 08:00 already passed: next occurrence is tomorrow.
	later := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 23*time.Hour, untilNext(later, 8*time.Hour))
}
