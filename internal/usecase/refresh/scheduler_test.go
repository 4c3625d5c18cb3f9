package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/domain/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRunner records how many batches were requested
type countingRunner struct {
	calls   atomic.Int32
	summary domain.RefreshSummary
	err     error
}

func (r *countingRunner) RefreshAll(ctx context.Context) (domain.RefreshSummary, error) {
	r.calls.Add(1)
	return r.summary, r.err
}

func TestScheduler_RunOnceRefreshesAndPrunes(t *testing.T) {
	ctx := context.Background()
	runner := &countingRunner{summary: domain.RefreshSummary{Total: 2, Updated: 2}}
	history := new(mocks.PriceHistoryRepository)

	now := time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC)
	scheduler := NewScheduler(runner, history, SchedulerConfig{Interval: time.Hour, Retention: 90 * 24 * time.Hour}, nil)
	scheduler.now = func() time.Time { return now }

	history.On("DeleteOlderThan", ctx, now.Add(-90*24*time.Hour)).Return(int64(4), nil).Once()

	summary, err := scheduler.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, int32(1), runner.calls.Load())
	history.AssertExpectations(t)
}

func TestScheduler_RunOncePrunesEvenWhenBatchFails(t *testing.T) {
	ctx := context.Background()
	runner := &countingRunner{err: errors.New("db down")}
	history := new(mocks.PriceHistoryRepository)

	now := time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC)
	scheduler := NewScheduler(runner, history, SchedulerConfig{Retention: time.Hour}, nil)
	scheduler.now = func() time.Time { return now }
	history.On("DeleteOlderThan", ctx, now.Add(-time.Hour)).Return(int64(0), nil).Once()

	_, err := scheduler.RunOnce(ctx)

	assert.ErrorContains(t, err, "db down")
	history.AssertExpectations(t)
}

func TestScheduler_BatchAlreadyRunningIsReported(t *testing.T) {
	runner := &countingRunner{err: domain.ErrBatchRunning}
	scheduler := NewScheduler(runner, nil, SchedulerConfig{}, nil)

	_, err := scheduler.RunOnce(context.Background())

	assert.ErrorIs(t, err, domain.ErrBatchRunning)
}

func TestScheduler_PruneDisabledWithoutRetention(t *testing.T) {
	history := new(mocks.PriceHistoryRepository)
	scheduler := NewScheduler(&countingRunner{}, history, SchedulerConfig{}, nil)

	removed, err := scheduler.Prune(context.Background())

	require.NoError(t, err)
	assert.Zero(t, removed)
	history.AssertNotCalled(t, "DeleteOlderThan")
}

func TestScheduler_StartRunsOnStartAndOnTicks(t *testing.T) {
	runner := &countingRunner{}
	scheduler := NewScheduler(runner, nil, SchedulerConfig{Interval: 10 * time.Millisecond, RunOnStart: true}, nil)

	scheduler.Start(context.Background())

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	scheduler.Stop()

	// No further runs once stopped
	stopped := runner.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, runner.calls.Load())
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	runner := &countingRunner{}
	scheduler := NewScheduler(runner, nil, SchedulerConfig{Interval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	cancel()

	select {
	case <-scheduler.done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancel")
	}
	assert.Zero(t, runner.calls.Load())

	// Stop after cancel must not block or panic
	assert.NotPanics(t, scheduler.Stop)
}
