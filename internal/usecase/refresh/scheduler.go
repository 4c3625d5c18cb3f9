package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/logging"
)

// BatchRunner runs a full refresh pass. Implemented by *Orchestrator.
type BatchRunner interface {
	RefreshAll(ctx context.Context) (domain.RefreshSummary, error)
}

// SchedulerConfig controls the periodic refresh job
type SchedulerConfig struct {
	Interval   time.Duration
	RunOnStart bool
	// Retention is how long price snapshots are kept; 0 keeps everything
	Retention time.Duration
	// RunTimeout bounds a single run, 0 means no bound
	RunTimeout time.Duration
}

// Scheduler refreshes every investment on a fixed interval and prunes old price history
type Scheduler struct {
	Runner           BatchRunner
	PriceHistoryRepo domain.PriceHistoryRepository

	cfg SchedulerConfig
	log *log.Logger
	now func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new Scheduler instance. historyRepo may be nil when Retention is 0.
func NewScheduler(runner BatchRunner, historyRepo domain.PriceHistoryRepository, cfg SchedulerConfig, logger *log.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{
		Runner:           runner,
		PriceHistoryRepo: historyRepo,
		cfg:              cfg,
		log:              logger,
		now:              time.Now,
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}
}

// Start launches the background loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
	s.log.Info().Dur("interval", s.cfg.Interval).Bool("run_on_start", s.cfg.RunOnStart).Msg("refresh scheduler started")
}

// Stop ends the loop and waits for a run in progress to return
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// RunOnce performs one refresh pass followed by history pruning
// Logic:
//   - A batch already running (e.g. triggered over the API) is not doubled up
//   - Pruning runs even when the batch fails, it does not depend on fresh prices
func (s *Scheduler) RunOnce(ctx context.Context) (domain.RefreshSummary, error) {
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	summary, err := s.Runner.RefreshAll(ctx)
	switch {
	case errors.Is(err, domain.ErrBatchRunning):
		s.log.Info().Msg("scheduled refresh skipped, batch already running")
	case err != nil:
		s.log.Error().Err(err).Msg("scheduled refresh failed")
	default:
		s.log.Info().
			Int("total", summary.Total).
			Int("updated", summary.Updated).
			Int("failed", summary.Failed).
			Int("rate_limited", summary.RateLimited).
			Int("unchanged", summary.Unchanged).
			Msg("scheduled refresh finished")
	}

	if _, pruneErr := s.Prune(ctx); pruneErr != nil {
		s.log.Error().Err(pruneErr).Msg("price history pruning failed")
	}

	return summary, err
}

// Prune deletes snapshots older than the retention window
func (s *Scheduler) Prune(ctx context.Context) (int64, error) {
	if s.cfg.Retention <= 0 || s.PriceHistoryRepo == nil {
		return 0, nil
	}

	cutoff := s.now().Add(-s.cfg.Retention)
	removed, err := s.PriceHistoryRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Str("cutoff", cutoff.Format(time.RFC3339)).Msg("pruned price history")
	}
	return removed, nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	if s.cfg.RunOnStart {
		_, _ = s.RunOnce(ctx)
	}

	// Runs execute on this goroutine, so ticks that fire during a run are dropped
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		case <-s.stop:
			s.log.Info().Msg("refresh scheduler stopped")
			return
		case <-ctx.Done():
			s.log.Info().Err(ctx.Err()).Msg("refresh scheduler stopped")
			return
		}
	}
}
