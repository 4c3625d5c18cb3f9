package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/logging"
)

// Config controls refresh throttling
type Config struct {
	// Cooldown is how long an item stays locked after an attempt ends, successful or not
	Cooldown time.Duration
	// CallInterval is the minimum gap between the end of one upstream call and the start of the next
	CallInterval time.Duration
}

// DefaultConfig returns a 5s cooldown and a 3s gap between upstream calls
func DefaultConfig() Config {
	return Config{
		Cooldown:     5 * time.Second,
		CallInterval: 3 * time.Second,
	}
}

// ItemState is the refresh state of one investment
type ItemState string

const (
	StateIdle     ItemState = "idle"
	StateInFlight ItemState = "in_flight"
	StateCooldown ItemState = "cooldown"
)

// ItemStatus reports the refresh state of one investment
type ItemStatus struct {
	State     ItemState
	Remaining time.Duration // Left on the cooldown, 0 otherwise
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSleeper replaces the ctx-aware wait used by the call pacer
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = sleep }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// Orchestrator refreshes investment prices from a PriceSource.
// Each item moves idle -> in_flight -> cooldown -> idle; an item is never
// fetched twice at once, and upstream calls are serialized and paced.
type Orchestrator struct {
	InvestmentRepo   domain.InvestmentRepository
	PriceHistoryRepo domain.PriceHistoryRepository
	Source           domain.PriceSource

	cfg   Config
	log   *log.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	// reservation table, guarded by mu
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
	cooldown map[uuid.UUID]time.Time // item id -> cooldown expiry

	// callSlot serializes upstream calls, lastCall is guarded by it
	callSlot chan struct{}
	lastCall time.Time

	batchMu sync.Mutex
}

// NewOrchestrator creates a new Orchestrator instance
func NewOrchestrator(
	investmentRepo domain.InvestmentRepository,
	priceHistoryRepo domain.PriceHistoryRepository,
	source domain.PriceSource,
	cfg Config,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		InvestmentRepo:   investmentRepo,
		PriceHistoryRepo: priceHistoryRepo,
		Source:           source,
		cfg:              cfg,
		log:              logging.Discard(),
		now:              time.Now,
		sleep:            sleepContext,
		inFlight:         make(map[uuid.UUID]struct{}),
		cooldown:         make(map[uuid.UUID]time.Time),
		callSlot:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RefreshOne fetches the current price of a single investment
// Logic:
//   - Fails fast with a CooldownError if the item is in flight or cooling down
//   - On success updates current_price and appends a price snapshot
//   - A quote no newer than price_last_updated (e.g. served from a cache) is reported as unchanged and not stored
//   - On failure leaves current_price untouched
//   - Either way the cooldown starts when the attempt ends
func (o *Orchestrator) RefreshOne(ctx context.Context, id uuid.UUID) (domain.RefreshOutcome, error) {
	if err := o.reserve(id); err != nil {
		o.log.Debug().Str("investment_id", id.String()).Err(err).Msg("refresh rejected")
		return domain.RefreshOutcome{InvestmentID: id}, err
	}

	inv, err := o.InvestmentRepo.GetByID(ctx, id)
	if err != nil {
		o.release(id, false)
		return domain.RefreshOutcome{InvestmentID: id}, err
	}

	outcome, err := o.attempt(ctx, inv)
	o.release(id, true)

	return outcome, err
}

// RefreshAll refreshes every investment, one at a time, in collection order
// Logic:
//   - Items already claimed by a manual refresh or still cooling down are skipped
//   - A failed item is counted and never aborts the batch
//   - Only one batch runs at a time
func (o *Orchestrator) RefreshAll(ctx context.Context) (domain.RefreshSummary, error) {
	if !o.batchMu.TryLock() {
		return domain.RefreshSummary{}, domain.ErrBatchRunning
	}
	defer o.batchMu.Unlock()

	investments, err := o.InvestmentRepo.List(ctx, domain.Page{})
	if err != nil {
		return domain.RefreshSummary{}, fmt.Errorf("failed to list investments: %w", err)
	}

	summary := domain.RefreshSummary{
		Total:    len(investments),
		Outcomes: make([]domain.RefreshOutcome, 0, len(investments)),
	}
	started := o.now()
	o.log.Info().Int("total", summary.Total).Msg("batch refresh started")

	for _, inv := range investments {
		if err := ctx.Err(); err != nil {
			o.log.Warn().Err(err).Int("processed", len(summary.Outcomes)+summary.Skipped).Msg("batch refresh interrupted")
			return summary, err
		}

		if err := o.reserve(inv.ID); err != nil {
			summary.Skipped++
			o.log.Debug().Str("item", inv.ItemName).Err(err).Msg("batch skipped item")
			continue
		}

		outcome, _ := o.attempt(ctx, inv)
		o.release(inv.ID, true)
		summary.Record(outcome)
	}

	o.log.Info().
		Int("total", summary.Total).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Int("rate_limited", summary.RateLimited).
		Int("unchanged", summary.Unchanged).
		Int("skipped", summary.Skipped).
		Dur("elapsed", o.now().Sub(started)).
		Msg("batch refresh finished")

	return summary, nil
}

// Status reports whether an item is idle, in flight or cooling down
func (o *Orchestrator) Status(id uuid.UUID) ItemStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inFlight[id]; busy {
		return ItemStatus{State: StateInFlight}
	}
	if until, ok := o.cooldown[id]; ok {
		if remaining := until.Sub(o.now()); remaining > 0 {
			return ItemStatus{State: StateCooldown, Remaining: remaining}
		}
	}
	return ItemStatus{State: StateIdle}
}

// reserve claims an item for one upstream call
func (o *Orchestrator) reserve(id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inFlight[id]; busy {
		return &domain.CooldownError{ID: id, InFlight: true}
	}
	if until, ok := o.cooldown[id]; ok {
		if remaining := until.Sub(o.now()); remaining > 0 {
			return &domain.CooldownError{ID: id, Remaining: remaining}
		}
		delete(o.cooldown, id)
	}

	o.inFlight[id] = struct{}{}
	return nil
}

// release frees an item, optionally starts its cooldown and drops expired cooldowns
// so entries of deleted items do not pile up
func (o *Orchestrator) release(id uuid.UUID, startCooldown bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.inFlight, id)

	now := o.now()
	for other, until := range o.cooldown {
		if !until.After(now) {
			delete(o.cooldown, other)
		}
	}
	if startCooldown && o.cfg.Cooldown > 0 {
		o.cooldown[id] = now.Add(o.cfg.Cooldown)
	}
}

// attempt performs one upstream call for a reserved item and records the result
func (o *Orchestrator) attempt(ctx context.Context, inv *domain.Investment) (domain.RefreshOutcome, error) {
	outcome := domain.RefreshOutcome{InvestmentID: inv.ID}

	quote, err := o.fetch(ctx, inv.ItemName)
	if err != nil {
		outcome.Reason = err.Error()
		if errors.Is(err, domain.ErrRateLimited) {
			outcome.Status = domain.RefreshRateLimited
		} else {
			outcome.Status = domain.RefreshFailed
			if !errors.Is(err, domain.ErrUpstreamFailed) {
				err = fmt.Errorf("%w: %v", domain.ErrUpstreamFailed, err)
			}
		}
		o.log.Warn().Str("item", inv.ItemName).Str("status", string(outcome.Status)).Err(err).Msg("price refresh failed")
		return outcome, err
	}

	at := quote.FetchedAt
	if at.IsZero() {
		at = o.now()
	}
	price := quote.Price

	// Snapshots are strictly increasing per item, an old observation is not recorded twice
	if last := inv.PriceLastUpdated; last != nil && !at.After(*last) {
		outcome.Status = domain.RefreshUnchanged
		outcome.Price = &price
		outcome.Reason = "quote is not newer than the stored price"
		o.log.Debug().Str("item", inv.ItemName).Str("fetched_at", at.Format(time.RFC3339)).Msg("price unchanged")
		return outcome, nil
	}

	if err := o.InvestmentRepo.UpdatePrice(ctx, inv.ID, quote.Price, at); err != nil {
		outcome.Status = domain.RefreshFailed
		outcome.Reason = err.Error()
		o.log.Error().Str("item", inv.ItemName).Err(err).Msg("failed to store refreshed price")
		return outcome, fmt.Errorf("failed to update price: %w", err)
	}

	source := quote.Source
	if source == "" {
		source = domain.SourceSteamMarket
	}
	snapshot := &domain.PriceSnapshot{
		ID:           uuid.New(),
		InvestmentID: inv.ID,
		Price:        quote.Price,
		Timestamp:    at,
		Source:       source,
		Volume:       quote.Volume,
	}
	if err := o.PriceHistoryRepo.Append(ctx, snapshot); err != nil {
		// History is best effort once the current price is stored
		o.log.Warn().Str("item", inv.ItemName).Err(err).Msg("failed to append price snapshot")
	}

	outcome.Status = domain.RefreshSucceeded
	outcome.Price = &price

	o.log.Info().Str("item", inv.ItemName).Str("price", price.StringFixed(2)).Msg("price refreshed")
	return outcome, nil
}

// fetch waits for the call slot and the pacing interval, then calls the source
func (o *Orchestrator) fetch(ctx context.Context, itemName string) (*domain.PriceQuote, error) {
	select {
	case o.callSlot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-o.callSlot }()

	if !o.lastCall.IsZero() && o.cfg.CallInterval > 0 {
		if wait := o.lastCall.Add(o.cfg.CallInterval).Sub(o.now()); wait > 0 {
			if err := o.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}
	defer func() { o.lastCall = o.now() }()

	return o.Source.FetchPrice(ctx, itemName)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
