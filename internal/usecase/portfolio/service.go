package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/usecase/history"
	"github.com/simaogato/skinledger-backend/internal/usecase/ranking"
	"github.com/simaogato/skinledger-backend/internal/usecase/sorting"
	"github.com/simaogato/skinledger-backend/internal/usecase/valuation"
)

// SummaryResult is the valuation of the collection plus per-item metrics
type SummaryResult struct {
	valuation.Summary
	Items       map[uuid.UUID]valuation.ItemMetrics
	GeneratedAt time.Time
}

// BrowseItem pairs an investment with its metrics
type BrowseItem struct {
	Investment *domain.Investment
	Metrics    valuation.ItemMetrics
}

// PortfolioService answers read-side questions about the collection
type PortfolioService struct {
	InvestmentRepo   domain.InvestmentRepository
	PriceHistoryRepo domain.PriceHistoryRepository

	now func() time.Time
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(investmentRepo domain.InvestmentRepository, priceHistoryRepo domain.PriceHistoryRepository) *PortfolioService {
	return &PortfolioService{
		InvestmentRepo:   investmentRepo,
		PriceHistoryRepo: priceHistoryRepo,
		now:              time.Now,
	}
}

// Summary values the whole collection
// Logic:
//   - Totals, ROI and the by-type breakdown come from valuation.Summarize
//   - Items holds per-investment P/L and ROI, absent while an item has no current price
func (s *PortfolioService) Summary(ctx context.Context) (*SummaryResult, error) {
	investments, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}

	return &SummaryResult{
		Summary:     valuation.Summarize(investments),
		Items:       valuation.EvaluateAll(investments),
		GeneratedAt: s.now().UTC(),
	}, nil
}

// TopPerformers returns the n best and n worst items by price change
func (s *PortfolioService) TopPerformers(ctx context.Context, n int) (ranking.Result, error) {
	investments, err := s.listAll(ctx)
	if err != nil {
		return ranking.Result{}, err
	}
	return ranking.TopPerformers(investments, n), nil
}

// Browse filters and orders the collection
func (s *PortfolioService) Browse(ctx context.Context, q sorting.Query) ([]BrowseItem, error) {
	investments, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}

	ordered, err := sorting.Apply(investments, q)
	if err != nil {
		return nil, err
	}

	items := make([]BrowseItem, len(ordered))
	for i, inv := range ordered {
		items[i] = BrowseItem{Investment: inv, Metrics: valuation.Evaluate(inv)}
	}
	return items, nil
}

// ValueHistory charts the collection value over a window
// The whole history is read so that prices recorded before the window
// still carry forward into it. The window start is aligned to the hour buckets.
func (s *PortfolioService) ValueHistory(ctx context.Context, window history.Window) (history.Projection, error) {
	investments, err := s.listAll(ctx)
	if err != nil {
		return history.Projection{}, err
	}

	snapshots, err := s.PriceHistoryRepo.ListAll(ctx, nil)
	if err != nil {
		return history.Projection{}, fmt.Errorf("failed to list price history: %w", err)
	}

	series := history.ValueSeries(investments, snapshots)
	return history.ProjectBuckets(history.FromValueSnapshots(series), window, s.now(), history.BucketWidth), nil
}

// PriceHistory charts the price of one investment over a window
func (s *PortfolioService) PriceHistory(ctx context.Context, id uuid.UUID, window history.Window) (history.Projection, error) {
	if _, err := s.InvestmentRepo.GetByID(ctx, id); err != nil {
		return history.Projection{}, err
	}

	now := s.now()
	snapshots, err := s.PriceHistoryRepo.ListByInvestment(ctx, id, window.Since(now))
	if err != nil {
		return history.Projection{}, fmt.Errorf("failed to list price history: %w", err)
	}

	return history.Project(history.FromPriceSnapshots(snapshots), window, now), nil
}

// LatestPrice returns the most recent snapshot of one investment
func (s *PortfolioService) LatestPrice(ctx context.Context, id uuid.UUID) (*domain.PriceSnapshot, error) {
	if _, err := s.InvestmentRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.PriceHistoryRepo.Latest(ctx, id)
}

func (s *PortfolioService) listAll(ctx context.Context) ([]*domain.Investment, error) {
	investments, err := s.InvestmentRepo.List(ctx, domain.Page{})
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	return investments, nil
}
