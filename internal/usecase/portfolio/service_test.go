package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/domain/mocks"
	"github.com/simaogato/skinledger-backend/internal/usecase/history"
	"github.com/simaogato/skinledger-backend/internal/usecase/sorting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 5, 10, 12, 30, 0, 0, time.UTC)

func newService() (*PortfolioService, *mocks.InvestmentRepository, *mocks.PriceHistoryRepository) {
	repo := new(mocks.InvestmentRepository)
	hist := new(mocks.PriceHistoryRepository)
	service := NewPortfolioService(repo, hist)
	service.now = func() time.Time { return now }
	return service, repo, hist
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func fixtures() []*domain.Investment {
	return []*domain.Investment{
		{ID: uuid.New(), ItemName: "AK-47 | Redline", ItemType: domain.ItemTypeSkin, PurchasePrice: dec("10"), Quantity: 2, CurrentPrice: decPtr("12.5"), CreatedAt: now.Add(-3 * time.Hour)},
		{ID: uuid.New(), ItemName: "Sticker | Crown (Foil)", ItemType: domain.ItemTypeSticker, PurchasePrice: dec("5"), Quantity: 1, CurrentPrice: decPtr("3"), CreatedAt: now.Add(-2 * time.Hour)},
		{ID: uuid.New(), ItemName: "Recoil Case", ItemType: domain.ItemTypeCase, PurchasePrice: dec("1"), Quantity: 10, CreatedAt: now.Add(-time.Hour)},
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newService()
	invs := fixtures()
	repo.On("List", ctx, domain.Page{}).Return(invs, nil).Once()

	result, err := service.Summary(ctx)

	require.NoError(t, err)
	// invested 20 + 5 + 10 = 35, current 25 + 3 + 10 = 38
	assert.True(t, result.TotalInvested.Equal(dec("35")))
	assert.True(t, result.TotalCurrentValue.Equal(dec("38")))
	assert.True(t, result.TotalProfitLoss.Equal(dec("3")))
	assert.Equal(t, 3, result.ItemCount)
	assert.Equal(t, now, result.GeneratedAt)

	require.Len(t, result.Items, 3)
	assert.Nil(t, result.Items[invs[2].ID].ProfitLoss)
	require.NotNil(t, result.Items[invs[0].ID].ProfitLoss)
	assert.True(t, result.Items[invs[0].ID].ProfitLoss.Equal(dec("5")))
}

func TestSummary_ListFailure(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newService()
	repo.On("List", ctx, domain.Page{}).Return(nil, errors.New("db down")).Once()

	_, err := service.Summary(ctx)

	assert.ErrorContains(t, err, "failed to list investments")
}

func TestTopPerformers(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newService()
	invs := fixtures()
	repo.On("List", ctx, domain.Page{}).Return(invs, nil).Once()

	result, err := service.TopPerformers(ctx, 0)

	require.NoError(t, err)
	require.Len(t, result.Gainers, 1)
	require.Len(t, result.Losers, 1)
	assert.Equal(t, invs[0].ID, result.Gainers[0].Investment.ID)
	assert.Equal(t, invs[1].ID, result.Losers[0].Investment.ID)
}

func TestBrowse_FiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newService()
	invs := fixtures()
	repo.On("List", ctx, domain.Page{}).Return(invs, nil)

	t.Run("default newest first", func(t *testing.T) {
		items, err := service.Browse(ctx, sorting.DefaultQuery())

		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, invs[2].ID, items[0].Investment.ID)
		assert.Equal(t, invs[0].ID, items[2].Investment.ID)
	})

	t.Run("type filter", func(t *testing.T) {
		items, err := service.Browse(ctx, sorting.Query{Field: sorting.FieldItemName, Direction: sorting.Asc, Type: "sticker"})

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, invs[1].ID, items[0].Investment.ID)
		require.NotNil(t, items[0].Metrics.ProfitLoss)
		assert.True(t, items[0].Metrics.ProfitLoss.Equal(dec("-2")))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := service.Browse(ctx, sorting.Query{Field: "color"})

		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func valueHistoryFixture(repo *mocks.InvestmentRepository, hist *mocks.PriceHistoryRepository) {
	inv := &domain.Investment{ID: uuid.New(), ItemName: "Glove Case", ItemType: domain.ItemTypeCase, PurchasePrice: dec("2"), Quantity: 10}
	repo.On("List", mock.Anything, domain.Page{}).Return([]*domain.Investment{inv}, nil).Once()
	hist.On("ListAll", mock.Anything, (*time.Time)(nil)).Return([]*domain.PriceSnapshot{
		{InvestmentID: inv.ID, Price: dec("3"), Timestamp: now.Add(-10 * 24 * time.Hour)},
		{InvestmentID: inv.ID, Price: dec("4"), Timestamp: now.Add(-2 * time.Hour)},
	}, nil).Once()
}

func TestValueHistory_CarriesEarlierPricesIntoWindow(t *testing.T) {
	service, repo, hist := newService()
	valueHistoryFixture(repo, hist)

	proj, err := service.ValueHistory(context.Background(), history.LastDays(7))

	require.NoError(t, err)
	require.Len(t, proj.Points, 1)
	assert.True(t, proj.Points[0].Value.Equal(dec("40")))
	assert.False(t, proj.Empty)
}

func TestValueHistory_KeepsSnapshotInsideWindowStartHour(t *testing.T) {
	// Setup
	service, repo, hist := newService()
	inv := &domain.Investment{ID: uuid.New(), ItemName: "Glove Case", ItemType: domain.ItemTypeCase, PurchasePrice: dec("2"), Quantity: 10}
	windowStart := now.AddDate(0, 0, -7)
	repo.On("List", mock.Anything, domain.Page{}).Return([]*domain.Investment{inv}, nil).Once()
	hist.On("ListAll", mock.Anything, (*time.Time)(nil)).Return([]*domain.PriceSnapshot{
		// 12:45 seven days ago is inside the window, its bucket starts at 12:00
		{InvestmentID: inv.ID, Price: dec("3"), Timestamp: windowStart.Add(15 * time.Minute)},
	}, nil).Once()

	// Execute
	proj, err := service.ValueHistory(context.Background(), history.LastDays(7))

	// Assert
	require.NoError(t, err)
	require.Len(t, proj.Points, 1)
	assert.Equal(t, time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC), proj.Points[0].Timestamp)
	assert.True(t, proj.Points[0].Value.Equal(dec("30")))
}

func TestValueHistory_AllTime(t *testing.T) {
	service, repo, hist := newService()
	valueHistoryFixture(repo, hist)

	proj, err := service.ValueHistory(context.Background(), history.AllTime())

	require.NoError(t, err)
	require.Len(t, proj.Points, 2)
	assert.True(t, proj.Points[0].Value.Equal(dec("30")))
	assert.True(t, proj.Change.Absolute.Equal(dec("10")))
}

func TestPriceHistory(t *testing.T) {
	ctx := context.Background()
	service, repo, hist := newService()

	inv := fixtures()[0]
	repo.On("GetByID", ctx, inv.ID).Return(inv, nil).Once()
	hist.On("ListByInvestment", ctx, inv.ID, mock.MatchedBy(func(since *time.Time) bool {
		return since != nil && since.Equal(now.AddDate(0, 0, -30))
	})).Return([]*domain.PriceSnapshot{
		{InvestmentID: inv.ID, Price: dec("12"), Timestamp: now.Add(-48 * time.Hour)},
		{InvestmentID: inv.ID, Price: dec("10"), Timestamp: now.Add(-72 * time.Hour)},
		{InvestmentID: inv.ID, Price: dec("12.5"), Timestamp: now.Add(-time.Hour)},
	}, nil).Once()

	proj, err := service.PriceHistory(ctx, inv.ID, history.LastDays(30))

	require.NoError(t, err)
	require.Len(t, proj.Points, 3)
	assert.True(t, proj.Points[0].Value.Equal(dec("10")))
	assert.True(t, proj.Stats.Max.Equal(dec("12.5")))
	assert.True(t, proj.Change.Percentage.Equal(dec("25")))
	hist.AssertExpectations(t)
}

func TestPriceHistory_UnknownInvestment(t *testing.T) {
	ctx := context.Background()
	service, repo, hist := newService()

	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(nil, domain.NotFoundError("investment", id)).Once()

	_, err := service.PriceHistory(ctx, id, history.AllTime())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	hist.AssertNotCalled(t, "ListByInvestment", mock.Anything, mock.Anything, mock.Anything)
}

func TestLatestPrice(t *testing.T) {
	ctx := context.Background()
	service, repo, hist := newService()

	inv := fixtures()[0]
	latest := &domain.PriceSnapshot{ID: uuid.New(), InvestmentID: inv.ID, Price: dec("12.5"), Timestamp: now}
	repo.On("GetByID", ctx, inv.ID).Return(inv, nil).Once()
	hist.On("Latest", ctx, inv.ID).Return(latest, nil).Once()

	got, err := service.LatestPrice(ctx, inv.ID)

	require.NoError(t, err)
	assert.Same(t, latest, got)
}
