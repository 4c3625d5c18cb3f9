package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(MemoryPath)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newInvestment(name string, createdAt time.Time) *domain.Investment {
	return &domain.Investment{
		ItemName:      name,
		ItemType:      domain.ItemTypeSticker,
		PurchasePrice: decimal.RequireFromString("1.50"),
		Quantity:      2,
		CreatedAt:     createdAt,
	}
}

func TestInvestmentRepository_CreateAndGet(t *testing.T) {
	// Setup
	ctx := context.Background()
	repo := NewInvestmentRepository(setupDB(t))
	purchased := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := newInvestment("Sticker | Crown (Foil)", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	inv.PurchaseDate = &purchased

	// Execute
	require.NoError(t, repo.Create(ctx, inv))
	got, err := repo.GetByID(ctx, inv.ID)

	// Assert
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, inv.ID)
	assert.Equal(t, "Sticker | Crown (Foil)", got.ItemName)
	assert.Equal(t, domain.ItemTypeSticker, got.ItemType)
	assert.True(t, got.PurchasePrice.Equal(decimal.RequireFromString("1.50")))
	assert.Equal(t, 2, got.Quantity)
	assert.Nil(t, got.CurrentPrice)
	assert.Nil(t, got.PriceLastUpdated)
	require.NotNil(t, got.PurchaseDate)
	assert.True(t, got.PurchaseDate.Equal(purchased))
	assert.True(t, got.CreatedAt.Equal(inv.CreatedAt))
	assert.True(t, got.UpdatedAt.Equal(inv.CreatedAt))
}

func TestInvestmentRepository_GetByID_NotFound(t *testing.T) {
	repo := NewInvestmentRepository(setupDB(t))

	_, err := repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvestmentRepository_ListOrderAndPaging(t *testing.T) {
	// Setup
	ctx := context.Background()
	repo := NewInvestmentRepository(setupDB(t))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"First", "Second", "Third"} {
		require.NoError(t, repo.Create(ctx, newInvestment(name, base.Add(time.Duration(i)*time.Hour))))
	}

	tests := []struct {
		name string
		page domain.Page
		want []string
	}{
		{name: "no limit", page: domain.Page{}, want: []string{"First", "Second", "Third"}},
		{name: "limit", page: domain.Page{Limit: 2}, want: []string{"First", "Second"}},
		{name: "offset", page: domain.Page{Offset: 1}, want: []string{"Second", "Third"}},
		{name: "offset past end", page: domain.Page{Offset: 5}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Execute
			got, err := repo.List(ctx, tt.page)

			// Assert
			require.NoError(t, err)
			names := make([]string, 0, len(got))
			for _, inv := range got {
				names = append(names, inv.ItemName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestInvestmentRepository_UpdateAndUpdatePrice(t *testing.T) {
	// Setup
	ctx := context.Background()
	repo := NewInvestmentRepository(setupDB(t))
	inv := newInvestment("Recoil Case", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, inv))

	// Execute
	inv.Quantity = 10
	inv.ItemType = domain.ItemTypeCase
	inv.UpdatedAt = inv.CreatedAt.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, inv))

	at := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.UpdatePrice(ctx, inv.ID, decimal.RequireFromString("0.42"), at))

	got, err := repo.GetByID(ctx, inv.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
	assert.Equal(t, domain.ItemTypeCase, got.ItemType)
	require.NotNil(t, got.CurrentPrice)
	assert.True(t, got.CurrentPrice.Equal(decimal.RequireFromString("0.42")))
	require.NotNil(t, got.PriceLastUpdated)
	assert.True(t, got.PriceLastUpdated.Equal(at))
	assert.True(t, got.UpdatedAt.Equal(inv.UpdatedAt), "a price update leaves updated_at alone")
}

func TestInvestmentRepository_MutationsOnUnknownID(t *testing.T) {
	ctx := context.Background()
	repo := NewInvestmentRepository(setupDB(t))
	id := uuid.New()

	assert.ErrorIs(t, repo.Update(ctx, &domain.Investment{ID: id, ItemName: "x", ItemType: domain.ItemTypeCase, Quantity: 1}), domain.ErrNotFound)
	assert.ErrorIs(t, repo.UpdatePrice(ctx, id, decimal.NewFromInt(1), time.Now()), domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, id), domain.ErrNotFound)
}

func TestPriceHistoryRepository(t *testing.T) {
	// Setup
	ctx := context.Background()
	db := setupDB(t)
	invRepo := NewInvestmentRepository(db)
	histRepo := NewPriceHistoryRepository(db)

	a := newInvestment("A", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	b := newInvestment("B", time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC))
	require.NoError(t, invRepo.Create(ctx, a))
	require.NoError(t, invRepo.Create(ctx, b))

	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	volume := int64(120)
	snapshots := []*domain.PriceSnapshot{
		{InvestmentID: a.ID, Price: decimal.RequireFromString("1.00"), Timestamp: t0, Volume: &volume},
		{InvestmentID: b.ID, Price: decimal.RequireFromString("5.00"), Timestamp: t0.Add(time.Hour)},
		{InvestmentID: a.ID, Price: decimal.RequireFromString("1.20"), Timestamp: t0.Add(2 * time.Hour)},
	}
	for _, s := range snapshots {
		require.NoError(t, histRepo.Append(ctx, s))
	}

	t.Run("list by investment", func(t *testing.T) {
		got, err := histRepo.ListByInvestment(ctx, a.ID, nil)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Price.Equal(decimal.RequireFromString("1.00")))
		assert.Equal(t, domain.SourceSteamMarket, got[0].Source)
		require.NotNil(t, got[0].Volume)
		assert.Equal(t, int64(120), *got[0].Volume)
		assert.Nil(t, got[1].Volume)
	})

	t.Run("list all since", func(t *testing.T) {
		since := t0.Add(30 * time.Minute)
		got, err := histRepo.ListAll(ctx, &since)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, b.ID, got[0].InvestmentID)
		assert.Equal(t, a.ID, got[1].InvestmentID)
	})

	t.Run("latest", func(t *testing.T) {
		got, err := histRepo.Latest(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, got.Timestamp.Equal(t0.Add(2*time.Hour)))
	})

	t.Run("latest without history", func(t *testing.T) {
		_, err := histRepo.Latest(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("prune", func(t *testing.T) {
		removed, err := histRepo.DeleteOlderThan(ctx, t0.Add(90*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		all, err := histRepo.ListAll(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("deleting an investment removes its history", func(t *testing.T) {
		require.NoError(t, invRepo.Delete(ctx, a.ID))
		got, err := histRepo.ListByInvestment(ctx, a.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
