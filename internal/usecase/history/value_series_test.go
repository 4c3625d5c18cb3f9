package history

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSeries_CarriesLastKnownPrice(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	stickers := &domain.Investment{ID: uuid.New(), PurchasePrice: decimal.NewFromInt(10), Quantity: 2}
	knife := &domain.Investment{ID: uuid.New(), PurchasePrice: decimal.NewFromInt(100), Quantity: 1}

	snapshots := []*domain.PriceSnapshot{
		// 10:xx only the stickers are priced
		{InvestmentID: stickers.ID, Price: decimal.NewFromInt(12), Timestamp: base.Add(5 * time.Minute)},
		// 11:xx the knife is priced twice, the later one wins
		{InvestmentID: knife.ID, Price: decimal.NewFromInt(90), Timestamp: base.Add(70 * time.Minute)},
		{InvestmentID: knife.ID, Price: decimal.NewFromInt(95), Timestamp: base.Add(80 * time.Minute)},
		// 13:xx the stickers move again
		{InvestmentID: stickers.ID, Price: decimal.RequireFromString("12.345"), Timestamp: base.Add(3*time.Hour + time.Minute)},
		// unknown investment is ignored
		{InvestmentID: uuid.New(), Price: decimal.NewFromInt(1000), Timestamp: base.Add(90 * time.Minute)},
	}

	series := ValueSeries([]*domain.Investment{stickers, knife}, snapshots)

	require.Len(t, series, 3)

	assert.Equal(t, base, series[0].Timestamp)
	assert.True(t, series[0].Value.Equal(decimal.NewFromInt(124)), "got %s", series[0].Value) // 12*2 + purchase 100

	assert.Equal(t, base.Add(time.Hour), series[1].Timestamp)
	assert.True(t, series[1].Value.Equal(decimal.NewFromInt(119)), "got %s", series[1].Value) // 12*2 + 95

	assert.Equal(t, base.Add(3*time.Hour), series[2].Timestamp)
	assert.True(t, series[2].Value.Equal(decimal.RequireFromString("119.69")), "got %s", series[2].Value) // 24.69 + 95
}

func TestValueSeries_UnsortedInput(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	inv := &domain.Investment{ID: uuid.New(), PurchasePrice: decimal.NewFromInt(1), Quantity: 1}

	snapshots := []*domain.PriceSnapshot{
		{InvestmentID: inv.ID, Price: decimal.NewFromInt(3), Timestamp: base.Add(2 * time.Hour)},
		{InvestmentID: inv.ID, Price: decimal.NewFromInt(2), Timestamp: base},
	}

	series := ValueSeries([]*domain.Investment{inv}, snapshots)

	require.Len(t, series, 2)
	assert.True(t, series[0].Timestamp.Before(series[1].Timestamp))
	assert.True(t, series[0].Value.Equal(decimal.NewFromInt(2)))
	assert.True(t, series[1].Value.Equal(decimal.NewFromInt(3)))
}

func TestValueSeries_Empty(t *testing.T) {
	assert.Empty(t, ValueSeries(nil, nil))

	inv := &domain.Investment{ID: uuid.New(), PurchasePrice: decimal.NewFromInt(1), Quantity: 1}
	assert.Empty(t, ValueSeries([]*domain.Investment{inv}, nil))
}
