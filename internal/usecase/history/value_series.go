package history

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
)

// BucketWidth is the granularity of the portfolio value series
const BucketWidth = time.Hour

// ValueSeries rebuilds the portfolio value over time from price snapshots
// Logic:
//   - Snapshots are grouped by the hour they fall in (UTC)
//   - For each hour, every investment is valued at its last known price so far,
//     or at its purchase price if it has no snapshot yet
//   - Values are multiplied by quantity, summed and rounded to 2 decimals
//
// Snapshots of investments not in the set are ignored.
func ValueSeries(investments []*domain.Investment, snapshots []*domain.PriceSnapshot) []domain.PortfolioValueSnapshot {
	if len(investments) == 0 {
		return []domain.PortfolioValueSnapshot{}
	}

	known := make(map[uuid.UUID]bool, len(investments))
	for _, inv := range investments {
		known[inv.ID] = true
	}

	ordered := make([]*domain.PriceSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if known[s.InvestmentID] {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	series := make([]domain.PortfolioValueSnapshot, 0)
	lastKnown := make(map[uuid.UUID]decimal.Decimal, len(investments))

	for i := 0; i < len(ordered); {
		hour := ordered[i].Timestamp.UTC().Truncate(BucketWidth)
		for i < len(ordered) && ordered[i].Timestamp.UTC().Truncate(BucketWidth).Equal(hour) {
			lastKnown[ordered[i].InvestmentID] = ordered[i].Price
			i++
		}

		total := decimal.Zero
		for _, inv := range investments {
			p, ok := lastKnown[inv.ID]
			if !ok {
				p = inv.PurchasePrice
			}
			total = total.Add(p.Mul(decimal.NewFromInt(int64(inv.Quantity))))
		}

		series = append(series, domain.PortfolioValueSnapshot{
			Timestamp: hour,
			Value:     total.Round(2),
		})
	}

	return series
}
