package ranking

import (
	"bytes"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
)

// DefaultLimit is the number of gainers and losers returned when no limit is given
const DefaultLimit = 3

var hundred = decimal.NewFromInt(100)

// Performer is a ranked investment with its price movement
type Performer struct {
	Investment      *domain.Investment
	PriceChange     decimal.Decimal // Per unit
	PriceChangePct  decimal.Decimal
	TotalProfitLoss decimal.Decimal
}

// Result holds the top gainers and top losers
type Result struct {
	Gainers []Performer
	Losers  []Performer
}

// TopPerformers selects up to n top gainers and n top losers
// Logic:
//   - Only items with a current price and a non-zero purchase price qualify
//   - Gainers: change % > 0, highest first
//   - Losers: change % < 0, most negative first
//   - Ties: larger absolute profit/loss first, then lower id
func TopPerformers(investments []*domain.Investment, n int) Result {
	if n <= 0 {
		n = DefaultLimit
	}

	gainers := make([]Performer, 0)
	losers := make([]Performer, 0)

	for _, inv := range investments {
		if !inv.HasCurrentPrice() || inv.PurchasePrice.IsZero() {
			continue
		}

		change := inv.CurrentPrice.Sub(inv.PurchasePrice)
		p := Performer{
			Investment:      inv,
			PriceChange:     change,
			PriceChangePct:  change.Div(inv.PurchasePrice).Mul(hundred),
			TotalProfitLoss: change.Mul(decimal.NewFromInt(int64(inv.Quantity))),
		}

		switch p.PriceChangePct.Sign() {
		case 1:
			gainers = append(gainers, p)
		case -1:
			losers = append(losers, p)
		}
	}

	sort.Slice(gainers, func(i, j int) bool {
		if c := gainers[i].PriceChangePct.Cmp(gainers[j].PriceChangePct); c != 0 {
			return c > 0
		}
		return tieBreak(gainers[i], gainers[j])
	})
	sort.Slice(losers, func(i, j int) bool {
		if c := losers[i].PriceChangePct.Cmp(losers[j].PriceChangePct); c != 0 {
			return c < 0
		}
		return tieBreak(losers[i], losers[j])
	})

	return Result{
		Gainers: truncate(gainers, n),
		Losers:  truncate(losers, n),
	}
}

func tieBreak(a, b Performer) bool {
	if c := a.TotalProfitLoss.Abs().Cmp(b.TotalProfitLoss.Abs()); c != 0 {
		return c > 0
	}
	return bytes.Compare(a.Investment.ID[:], b.Investment.ID[:]) < 0
}

func truncate(ps []Performer, n int) []Performer {
	if len(ps) > n {
		return ps[:n]
	}
	return ps
}
