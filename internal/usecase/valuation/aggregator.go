package valuation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// TypeBreakdown is the cost basis of all holdings of one item type
type TypeBreakdown struct {
	Count int             // Sum of quantities
	Value decimal.Decimal // Sum of purchase price x quantity
}

// Summary represents the valuation of a whole collection
type Summary struct {
	TotalInvested     decimal.Decimal
	TotalCurrentValue decimal.Decimal
	TotalProfitLoss   decimal.Decimal
	TotalROIPct       decimal.Decimal
	ByType            map[domain.ItemType]TypeBreakdown
	ItemCount         int
}

// ItemMetrics represents the performance of a single investment.
// ProfitLoss and ROIPct are nil when they are undefined.
type ItemMetrics struct {
	InvestmentID uuid.UUID
	ProfitLoss   *decimal.Decimal
	ROIPct       *decimal.Decimal
	Value        decimal.Decimal // Effective price x quantity
}

// Summarize aggregates a collection of investments
// Logic:
//   - Invested: sum of purchase price x quantity
//   - Current value: sum of (current price, or purchase price when absent) x quantity
//   - Profit/loss: current value - invested
//   - ROI: profit/loss / invested x 100, or 0 when nothing was invested
//   - Breakdown by type uses purchase data only (cost basis)
func Summarize(investments []*domain.Investment) Summary {
	summary := Summary{
		TotalInvested:     decimal.Zero,
		TotalCurrentValue: decimal.Zero,
		TotalROIPct:       decimal.Zero,
		ByType:            make(map[domain.ItemType]TypeBreakdown),
		ItemCount:         len(investments),
	}

	for _, inv := range investments {
		cost := inv.CostBasis()

		summary.TotalInvested = summary.TotalInvested.Add(cost)
		summary.TotalCurrentValue = summary.TotalCurrentValue.Add(inv.EffectivePrice().Mul(decimal.NewFromInt(int64(inv.Quantity))))

		breakdown := summary.ByType[inv.ItemType]
		breakdown.Count += inv.Quantity
		breakdown.Value = breakdown.Value.Add(cost)
		summary.ByType[inv.ItemType] = breakdown
	}

	summary.TotalProfitLoss = summary.TotalCurrentValue.Sub(summary.TotalInvested)
	if summary.TotalInvested.IsPositive() {
		summary.TotalROIPct = summary.TotalProfitLoss.Div(summary.TotalInvested).Mul(hundred)
	}

	return summary
}

// Evaluate computes the per-item profit/loss and ROI
// Logic:
//   - Profit/loss: (current - purchase) x quantity, undefined without a current price
//   - ROI: (current - purchase) / purchase x 100, also undefined when purchase is 0
func Evaluate(inv *domain.Investment) ItemMetrics {
	qty := decimal.NewFromInt(int64(inv.Quantity))
	metrics := ItemMetrics{
		InvestmentID: inv.ID,
		Value:        inv.EffectivePrice().Mul(qty),
	}

	if !inv.HasCurrentPrice() {
		return metrics
	}

	change := inv.CurrentPrice.Sub(inv.PurchasePrice)
	pl := change.Mul(qty)
	metrics.ProfitLoss = &pl

	if !inv.PurchasePrice.IsZero() {
		roi := change.Div(inv.PurchasePrice).Mul(hundred)
		metrics.ROIPct = &roi
	}

	return metrics
}

// EvaluateAll computes metrics for each investment, keyed by id
func EvaluateAll(investments []*domain.Investment) map[uuid.UUID]ItemMetrics {
	out := make(map[uuid.UUID]ItemMetrics, len(investments))
	for _, inv := range investments {
		out[inv.ID] = Evaluate(inv)
	}
	return out
}

// ProfitLossOrZero returns the derived profit/loss, treating an absent current price as 0
func ProfitLossOrZero(inv *domain.Investment) decimal.Decimal {
	if !inv.HasCurrentPrice() {
		return decimal.Zero
	}
	return inv.CurrentPrice.Sub(inv.PurchasePrice).Mul(decimal.NewFromInt(int64(inv.Quantity)))
}
