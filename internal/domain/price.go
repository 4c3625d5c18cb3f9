package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceSteamMarket labels snapshots fetched from the Steam Community Market
const SourceSteamMarket = "steam_market"

// PriceSnapshot is an immutable price observation for one investment.
// Snapshots are appended in strictly increasing timestamp order per investment.
type PriceSnapshot struct {
	ID           uuid.UUID
	InvestmentID uuid.UUID
	Price        decimal.Decimal
	Timestamp    time.Time
	Source       string
	Volume       *int64 // Units traded in the last 24h, when the source reports it
}

// PortfolioValueSnapshot is the aggregate value of the whole collection at a point in time
type PortfolioValueSnapshot struct {
	Timestamp time.Time
	Value     decimal.Decimal
}

// PriceQuote is what a price source returns for a single lookup
type PriceQuote struct {
	Price     decimal.Decimal
	Volume    *int64
	FetchedAt time.Time
	Source    string
}
