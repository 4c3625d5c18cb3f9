package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Page selects a window of a listing. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// InvestmentRepository defines the interface for investment persistence operations
type InvestmentRepository interface {
	// List retrieves investments in collection order (oldest first, ties by id)
	List(ctx context.Context, page Page) ([]*Investment, error)

	// GetByID retrieves an investment by its ID
	// Returns an error wrapping ErrNotFound if the id is unknown
	GetByID(ctx context.Context, id uuid.UUID) (*Investment, error)

	// Create stores a new investment
	// The repository assigns ID, CreatedAt and UpdatedAt when they are zero
	Create(ctx context.Context, inv *Investment) error

	// Update overwrites the editable fields of an existing investment
	// Returns an error wrapping ErrNotFound if the id is unknown
	Update(ctx context.Context, inv *Investment) error

	// UpdatePrice sets the current price and its timestamp
	// This is the only mutation a refresh performs
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error

	// Delete removes an investment
	// Returns an error wrapping ErrNotFound if the id is unknown
	Delete(ctx context.Context, id uuid.UUID) error
}

// PriceHistoryRepository defines the interface for price snapshot persistence operations
type PriceHistoryRepository interface {
	// Append stores a new snapshot
	Append(ctx context.Context, snapshot *PriceSnapshot) error

	// ListByInvestment retrieves snapshots for one investment, oldest first
	// If since is nil, returns the full history
	ListByInvestment(ctx context.Context, investmentID uuid.UUID, since *time.Time) ([]*PriceSnapshot, error)

	// ListAll retrieves snapshots across every investment, oldest first
	ListAll(ctx context.Context, since *time.Time) ([]*PriceSnapshot, error)

	// Latest retrieves the most recent snapshot for an investment
	// Returns an error wrapping ErrNotFound if the investment has no history
	Latest(ctx context.Context, investmentID uuid.UUID) (*PriceSnapshot, error)

	// DeleteOlderThan prunes snapshots recorded before cutoff and returns how many were removed
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteByInvestment removes the whole history of one investment
	DeleteByInvestment(ctx context.Context, investmentID uuid.UUID) error
}

// PriceSource fetches the current market price of an item by its market hash name.
// Implementations return errors wrapping ErrRateLimited or ErrUpstreamFailed.
type PriceSource interface {
	FetchPrice(ctx context.Context, itemName string) (*PriceQuote, error)
}
