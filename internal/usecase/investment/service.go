package investment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
)

// MaxPageLimit caps a single listing
const MaxPageLimit = 1000

// NewInvestment is the input for creating an investment
type NewInvestment struct {
	ItemName      string
	ItemType      domain.ItemType // Empty means domain.DefaultItemType
	PurchasePrice decimal.Decimal
	Quantity      int // 0 means 1
	PurchaseDate  *time.Time
}

// InvestmentService handles investment CRUD operations
type InvestmentService struct {
	InvestmentRepo   domain.InvestmentRepository
	PriceHistoryRepo domain.PriceHistoryRepository

	now func() time.Time
}

// NewInvestmentService creates a new InvestmentService instance
func NewInvestmentService(investmentRepo domain.InvestmentRepository, priceHistoryRepo domain.PriceHistoryRepository) *InvestmentService {
	return &InvestmentService{
		InvestmentRepo:   investmentRepo,
		PriceHistoryRepo: priceHistoryRepo,
		now:              time.Now,
	}
}

// List returns a page of investments in collection order
func (s *InvestmentService) List(ctx context.Context, page domain.Page) ([]*domain.Investment, error) {
	if page.Offset < 0 {
		return nil, &domain.ValidationError{Field: "skip", Reason: "must be zero or greater"}
	}
	if page.Limit < 0 || page.Limit > MaxPageLimit {
		return nil, &domain.ValidationError{Field: "limit", Reason: fmt.Sprintf("must be between 0 and %d", MaxPageLimit)}
	}

	investments, err := s.InvestmentRepo.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	return investments, nil
}

// Get returns one investment
func (s *InvestmentService) Get(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	return s.InvestmentRepo.GetByID(ctx, id)
}

// Create validates and stores a new investment
// Logic:
//   - Type defaults to sticker and quantity to 1
//   - current_price starts absent, it is only ever set by a refresh
func (s *InvestmentService) Create(ctx context.Context, in NewInvestment) (*domain.Investment, error) {
	itemType := in.ItemType
	if itemType == "" {
		itemType = domain.DefaultItemType
	}
	quantity := in.Quantity
	if quantity == 0 {
		quantity = 1
	}

	now := s.now().UTC()
	inv := &domain.Investment{
		ID:            uuid.New(),
		ItemName:      strings.TrimSpace(in.ItemName),
		ItemType:      itemType,
		PurchasePrice: in.PurchasePrice,
		Quantity:      quantity,
		PurchaseDate:  in.PurchaseDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	if err := s.InvestmentRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create investment: %w", err)
	}
	return inv, nil
}

// Update applies a partial edit to an existing investment
// An empty patch returns the stored investment unchanged.
func (s *InvestmentService) Update(ctx context.Context, id uuid.UUID, patch domain.InvestmentPatch) (*domain.Investment, error) {
	current, err := s.InvestmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	updated := patch.Apply(*current)
	updated.UpdatedAt = s.now().UTC()
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := s.InvestmentRepo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update investment: %w", err)
	}
	return &updated, nil
}

// Delete removes an investment together with its price history
func (s *InvestmentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.InvestmentRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.PriceHistoryRepo.DeleteByInvestment(ctx, id); err != nil {
		return fmt.Errorf("failed to delete price history: %w", err)
	}
	return nil
}
