// Package memory keeps investments and price history in process memory.
// It is the default store for development and the backing store of most tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
)

// Store holds both repositories behind one lock
type Store struct {
	mu          sync.RWMutex
	investments map[uuid.UUID]*domain.Investment
	order       []uuid.UUID
	history     []*domain.PriceSnapshot
	now         func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		investments: make(map[uuid.UUID]*domain.Investment),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Investments returns the store as a domain.InvestmentRepository
func (s *Store) Investments() domain.InvestmentRepository {
	return (*investmentRepository)(s)
}

// PriceHistory returns the store as a domain.PriceHistoryRepository
func (s *Store) PriceHistory() domain.PriceHistoryRepository {
	return (*priceHistoryRepository)(s)
}

type investmentRepository Store

func copyInvestment(inv *domain.Investment) *domain.Investment {
	c := *inv
	if inv.CurrentPrice != nil {
		p := *inv.CurrentPrice
		c.CurrentPrice = &p
	}
	if inv.PriceLastUpdated != nil {
		t := *inv.PriceLastUpdated
		c.PriceLastUpdated = &t
	}
	if inv.PurchaseDate != nil {
		t := *inv.PurchaseDate
		c.PurchaseDate = &t
	}
	return &c
}

// List returns investments in insertion order
func (r *investmentRepository) List(ctx context.Context, page domain.Page) ([]*domain.Investment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Investment, 0, len(r.order))
	if page.Offset >= len(r.order) {
		return out, nil
	}
	ids := r.order[page.Offset:]
	if page.Limit > 0 && page.Limit < len(ids) {
		ids = ids[:page.Limit]
	}
	for _, id := range ids {
		out = append(out, copyInvestment(r.investments[id]))
	}
	return out, nil
}

func (r *investmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.investments[id]
	if !ok {
		return nil, domain.NotFoundError("investment", id)
	}
	return copyInvestment(inv), nil
}

func (r *investmentRepository) Create(ctx context.Context, inv *domain.Investment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = r.now()
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = inv.CreatedAt
	}

	if _, exists := r.investments[inv.ID]; !exists {
		r.order = append(r.order, inv.ID)
	}
	r.investments[inv.ID] = copyInvestment(inv)
	return nil
}

func (r *investmentRepository) Update(ctx context.Context, inv *domain.Investment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.investments[inv.ID]
	if !ok {
		return domain.NotFoundError("investment", inv.ID)
	}

	// Only editable fields; price and creation time belong to the store
	stored.ItemName = inv.ItemName
	stored.ItemType = inv.ItemType
	stored.PurchasePrice = inv.PurchasePrice
	stored.Quantity = inv.Quantity
	stored.PurchaseDate = nil
	if inv.PurchaseDate != nil {
		t := *inv.PurchaseDate
		stored.PurchaseDate = &t
	}
	stored.UpdatedAt = inv.UpdatedAt
	return nil
}

func (r *investmentRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.investments[id]
	if !ok {
		return domain.NotFoundError("investment", id)
	}
	stored.CurrentPrice = &price
	stored.PriceLastUpdated = &at
	return nil
}

func (r *investmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.investments[id]; !ok {
		return domain.NotFoundError("investment", id)
	}
	delete(r.investments, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

type priceHistoryRepository Store

// Append keeps history sorted by timestamp
func (r *priceHistoryRepository) Append(ctx context.Context, snapshot *domain.PriceSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.Source == "" {
		snapshot.Source = domain.SourceSteamMarket
	}

	c := *snapshot
	idx := sort.Search(len(r.history), func(i int) bool {
		return r.history[i].Timestamp.After(c.Timestamp)
	})
	r.history = append(r.history, nil)
	copy(r.history[idx+1:], r.history[idx:])
	r.history[idx] = &c
	return nil
}

func (r *priceHistoryRepository) ListByInvestment(ctx context.Context, investmentID uuid.UUID, since *time.Time) ([]*domain.PriceSnapshot, error) {
	return r.filter(func(s *domain.PriceSnapshot) bool {
		return s.InvestmentID == investmentID && inWindow(s, since)
	}), nil
}

func (r *priceHistoryRepository) ListAll(ctx context.Context, since *time.Time) ([]*domain.PriceSnapshot, error) {
	return r.filter(func(s *domain.PriceSnapshot) bool {
		return inWindow(s, since)
	}), nil
}

func inWindow(s *domain.PriceSnapshot, since *time.Time) bool {
	return since == nil || !s.Timestamp.Before(*since)
}

func (r *priceHistoryRepository) filter(keep func(*domain.PriceSnapshot) bool) []*domain.PriceSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.PriceSnapshot, 0)
	for _, s := range r.history {
		if keep(s) {
			c := *s
			out = append(out, &c)
		}
	}
	return out
}

func (r *priceHistoryRepository) Latest(ctx context.Context, investmentID uuid.UUID) (*domain.PriceSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].InvestmentID == investmentID {
			c := *r.history[i]
			return &c, nil
		}
	}
	return nil, domain.NotFoundError("price history for investment", investmentID)
}

func (r *priceHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.remove(func(s *domain.PriceSnapshot) bool {
		return s.Timestamp.Before(cutoff)
	}), nil
}

func (r *priceHistoryRepository) DeleteByInvestment(ctx context.Context, investmentID uuid.UUID) error {
	r.remove(func(s *domain.PriceSnapshot) bool {
		return s.InvestmentID == investmentID
	})
	return nil
}

func (r *priceHistoryRepository) remove(drop func(*domain.PriceSnapshot) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.history[:0]
	var removed int64
	for _, s := range r.history {
		if drop(s) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(r.history); i++ {
		r.history[i] = nil
	}
	r.history = kept
	return removed
}
