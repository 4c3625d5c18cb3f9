// Package mocks provides testify mocks of the domain repositories and price source.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/stretchr/testify/mock"
)

// InvestmentRepository is a mock implementation of domain.InvestmentRepository
type InvestmentRepository struct {
	mock.Mock
}

func (m *InvestmentRepository) List(ctx context.Context, page domain.Page) ([]*domain.Investment, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Investment), args.Error(1)
}

func (m *InvestmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Investment), args.Error(1)
}

func (m *InvestmentRepository) Create(ctx context.Context, inv *domain.Investment) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *InvestmentRepository) Update(ctx context.Context, inv *domain.Investment) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *InvestmentRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	args := m.Called(ctx, id, price, at)
	return args.Error(0)
}

func (m *InvestmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// PriceHistoryRepository is a mock implementation of domain.PriceHistoryRepository
type PriceHistoryRepository struct {
	mock.Mock
}

func (m *PriceHistoryRepository) Append(ctx context.Context, snapshot *domain.PriceSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *PriceHistoryRepository) ListByInvestment(ctx context.Context, investmentID uuid.UUID, since *time.Time) ([]*domain.PriceSnapshot, error) {
	args := m.Called(ctx, investmentID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PriceSnapshot), args.Error(1)
}

func (m *PriceHistoryRepository) ListAll(ctx context.Context, since *time.Time) ([]*domain.PriceSnapshot, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PriceSnapshot), args.Error(1)
}

func (m *PriceHistoryRepository) Latest(ctx context.Context, investmentID uuid.UUID) (*domain.PriceSnapshot, error) {
	args := m.Called(ctx, investmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceSnapshot), args.Error(1)
}

func (m *PriceHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *PriceHistoryRepository) DeleteByInvestment(ctx context.Context, investmentID uuid.UUID) error {
	args := m.Called(ctx, investmentID)
	return args.Error(0)
}

// PriceSource is a mock implementation of domain.PriceSource
type PriceSource struct {
	mock.Mock
}

func (m *PriceSource) FetchPrice(ctx context.Context, itemName string) (*domain.PriceQuote, error) {
	args := m.Called(ctx, itemName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceQuote), args.Error(1)
}
