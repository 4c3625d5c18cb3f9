package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
)

const investmentColumns = `id, item_name, item_type, purchase_price, quantity, current_price,
	price_last_updated, purchase_date, created_at, updated_at`

// investmentRepository implements domain.InvestmentRepository
type investmentRepository struct {
	db *DB
}

// NewInvestmentRepository creates a new investment repository
func NewInvestmentRepository(db *DB) domain.InvestmentRepository {
	return &investmentRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvestment(row rowScanner) (*domain.Investment, error) {
	var inv domain.Investment
	var purchaseStr string
	var currentStr sql.NullString
	var lastUpdated, purchaseDate sql.NullTime

	err := row.Scan(
		&inv.ID,
		&inv.ItemName,
		&inv.ItemType,
		&purchaseStr,
		&inv.Quantity,
		&currentStr,
		&lastUpdated,
		&purchaseDate,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Parse purchase_price (NUMERIC)
	purchase, err := decimal.NewFromString(purchaseStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse purchase_price: %w", err)
	}
	inv.PurchasePrice = purchase

	// Parse current_price (nullable NUMERIC)
	if currentStr.Valid {
		current, err := decimal.NewFromString(currentStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse current_price: %w", err)
		}
		inv.CurrentPrice = &current
	}

	if lastUpdated.Valid {
		t := lastUpdated.Time
		inv.PriceLastUpdated = &t
	}
	if purchaseDate.Valid {
		t := purchaseDate.Time
		inv.PurchaseDate = &t
	}

	return &inv, nil
}

// List retrieves investments ordered by creation time
func (r *investmentRepository) List(ctx context.Context, page domain.Page) ([]*domain.Investment, error) {
	query := `
		SELECT ` + investmentColumns + `
		FROM investments
		ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`

	// A NULL limit means no limit
	var limit any
	if page.Limit > 0 {
		limit = page.Limit
	}

	rows, err := r.db.QueryContext(ctx, query, limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	investments := make([]*domain.Investment, 0)
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate investments: %w", err)
	}

	return investments, nil
}

// GetByID retrieves an investment by its ID
func (r *investmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	query := `
		SELECT ` + investmentColumns + `
		FROM investments
		WHERE id = $1
	`

	inv, err := scanInvestment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("investment", id)
		}
		return nil, fmt.Errorf("failed to get investment by ID: %w", err)
	}

	return inv, nil
}

// Create creates a new investment
func (r *investmentRepository) Create(ctx context.Context, inv *domain.Investment) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = inv.CreatedAt
	}

	query := `
		INSERT INTO investments (` + investmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID,
		inv.ItemName,
		string(inv.ItemType),
		inv.PurchasePrice.String(),
		inv.Quantity,
		nullableDecimal(inv.CurrentPrice),
		inv.PriceLastUpdated,
		inv.PurchaseDate,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}

	return nil
}

// Update overwrites the editable fields of an investment
func (r *investmentRepository) Update(ctx context.Context, inv *domain.Investment) error {
	query := `
		UPDATE investments
		SET item_name = $2, item_type = $3, purchase_price = $4, quantity = $5,
			purchase_date = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		inv.ID,
		inv.ItemName,
		string(inv.ItemType),
		inv.PurchasePrice.String(),
		inv.Quantity,
		inv.PurchaseDate,
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}

	return expectOneRow(result, inv.ID)
}

// UpdatePrice sets current_price and price_last_updated
func (r *investmentRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	query := `
		UPDATE investments
		SET current_price = $2, price_last_updated = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, price.String(), at)
	if err != nil {
		return fmt.Errorf("failed to update investment price: %w", err)
	}

	return expectOneRow(result, id)
}

// Delete removes an investment. Its price history goes with it (ON DELETE CASCADE).
func (r *investmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM investments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}

	return expectOneRow(result, id)
}

func expectOneRow(result sql.Result, id uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NotFoundError("investment", id)
	}
	return nil
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
