package sqlite

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
	var lastUpdated, purchaseDate sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&inv.ID,
		&inv.ItemName,
		&inv.ItemType,
		&purchaseStr,
		&inv.Quantity,
		&currentStr,
		&lastUpdated,
		&purchaseDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	purchase, err := decimal.NewFromString(purchaseStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse purchase_price: %w", err)
	}
	inv.PurchasePrice = purchase

	if currentStr.Valid {
		current, err := decimal.NewFromString(currentStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse current_price: %w", err)
		}
		inv.CurrentPrice = &current
	}

	inv.PriceLastUpdated = timePtr(lastUpdated)
	inv.PurchaseDate = timePtr(purchaseDate)
	inv.CreatedAt = fromNanos(createdAt)
	inv.UpdatedAt = fromNanos(updatedAt)

	return &inv, nil
}

// List retrieves investments ordered by creation time
func (r *investmentRepository) List(ctx context.Context, page domain.Page) ([]*domain.Investment, error) {
	query := `
		SELECT ` + investmentColumns + `
		FROM investments
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?
	`

	// SQLite treats a negative limit as no limit
	limit := -1
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
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = ?`

	inv, err := scanInvestment(r.db.QueryRowContext(ctx, query, id.String()))
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
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = inv.CreatedAt
	}

	query := `
		INSERT INTO investments (` + investmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID.String(),
		inv.ItemName,
		string(inv.ItemType),
		inv.PurchasePrice.String(),
		inv.Quantity,
		nullableDecimal(inv.CurrentPrice),
		nullableNanos(inv.PriceLastUpdated),
		nullableNanos(inv.PurchaseDate),
		toNanos(inv.CreatedAt),
		toNanos(inv.UpdatedAt),
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
		SET item_name = ?, item_type = ?, purchase_price = ?, quantity = ?,
			purchase_date = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		inv.ItemName,
		string(inv.ItemType),
		inv.PurchasePrice.String(),
		inv.Quantity,
		nullableNanos(inv.PurchaseDate),
		toNanos(inv.UpdatedAt),
		inv.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}

	return expectOneRow(result, inv.ID)
}

// UpdatePrice sets current_price and price_last_updated
func (r *investmentRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	query := `UPDATE investments SET current_price = ?, price_last_updated = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, price.String(), toNanos(at), id.String())
	if err != nil {
		return fmt.Errorf("failed to update investment price: %w", err)
	}

	return expectOneRow(result, id)
}

// Delete removes an investment and, through the foreign key, its price history
func (r *investmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM investments WHERE id = ?`, id.String())
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
