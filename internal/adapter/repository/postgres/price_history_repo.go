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

// priceHistoryRepository implements domain.PriceHistoryRepository
type priceHistoryRepository struct {
	db *DB
}

// NewPriceHistoryRepository creates a new price history repository
func NewPriceHistoryRepository(db *DB) domain.PriceHistoryRepository {
	return &priceHistoryRepository{db: db}
}

func scanSnapshot(row rowScanner) (*domain.PriceSnapshot, error) {
	var s domain.PriceSnapshot
	var priceStr string
	var volume sql.NullInt64

	if err := row.Scan(&s.ID, &s.InvestmentID, &priceStr, &s.Timestamp, &s.Source, &volume); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	s.Price = price

	if volume.Valid {
		v := volume.Int64
		s.Volume = &v
	}

	return &s, nil
}

// Append inserts a new price snapshot
func (r *priceHistoryRepository) Append(ctx context.Context, snapshot *domain.PriceSnapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.Source == "" {
		snapshot.Source = domain.SourceSteamMarket
	}

	query := `
		INSERT INTO price_history (id, investment_id, price, recorded_at, source, volume)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.InvestmentID,
		snapshot.Price.String(),
		snapshot.Timestamp,
		snapshot.Source,
		snapshot.Volume,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price snapshot: %w", err)
	}

	return nil
}

// ListByInvestment retrieves the history of one investment, oldest first
func (r *priceHistoryRepository) ListByInvestment(ctx context.Context, investmentID uuid.UUID, since *time.Time) ([]*domain.PriceSnapshot, error) {
	query := `
		SELECT id, investment_id, price, recorded_at, source, volume
		FROM price_history
		WHERE investment_id = $1 AND ($2::timestamptz IS NULL OR recorded_at >= $2)
		ORDER BY recorded_at ASC, id ASC
	`
	return r.list(ctx, query, investmentID, since)
}

// ListAll retrieves the history of every investment, oldest first
func (r *priceHistoryRepository) ListAll(ctx context.Context, since *time.Time) ([]*domain.PriceSnapshot, error) {
	query := `
		SELECT id, investment_id, price, recorded_at, source, volume
		FROM price_history
		WHERE ($1::timestamptz IS NULL OR recorded_at >= $1)
		ORDER BY recorded_at ASC, id ASC
	`
	return r.list(ctx, query, since)
}

func (r *priceHistoryRepository) list(ctx context.Context, query string, args ...any) ([]*domain.PriceSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list price history: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*domain.PriceSnapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price history: %w", err)
	}

	return snapshots, nil
}

// Latest retrieves the most recent snapshot of an investment
func (r *priceHistoryRepository) Latest(ctx context.Context, investmentID uuid.UUID) (*domain.PriceSnapshot, error) {
	query := `
		SELECT id, investment_id, price, recorded_at, source, volume
		FROM price_history
		WHERE investment_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	s, err := scanSnapshot(r.db.QueryRowContext(ctx, query, investmentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("price history for investment", investmentID)
		}
		return nil, fmt.Errorf("failed to get latest price snapshot: %w", err)
	}

	return s, nil
}

// DeleteOlderThan prunes snapshots recorded before cutoff
func (r *priceHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM price_history WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune price history: %w", err)
	}
	return result.RowsAffected()
}

// DeleteByInvestment removes the history of one investment
func (r *priceHistoryRepository) DeleteByInvestment(ctx context.Context, investmentID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM price_history WHERE investment_id = $1`, investmentID); err != nil {
		return fmt.Errorf("failed to delete price history: %w", err)
	}
	return nil
}
