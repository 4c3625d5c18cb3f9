package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
)

const snapshotColumns = `id, investment_id, price, recorded_at, source, volume`

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
	var recordedAt int64
	var volume sql.NullInt64

	if err := row.Scan(&s.ID, &s.InvestmentID, &priceStr, &recordedAt, &s.Source, &volume); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	s.Price = price
	s.Timestamp = fromNanos(recordedAt)

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

	var volume any
	if snapshot.Volume != nil {
		volume = *snapshot.Volume
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO price_history (`+snapshotColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		snapshot.ID.String(),
		snapshot.InvestmentID.String(),
		snapshot.Price.String(),
		toNanos(snapshot.Timestamp),
		snapshot.Source,
		volume,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price snapshot: %w", err)
	}

	return nil
}

// ListByInvestment retrieves the history of one investment, oldest first
func (r *priceHistoryRepository) ListByInvestment(ctx context.Context, investmentID uuid.UUID, since *time.Time) ([]*domain.PriceSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM price_history
		WHERE investment_id = ? AND recorded_at >= ?
		ORDER BY recorded_at ASC, id ASC
	`
	return r.list(ctx, query, investmentID.String(), sinceNanos(since))
}

// ListAll retrieves the history of every investment, oldest first
func (r *priceHistoryRepository) ListAll(ctx context.Context, since *time.Time) ([]*domain.PriceSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM price_history
		WHERE recorded_at >= ?
		ORDER BY recorded_at ASC, id ASC
	`
	return r.list(ctx, query, sinceNanos(since))
}

func sinceNanos(since *time.Time) int64 {
	if since == nil {
		return math.MinInt64
	}
	return toNanos(*since)
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
		SELECT ` + snapshotColumns + `
		FROM price_history
		WHERE investment_id = ?
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	s, err := scanSnapshot(r.db.QueryRowContext(ctx, query, investmentID.String()))
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
	result, err := r.db.ExecContext(ctx, `DELETE FROM price_history WHERE recorded_at < ?`, toNanos(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to prune price history: %w", err)
	}
	return result.RowsAffected()
}

// DeleteByInvestment removes the history of one investment
func (r *priceHistoryRepository) DeleteByInvestment(ctx context.Context, investmentID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM price_history WHERE investment_id = ?`, investmentID.String()); err != nil {
		return fmt.Errorf("failed to delete price history: %w", err)
	}
	return nil
}
