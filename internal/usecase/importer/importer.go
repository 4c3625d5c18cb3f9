// Package importer loads holdings from TOML documents into the store.
//
// A document lists one [[holding]] table per investment:
//
//	[[holding]]
//	name = "AK-47 | Redline (Field-Tested)"
//	type = "skin"
//	purchase_price = 12.50
//	quantity = 2
//	purchase_date = 2024-11-03
//
// purchase_price is required, an explicit 0 records a free item.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/usecase/investment"
)

// Holding is one [[holding]] table. Price and date accept several TOML
// encodings, so they are decoded loosely and converted afterwards.
type Holding struct {
	Name          string `toml:"name"`
	Type          string `toml:"type"`
	PurchasePrice any    `toml:"purchase_price"`
	Quantity      int    `toml:"quantity"`
	PurchaseDate  any    `toml:"purchase_date"`
}

// Document is a holdings file
type Document struct {
	Holdings []Holding `toml:"holding"`
}

// InvestmentWriter is the part of the investment service the importer needs
type InvestmentWriter interface {
	List(ctx context.Context, page domain.Page) ([]*domain.Investment, error)
	Create(ctx context.Context, in investment.NewInvestment) (*domain.Investment, error)
}

// Result counts what an import did
type Result struct {
	Created []*domain.Investment
	Skipped []string // Names already present
	Failed  int
}

// RowError reports a holding that could not be imported
type RowError struct {
	Row  int // 1-based position in the document
	Name string
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("holding %d (%q): %v", e.Row, e.Name, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ImportService creates investments from holdings documents
type ImportService struct {
	Investments InvestmentWriter
}

// NewImportService creates a new ImportService instance
func NewImportService(investments InvestmentWriter) *ImportService {
	return &ImportService{Investments: investments}
}

// Import decodes a document and creates every holding in it
// Logic:
//   - A malformed document fails as a whole with a validation error
//   - A holding whose name already exists (case-insensitive) is skipped
//   - An invalid holding is reported and the rest still import
//   - The returned error joins every RowError, nil when all rows succeeded
func (s *ImportService) Import(ctx context.Context, r io.Reader) (Result, error) {
	var doc Document
	if err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return Result{}, &domain.ValidationError{Field: "document", Reason: err.Error()}
	}

	existing, err := s.Investments.List(ctx, domain.Page{})
	if err != nil {
		return Result{}, fmt.Errorf("failed to list investments: %w", err)
	}
	seen := make(map[string]bool, len(existing)+len(doc.Holdings))
	for _, inv := range existing {
		seen[nameKey(inv.ItemName)] = true
	}

	var (
		result  Result
		rowErrs []error
	)
	for i, h := range doc.Holdings {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		key := nameKey(h.Name)
		if key != "" && seen[key] {
			result.Skipped = append(result.Skipped, strings.TrimSpace(h.Name))
			continue
		}

		in, err := h.toNewInvestment()
		if err == nil {
			var created *domain.Investment
			created, err = s.Investments.Create(ctx, in)
			if err == nil {
				seen[key] = true
				result.Created = append(result.Created, created)
				continue
			}
		}

		result.Failed++
		rowErrs = append(rowErrs, &RowError{Row: i + 1, Name: h.Name, Err: err})
	}

	return result, errors.Join(rowErrs...)
}

func (h Holding) toNewInvestment() (investment.NewInvestment, error) {
	in := investment.NewInvestment{
		ItemName: h.Name,
		Quantity: h.Quantity,
	}

	if h.Type != "" {
		t, err := domain.ParseItemType(h.Type)
		if err != nil {
			return in, err
		}
		in.ItemType = t
	}

	if h.PurchasePrice == nil {
		return in, &domain.ValidationError{Field: "purchase_price", Reason: "is required"}
	}
	price, err := toDecimal(h.PurchasePrice)
	if err != nil {
		return in, &domain.ValidationError{Field: "purchase_price", Reason: err.Error()}
	}
	in.PurchasePrice = price

	date, err := toDate(h.PurchaseDate)
	if err != nil {
		return in, &domain.ValidationError{Field: "purchase_date", Reason: err.Error()}
	}
	in.PurchaseDate = date

	return in, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch p := v.(type) {
	case int64:
		return decimal.NewFromInt(p), nil
	case float64:
		return decimal.NewFromFloat(p), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(p))
	default:
		return decimal.Zero, fmt.Errorf("unsupported value %v", v)
	}
}

func toDate(v any) (*time.Time, error) {
	var t time.Time
	switch d := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t = d
	case toml.LocalDate:
		t = d.AsTime(time.UTC)
	case toml.LocalDateTime:
		t = d.AsTime(time.UTC)
	case string:
		parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(d))
		if err != nil {
			return nil, fmt.Errorf("expected YYYY-MM-DD, got %q", d)
		}
		t = parsed
	default:
		return nil, fmt.Errorf("unsupported value %v", v)
	}
	t = t.UTC()
	return &t, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
