package sorting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/usecase/valuation"
)

// Field names a sortable attribute of an investment
type Field string

const (
	FieldItemName      Field = "item_name"
	FieldItemType      Field = "item_type"
	FieldPurchasePrice Field = "purchase_price"
	FieldCurrentPrice  Field = "current_price"
	FieldQuantity      Field = "quantity"
	FieldCreatedAt     Field = "created_at"
	FieldProfitLoss    Field = "profit_loss" // derived, not stored
)

// Direction is the sort order
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// TypeAll disables the type filter
const TypeAll = "all"

// Query selects the filter and order applied to a collection
type Query struct {
	Field     Field
	Direction Direction
	Type      string // Item type, or "all"/"" for every type
}

// DefaultQuery orders newest first without filtering
func DefaultQuery() Query {
	return Query{Field: FieldCreatedAt, Direction: Desc, Type: TypeAll}
}

// ParseQuery builds a query from user input, applying defaults to empty values
func ParseQuery(field, direction, itemType string) (Query, error) {
	q := DefaultQuery()

	if field != "" {
		q.Field = Field(strings.ToLower(field))
		if _, err := comparatorFor(q.Field); err != nil {
			return Query{}, err
		}
	}

	switch strings.ToLower(direction) {
	case "":
	case string(Asc):
		q.Direction = Asc
	case string(Desc):
		q.Direction = Desc
	default:
		return Query{}, &domain.ValidationError{Field: "order", Reason: "must be asc or desc"}
	}

	if itemType != "" && !strings.EqualFold(itemType, TypeAll) {
		t, err := domain.ParseItemType(itemType)
		if err != nil {
			return Query{}, err
		}
		q.Type = string(t)
	}

	return q, nil
}

// comparator returns <0, 0 or >0 in ascending order
type comparator func(a, b *domain.Investment) int

func byDecimal(key func(*domain.Investment) decimal.Decimal) comparator {
	return func(a, b *domain.Investment) int {
		return key(a).Cmp(key(b))
	}
}

func comparatorFor(f Field) (comparator, error) {
	switch f {
	case FieldItemName:
		return func(a, b *domain.Investment) int {
			return strings.Compare(strings.ToLower(a.ItemName), strings.ToLower(b.ItemName))
		}, nil
	case FieldItemType:
		return func(a, b *domain.Investment) int {
			return strings.Compare(string(a.ItemType), string(b.ItemType))
		}, nil
	case FieldPurchasePrice:
		return byDecimal(func(i *domain.Investment) decimal.Decimal { return i.PurchasePrice }), nil
	case FieldCurrentPrice:
		return byDecimal(func(i *domain.Investment) decimal.Decimal {
			if i.CurrentPrice == nil {
				return decimal.Zero
			}
			return *i.CurrentPrice
		}), nil
	case FieldQuantity:
		return byDecimal(func(i *domain.Investment) decimal.Decimal { return decimal.NewFromInt(int64(i.Quantity)) }), nil
	case FieldCreatedAt:
		return func(a, b *domain.Investment) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}, nil
	case FieldProfitLoss:
		// Derived: recomputed for every comparison, absent current price counts as 0
		return byDecimal(valuation.ProfitLossOrZero), nil
	default:
		return nil, &domain.ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown field %q", f)}
	}
}

// Apply filters by type, then stable-sorts by the query field.
// The input slice is left untouched.
func Apply(investments []*domain.Investment, q Query) ([]*domain.Investment, error) {
	if q.Field == "" {
		q.Field = FieldCreatedAt
	}
	cmp, err := comparatorFor(q.Field)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Investment, 0, len(investments))
	for _, inv := range investments {
		if q.Type != "" && q.Type != TypeAll && string(inv.ItemType) != q.Type {
			continue
		}
		out = append(out, inv)
	}

	desc := q.Direction == Desc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})

	return out, nil
}
