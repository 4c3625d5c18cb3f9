package sorting

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func inv(name string, typ domain.ItemType, purchase float64, current *float64, qty int, age int) *domain.Investment {
	i := &domain.Investment{
		ID:            uuid.New(),
		ItemName:      name,
		ItemType:      typ,
		PurchasePrice: decimal.NewFromFloat(purchase),
		Quantity:      qty,
		CreatedAt:     t0.Add(time.Duration(age) * time.Hour),
	}
	if current != nil {
		c := decimal.NewFromFloat(*current)
		i.CurrentPrice = &c
	}
	return i
}

func f(v float64) *float64 { return &v }

func itemNames(invs []*domain.Investment) []string {
	out := make([]string, len(invs))
	for i, v := range invs {
		out[i] = v.ItemName
	}
	return out
}

func fixture() []*domain.Investment {
	return []*domain.Investment{
		inv("Bravo", domain.ItemTypeSticker, 10, f(15), 1, 1), // +5
		inv("alpha", domain.ItemTypeSkin, 20, f(10), 1, 2),    // -10
		inv("Charlie", domain.ItemTypeSticker, 5, nil, 3, 3),  // 0 (unpriced)
		inv("Delta", domain.ItemTypeCase, 1, f(3), 10, 4),     // +20
		inv("Echo", domain.ItemTypeSticker, 2, f(2), 1, 5),    // 0
	}
}

func TestApply_DerivedProfitLoss(t *testing.T) {
	items := fixture()

	asc, err := Apply(items, Query{Field: FieldProfitLoss, Direction: Asc})
	require.NoError(t, err)
	desc, err := Apply(items, Query{Field: FieldProfitLoss, Direction: Desc})
	require.NoError(t, err)

	// Charlie (unpriced) and Echo tie at 0 and keep collection order in both directions
	assert.Equal(t, []string{"alpha", "Charlie", "Echo", "Bravo", "Delta"}, itemNames(asc))
	assert.Equal(t, []string{"Delta", "Bravo", "Charlie", "Echo", "alpha"}, itemNames(desc))
}

func TestApply_StoredFields(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "name ascending is case-insensitive",
			query: Query{Field: FieldItemName, Direction: Asc},
			want:  []string{"alpha", "Bravo", "Charlie", "Delta", "Echo"},
		},
		{
			name:  "purchase price descending",
			query: Query{Field: FieldPurchasePrice, Direction: Desc},
			want:  []string{"alpha", "Bravo", "Charlie", "Echo", "Delta"},
		},
		{
			name:  "current price ascending treats absent as zero",
			query: Query{Field: FieldCurrentPrice, Direction: Asc},
			want:  []string{"Charlie", "Echo", "Delta", "alpha", "Bravo"},
		},
		{
			name:  "created at descending is the default order",
			query: DefaultQuery(),
			want:  []string{"Echo", "Delta", "Charlie", "alpha", "Bravo"},
		},
		{
			name:  "quantity descending keeps ties stable",
			query: Query{Field: FieldQuantity, Direction: Desc},
			want:  []string{"Delta", "Charlie", "Bravo", "alpha", "Echo"},
		},
		{
			name:  "type ascending",
			query: Query{Field: FieldItemType, Direction: Asc},
			want:  []string{"Delta", "alpha", "Bravo", "Charlie", "Echo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(fixture(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, itemNames(got))
		})
	}
}

func TestApply_FilterBeforeSort(t *testing.T) {
	got, err := Apply(fixture(), Query{Field: FieldProfitLoss, Direction: Desc, Type: string(domain.ItemTypeSticker)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bravo", "Charlie", "Echo"}, itemNames(got))

	all, err := Apply(fixture(), Query{Field: FieldItemName, Direction: Asc, Type: TypeAll})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := Apply(fixture(), Query{Field: FieldItemName, Direction: Asc, Type: string(domain.ItemTypeKnife)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	items := fixture()
	before := itemNames(items)

	_, err := Apply(items, Query{Field: FieldItemName, Direction: Desc})
	require.NoError(t, err)

	assert.Equal(t, before, itemNames(items))
}

func TestApply_UnknownField(t *testing.T) {
	_, err := Apply(fixture(), Query{Field: "float_value"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery("", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultQuery(), q)

	q, err = ParseQuery("PROFIT_LOSS", "ASC", "Music Kit")
	require.NoError(t, err)
	assert.Equal(t, Query{Field: FieldProfitLoss, Direction: Asc, Type: "music_kit"}, q)

	_, err = ParseQuery("price", "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ParseQuery("", "sideways", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ParseQuery("", "", "rifle")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
