package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemType is the category of a tradeable item
type ItemType string

const (
	ItemTypeSkin     ItemType = "skin"
	ItemTypeSticker  ItemType = "sticker"
	ItemTypeCase     ItemType = "case"
	ItemTypeAgent    ItemType = "agent"
	ItemTypeKnife    ItemType = "knife"
	ItemTypeGloves   ItemType = "gloves"
	ItemTypePatch    ItemType = "patch"
	ItemTypeMusicKit ItemType = "music_kit"
	ItemTypeGraffiti ItemType = "graffiti"
	ItemTypeOther    ItemType = "other"
)

// DefaultItemType is used when an investment is created without a type
const DefaultItemType = ItemTypeSticker

// MaxItemNameLength bounds the market hash name of an investment
const MaxItemNameLength = 255

// ItemTypes lists every known item type in display order
func ItemTypes() []ItemType {
	return []ItemType{
		ItemTypeSkin,
		ItemTypeSticker,
		ItemTypeCase,
		ItemTypeAgent,
		ItemTypeKnife,
		ItemTypeGloves,
		ItemTypePatch,
		ItemTypeMusicKit,
		ItemTypeGraffiti,
		ItemTypeOther,
	}
}

// Valid reports whether t is one of the known item types
func (t ItemType) Valid() bool {
	for _, known := range ItemTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseItemType converts user input into an ItemType.
// Matching is case-insensitive and accepts "music kit" for music_kit.
func ParseItemType(s string) (ItemType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	t := ItemType(normalized)
	if !t.Valid() {
		return "", &ValidationError{Field: "item_type", Reason: "unknown item type " + strings.TrimSpace(s)}
	}
	return t, nil
}

// Investment represents a tracked holding of a tradeable item
type Investment struct {
	ID               uuid.UUID
	ItemName         string // Steam market hash name
	ItemType         ItemType
	PurchasePrice    decimal.Decimal // Per unit
	Quantity         int
	CurrentPrice     *decimal.Decimal // NULL until the first successful refresh
	PriceLastUpdated *time.Time
	PurchaseDate     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate ensures the investment adheres to domain rules
func (i *Investment) Validate() error {
	name := strings.TrimSpace(i.ItemName)
	if name == "" {
		return &ValidationError{Field: "item_name", Reason: "cannot be empty"}
	}
	if utf8.RuneCountInString(name) > MaxItemNameLength {
		return &ValidationError{Field: "item_name", Reason: "cannot exceed 255 characters"}
	}
	if !i.ItemType.Valid() {
		return &ValidationError{Field: "item_type", Reason: "unknown item type " + string(i.ItemType)}
	}
	if i.PurchasePrice.IsNegative() {
		return &ValidationError{Field: "purchase_price", Reason: "must be zero or greater"}
	}
	if i.Quantity < 1 {
		return &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if i.CurrentPrice != nil && i.CurrentPrice.IsNegative() {
		return &ValidationError{Field: "current_price", Reason: "must be zero or greater"}
	}
	return nil
}

// HasCurrentPrice reports whether a market price has been recorded
func (i *Investment) HasCurrentPrice() bool {
	return i.CurrentPrice != nil
}

// EffectivePrice is the current price, or the purchase price when none is known
func (i *Investment) EffectivePrice() decimal.Decimal {
	if i.CurrentPrice != nil {
		return *i.CurrentPrice
	}
	return i.PurchasePrice
}

// CostBasis is purchase price times quantity
func (i *Investment) CostBasis() decimal.Decimal {
	return i.PurchasePrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// InvestmentPatch carries a partial edit. Nil fields are left unchanged.
type InvestmentPatch struct {
	ItemName      *string
	ItemType      *ItemType
	PurchasePrice *decimal.Decimal
	Quantity      *int
	PurchaseDate  *time.Time
}

// IsEmpty reports whether the patch changes nothing
func (p InvestmentPatch) IsEmpty() bool {
	return p.ItemName == nil && p.ItemType == nil && p.PurchasePrice == nil && p.Quantity == nil && p.PurchaseDate == nil
}

// Apply returns a copy of inv with the patch applied
func (p InvestmentPatch) Apply(inv Investment) Investment {
	if p.ItemName != nil {
		inv.ItemName = strings.TrimSpace(*p.ItemName)
	}
	if p.ItemType != nil {
		inv.ItemType = *p.ItemType
	}
	if p.PurchasePrice != nil {
		inv.PurchasePrice = *p.PurchasePrice
	}
	if p.Quantity != nil {
		inv.Quantity = *p.Quantity
	}
	if p.PurchaseDate != nil {
		d := *p.PurchaseDate
		inv.PurchaseDate = &d
	}
	return inv
}
