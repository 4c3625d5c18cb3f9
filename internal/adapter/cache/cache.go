// Package cache provides quote caches and a caching decorator for domain.PriceSource.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
)

// QuoteCache stores recent price quotes keyed by market hash name
type QuoteCache interface {
	// Get returns the cached quote, or false on a miss or an expired entry
	Get(ctx context.Context, key string) (*domain.PriceQuote, bool, error)

	// Set stores a quote for the cache's TTL
	Set(ctx context.Context, key string, quote *domain.PriceQuote) error
}

// Key normalizes an item name into a cache key
func Key(itemName string) string {
	return strings.ToLower(strings.TrimSpace(itemName))
}

// cachedQuote is the serialized form of a quote. Price is kept as a string to stay exact.
type cachedQuote struct {
	Price     string    `json:"price"`
	Volume    *int64    `json:"volume,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source"`
}

func toCached(q *domain.PriceQuote) cachedQuote {
	return cachedQuote{
		Price:     q.Price.String(),
		Volume:    q.Volume,
		FetchedAt: q.FetchedAt,
		Source:    q.Source,
	}
}

func (c cachedQuote) toQuote() (*domain.PriceQuote, error) {
	price, err := decimal.NewFromString(c.Price)
	if err != nil {
		return nil, err
	}
	return &domain.PriceQuote{
		Price:     price,
		Volume:    c.Volume,
		FetchedAt: c.FetchedAt,
		Source:    c.Source,
	}, nil
}
