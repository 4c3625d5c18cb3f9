package cache

import (
	"context"

	"github.com/phuslu/log"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/logging"
)

// CachingSource serves recent quotes from a QuoteCache and fetches the rest.
// Failures are never cached, and a broken cache degrades to direct fetches.
type CachingSource struct {
	Source domain.PriceSource
	Cache  QuoteCache

	log *log.Logger
}

// NewCachingSource wraps source with cache
func NewCachingSource(source domain.PriceSource, cache QuoteCache, logger *log.Logger) *CachingSource {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CachingSource{Source: source, Cache: cache, log: logger}
}

// FetchPrice implements domain.PriceSource
func (s *CachingSource) FetchPrice(ctx context.Context, itemName string) (*domain.PriceQuote, error) {
	key := Key(itemName)

	quote, hit, err := s.Cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Str("item", itemName).Err(err).Msg("quote cache read failed")
	}
	if hit {
		s.log.Debug().Str("item", itemName).Msg("quote cache hit")
		return quote, nil
	}

	quote, err = s.Source.FetchPrice(ctx, itemName)
	if err != nil {
		return nil, err
	}

	if err := s.Cache.Set(ctx, key, quote); err != nil {
		s.log.Warn().Str("item", itemName).Err(err).Msg("quote cache write failed")
	}
	return quote, nil
}
