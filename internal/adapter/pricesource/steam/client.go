// Package steam implements domain.PriceSource against the Steam Community Market priceoverview endpoint.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/Rhymond/go-money"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/logging"
)

const maxBodyBytes = 1 << 20

// Config configures the client
type Config struct {
	BaseURL      string
	AppID        int // 730 is Counter-Strike
	Currency     int // Steam currency id, 2 is GBP
	CurrencyCode string
	Timeout      time.Duration
	UserAgent    string
}

// DefaultConfig queries Counter-Strike items priced in GBP
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://steamcommunity.com/market/priceoverview/",
		AppID:        730,
		Currency:     2,
		CurrencyCode: "GBP",
		Timeout:      15 * time.Second,
		UserAgent:    "skinledger/0.1",
	}
}

// Client fetches market prices from Steam
type Client struct {
	cfg  Config
	http *http.Client
	log  *log.Logger
	now  func() time.Time
}

// NewClient creates a new Client. A nil httpClient uses a default client.
func NewClient(cfg Config, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.CurrencyCode == "" {
		cfg.CurrencyCode = "GBP"
	}
	return &Client{cfg: cfg, http: httpClient, log: logger, now: time.Now}
}

// FetchPrice returns the median price of an item, falling back to the lowest listing
// Logic:
//   - HTTP 429 maps to ErrRateLimited
//   - Any other non-200, success=false, a missing price, a transport error or a timeout maps to ErrUpstreamFailed
func (c *Client) FetchPrice(ctx context.Context, itemName string) (*domain.PriceQuote, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(itemName), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build steam request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	started := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("steam request for %q timed out: %w", itemName, domain.ErrUpstreamFailed)
		}
		return nil, fmt.Errorf("steam request for %q: %w: %v", itemName, domain.ErrUpstreamFailed, err)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("item", itemName).Int("status", resp.StatusCode).Dur("elapsed", c.now().Sub(started)).Msg("steam priceoverview")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("steam returned 429 for %q: %w", itemName, domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("steam returned %s for %q: %w", resp.Status, itemName, domain.ErrUpstreamFailed)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read steam response for %q: %w: %v", itemName, domain.ErrUpstreamFailed, err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("malformed steam response for %q: %w: %v", itemName, domain.ErrUpstreamFailed, err)
	}

	if ok, _ := lookup(doc, "$.success").(bool); !ok {
		return nil, fmt.Errorf("item %q not found on market: %w", itemName, domain.ErrUpstreamFailed)
	}

	priceText, _ := lookup(doc, "$.median_price").(string)
	if priceText == "" {
		priceText, _ = lookup(doc, "$.lowest_price").(string)
	}
	if priceText == "" {
		return nil, fmt.Errorf("no price listed for %q: %w", itemName, domain.ErrUpstreamFailed)
	}

	price, err := ParsePrice(priceText, c.cfg.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("unreadable price for %q: %w: %v", itemName, domain.ErrUpstreamFailed, err)
	}

	quote := &domain.PriceQuote{
		Price:     price,
		FetchedAt: c.now().UTC(),
		Source:    domain.SourceSteamMarket,
	}
	if volumeText, ok := lookup(doc, "$.volume").(string); ok {
		if volume, err := ParseVolume(volumeText, c.cfg.CurrencyCode); err == nil {
			quote.Volume = &volume
		}
	}

	return quote, nil
}

func (c *Client) requestURL(itemName string) string {
	params := url.Values{}
	params.Set("appid", strconv.Itoa(c.cfg.AppID))
	params.Set("currency", strconv.Itoa(c.cfg.Currency))
	params.Set("market_hash_name", itemName)

	sep := "?"
	if strings.Contains(c.cfg.BaseURL, "?") {
		sep = "&"
	}
	return c.cfg.BaseURL + sep + params.Encode()
}

// lookup evaluates a JSONPath and returns nil when nothing matches
func lookup(doc any, path string) any {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil
	}
	// A path may yield a one element list or the value itself
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

// ParsePrice reads a localized price such as "£1,234.56" using the currency's symbol and separators
func ParsePrice(text, currencyCode string) (decimal.Decimal, error) {
	cur := money.GetCurrency(currencyCode)
	if cur == nil {
		return decimal.Zero, fmt.Errorf("unknown currency %q", currencyCode)
	}

	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, cur.Grapheme, "")
	s = strings.ReplaceAll(s, cur.Code, "")
	if cur.Thousand != "" {
		s = strings.ReplaceAll(s, cur.Thousand, "")
	}
	if cur.Decimal != "" && cur.Decimal != "." {
		s = strings.ReplaceAll(s, cur.Decimal, ".")
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, " ", ""))

	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot parse %q: %w", text, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %q", text)
	}
	return price, nil
}

// ParseVolume reads a sales count such as "1,204"
func ParseVolume(text, currencyCode string) (int64, error) {
	s := strings.TrimSpace(text)
	if cur := money.GetCurrency(currencyCode); cur != nil && cur.Thousand != "" {
		s = strings.ReplaceAll(s, cur.Thousand, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseInt(s, 10, 64)
}
