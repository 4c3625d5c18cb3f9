package rest

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/usecase/history"
	"github.com/simaogato/skinledger-backend/internal/usecase/portfolio"
	"github.com/simaogato/skinledger-backend/internal/usecase/ranking"
	"github.com/simaogato/skinledger-backend/internal/usecase/valuation"
)

// Decimals are encoded as JSON strings by shopspring/decimal.

type investmentResponse struct {
	ID               string           `json:"id"`
	ItemName         string           `json:"item_name"`
	ItemType         domain.ItemType  `json:"item_type"`
	PurchasePrice    decimal.Decimal  `json:"purchase_price"`
	Quantity         int              `json:"quantity"`
	CurrentPrice     *decimal.Decimal `json:"current_price"`
	PriceLastUpdated *time.Time       `json:"price_last_updated"`
	PurchaseDate     *time.Time       `json:"purchase_date"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Value            decimal.Decimal  `json:"value"`
	ProfitLoss       *decimal.Decimal `json:"profit_loss"`
	ROIPct           *decimal.Decimal `json:"roi_pct"`
}

func toInvestmentResponse(inv *domain.Investment, m valuation.ItemMetrics) investmentResponse {
	return investmentResponse{
		ID:               inv.ID.String(),
		ItemName:         inv.ItemName,
		ItemType:         inv.ItemType,
		PurchasePrice:    inv.PurchasePrice,
		Quantity:         inv.Quantity,
		CurrentPrice:     inv.CurrentPrice,
		PriceLastUpdated: inv.PriceLastUpdated,
		PurchaseDate:     inv.PurchaseDate,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
		Value:            m.Value,
		ProfitLoss:       m.ProfitLoss,
		ROIPct:           m.ROIPct,
	}
}

type investmentListResponse struct {
	Items []investmentResponse `json:"items"`
	Total int                  `json:"total"`
	Skip  int                  `json:"skip"`
	Limit int                  `json:"limit"`
}

// createInvestmentRequest is the body of POST /investments
type createInvestmentRequest struct {
	ItemName      string          `json:"item_name"`
	ItemType      string          `json:"item_type"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Quantity      *int            `json:"quantity"`
	PurchaseDate  string          `json:"purchase_date"`
}

// updateInvestmentRequest is the body of PATCH/PUT /investments/{id}. Absent fields are kept.
type updateInvestmentRequest struct {
	ItemName      *string          `json:"item_name"`
	ItemType      *string          `json:"item_type"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	Quantity      *int             `json:"quantity"`
	PurchaseDate  *string          `json:"purchase_date"`
}

func (req updateInvestmentRequest) toPatch() (domain.InvestmentPatch, error) {
	patch := domain.InvestmentPatch{
		ItemName:      req.ItemName,
		PurchasePrice: req.PurchasePrice,
		Quantity:      req.Quantity,
	}
	if req.ItemType != nil {
		t, err := domain.ParseItemType(*req.ItemType)
		if err != nil {
			return domain.InvestmentPatch{}, err
		}
		patch.ItemType = &t
	}
	if req.PurchaseDate != nil {
		d, err := parseDate(*req.PurchaseDate)
		if err != nil {
			return domain.InvestmentPatch{}, err
		}
		patch.PurchaseDate = d
	}
	return patch, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Empty means no date.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &domain.ValidationError{Field: "purchase_date", Reason: "must be YYYY-MM-DD or RFC 3339"}
}

type typeBreakdownResponse struct {
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

type summaryResponse struct {
	TotalInvested     decimal.Decimal                           `json:"total_invested"`
	TotalCurrentValue decimal.Decimal                           `json:"total_current_value"`
	TotalProfitLoss   decimal.Decimal                           `json:"total_profit_loss"`
	TotalROIPct       decimal.Decimal                           `json:"total_roi_pct"`
	ItemCount         int                                       `json:"item_count"`
	ByType            map[domain.ItemType]typeBreakdownResponse `json:"by_type"`
	Items             map[string]itemMetricsResponse            `json:"items"`
	GeneratedAt       time.Time                                 `json:"generated_at"`
}

type itemMetricsResponse struct {
	Value      decimal.Decimal  `json:"value"`
	ProfitLoss *decimal.Decimal `json:"profit_loss"`
	ROIPct     *decimal.Decimal `json:"roi_pct"`
}

func toSummaryResponse(s *portfolio.SummaryResult) summaryResponse {
	resp := summaryResponse{
		TotalInvested:     s.TotalInvested,
		TotalCurrentValue: s.TotalCurrentValue,
		TotalProfitLoss:   s.TotalProfitLoss,
		TotalROIPct:       s.TotalROIPct,
		ItemCount:         s.ItemCount,
		ByType:            make(map[domain.ItemType]typeBreakdownResponse, len(s.ByType)),
		Items:             make(map[string]itemMetricsResponse, len(s.Items)),
		GeneratedAt:       s.GeneratedAt,
	}
	for t, b := range s.ByType {
		resp.ByType[t] = typeBreakdownResponse{Count: b.Count, Value: b.Value}
	}
	for id, m := range s.Items {
		resp.Items[id.String()] = itemMetricsResponse{Value: m.Value, ProfitLoss: m.ProfitLoss, ROIPct: m.ROIPct}
	}
	return resp
}

type performerResponse struct {
	ID              string          `json:"id"`
	ItemName        string          `json:"item_name"`
	ItemType        domain.ItemType `json:"item_type"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	Quantity        int             `json:"quantity"`
	PriceChange     decimal.Decimal `json:"price_change"`
	PriceChangePct  decimal.Decimal `json:"price_change_pct"`
	TotalProfitLoss decimal.Decimal `json:"total_profit_loss"`
}

type topPerformersResponse struct {
	Gainers []performerResponse `json:"gainers"`
	Losers  []performerResponse `json:"losers"`
}

func toPerformers(ps []ranking.Performer) []performerResponse {
	out := make([]performerResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, performerResponse{
			ID:              p.Investment.ID.String(),
			ItemName:        p.Investment.ItemName,
			ItemType:        p.Investment.ItemType,
			PurchasePrice:   p.Investment.PurchasePrice,
			CurrentPrice:    p.Investment.EffectivePrice(),
			Quantity:        p.Investment.Quantity,
			PriceChange:     p.PriceChange.Round(2),
			PriceChangePct:  p.PriceChangePct.Round(2),
			TotalProfitLoss: p.TotalProfitLoss.Round(2),
		})
	}
	return out
}

type pointResponse struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     decimal.Decimal `json:"value"`
}

type projectionResponse struct {
	InvestmentID string          `json:"investment_id,omitempty"`
	Window       string          `json:"window"`
	Points       []pointResponse `json:"points"`
	Min          decimal.Decimal `json:"min"`
	Max          decimal.Decimal `json:"max"`
	Avg          decimal.Decimal `json:"avg"`
	Change       decimal.Decimal `json:"change"`
	ChangePct    decimal.Decimal `json:"change_pct"`
	Empty        bool            `json:"empty"`
}

func toProjectionResponse(p history.Projection) projectionResponse {
	points := make([]pointResponse, 0, len(p.Points))
	for _, pt := range p.Points {
		points = append(points, pointResponse{Timestamp: pt.Timestamp, Value: pt.Value})
	}
	return projectionResponse{
		Window:    p.Window.String(),
		Points:    points,
		Min:       p.Stats.Min,
		Max:       p.Stats.Max,
		Avg:       p.Stats.Avg.Round(2),
		Change:    p.Change.Absolute,
		ChangePct: p.Change.Percentage.Round(2),
		Empty:     p.Empty,
	}
}

type snapshotResponse struct {
	InvestmentID string          `json:"investment_id"`
	Price        decimal.Decimal `json:"price"`
	Timestamp    time.Time       `json:"timestamp"`
	Source       string          `json:"source"`
	Volume       *int64          `json:"volume"`
}

type refreshResponse struct {
	InvestmentID string               `json:"investment_id"`
	Status       domain.RefreshStatus `json:"status"`
	CurrentPrice *decimal.Decimal     `json:"current_price,omitempty"`
	Reason       string               `json:"reason,omitempty"`
}

func toRefreshResponse(o domain.RefreshOutcome) refreshResponse {
	return refreshResponse{
		InvestmentID: o.InvestmentID.String(),
		Status:       o.Status,
		CurrentPrice: o.Price,
		Reason:       o.Reason,
	}
}

type refreshAllResponse struct {
	Total       int               `json:"total"`
	Updated     int               `json:"updated"`
	Failed      int               `json:"failed"`
	RateLimited int               `json:"rate_limited"`
	Unchanged   int               `json:"unchanged"`
	Skipped     int               `json:"skipped"`
	Outcomes    []refreshResponse `json:"outcomes"`
}

func toRefreshAllResponse(s domain.RefreshSummary) refreshAllResponse {
	outcomes := make([]refreshResponse, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		outcomes = append(outcomes, toRefreshResponse(o))
	}
	return refreshAllResponse{
		Total:       s.Total,
		Updated:     s.Updated,
		Failed:      s.Failed,
		RateLimited: s.RateLimited,
		Unchanged:   s.Unchanged,
		Skipped:     s.Skipped,
		Outcomes:    outcomes,
	}
}
