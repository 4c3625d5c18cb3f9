package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/usecase/history"
	"github.com/simaogato/skinledger-backend/internal/usecase/investment"
	"github.com/simaogato/skinledger-backend/internal/usecase/portfolio"
	"github.com/simaogato/skinledger-backend/internal/usecase/ranking"
	"github.com/simaogato/skinledger-backend/internal/usecase/report"
	"github.com/simaogato/skinledger-backend/internal/usecase/sorting"
	"github.com/simaogato/skinledger-backend/internal/usecase/valuation"
)

// DefaultPageLimit applies when a listing has no limit parameter
const DefaultPageLimit = 100

// DefaultValueHistoryDays is the window of /portfolio/value-history without ?days
const DefaultValueHistoryDays = 30

const maxBodyBytes = 1 << 20

// Refresher refreshes prices on demand
type Refresher interface {
	RefreshOne(ctx context.Context, id uuid.UUID) (domain.RefreshOutcome, error)
	RefreshAll(ctx context.Context) (domain.RefreshSummary, error)
}

// Handler serves the REST API
type Handler struct {
	Investments *investment.InvestmentService
	Portfolio   *portfolio.PortfolioService
	Refresher   Refresher
	Version     string

	log *log.Logger
	now func() time.Time
}

// NewHandler creates a new Handler
func NewHandler(
	investments *investment.InvestmentService,
	portfolioService *portfolio.PortfolioService,
	refresher Refresher,
	version string,
	logger *log.Logger,
) *Handler {
	return &Handler{
		Investments: investments,
		Portfolio:   portfolioService,
		Refresher:   refresher,
		Version:     version,
		log:         logger,
		now:         time.Now,
	}
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": h.now().UTC(),
		"version":   h.Version,
	})
}

// ListInvestments handles GET /api/v1/investments?skip&limit&sort&order&type
func (h *Handler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	skip, err := intParam(query.Get("skip"), "skip", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := intParam(query.Get("limit"), "limit", DefaultPageLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if skip < 0 {
		writeError(w, &domain.ValidationError{Field: "skip", Reason: "must not be negative"})
		return
	}
	if limit < 1 || limit > investment.MaxPageLimit {
		writeError(w, &domain.ValidationError{Field: "limit", Reason: "must be between 1 and " + strconv.Itoa(investment.MaxPageLimit)})
		return
	}

	q, err := sorting.ParseQuery(query.Get("sort"), query.Get("order"), query.Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.Portfolio.Browse(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}

	total := len(items)
	start := min(skip, total)
	end := min(start+limit, total)

	resp := investmentListResponse{
		Items: make([]investmentResponse, 0, end-start),
		Total: total,
		Skip:  skip,
		Limit: limit,
	}
	for _, item := range items[start:end] {
		resp.Items = append(resp.Items, toInvestmentResponse(item.Investment, item.Metrics))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateInvestment handles POST /api/v1/investments
func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req createInvestmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := investment.NewInvestment{
		ItemName:      req.ItemName,
		PurchasePrice: req.PurchasePrice,
	}
	if req.ItemType != "" {
		t, err := domain.ParseItemType(req.ItemType)
		if err != nil {
			writeError(w, err)
			return
		}
		in.ItemType = t
	}
	if req.Quantity != nil {
		if *req.Quantity < 1 {
			writeError(w, &domain.ValidationError{Field: "quantity", Reason: "must be at least 1"})
			return
		}
		in.Quantity = *req.Quantity
	}
	date, err := parseDate(req.PurchaseDate)
	if err != nil {
		writeError(w, err)
		return
	}
	in.PurchaseDate = date

	inv, err := h.Investments.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toInvestmentResponse(inv, valuation.Evaluate(inv)))
}

// GetInvestment handles GET /api/v1/investments/{id}
func (h *Handler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	inv, err := h.Investments.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toInvestmentResponse(inv, valuation.Evaluate(inv)))
}

// UpdateInvestment handles PATCH and PUT /api/v1/investments/{id}
func (h *Handler) UpdateInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateInvestmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, err)
		return
	}

	inv, err := h.Investments.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toInvestmentResponse(inv, valuation.Evaluate(inv)))
}

// DeleteInvestment handles DELETE /api/v1/investments/{id}
func (h *Handler) DeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Investments.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RefreshPrice handles POST /api/v1/prices/refresh/{id}
func (h *Handler) RefreshPrice(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, err := h.Refresher.RefreshOne(r.Context(), id)
	if err != nil {
		writeRefreshError(w, err, outcome)
		return
	}

	writeJSON(w, http.StatusOK, toRefreshResponse(outcome))
}

// RefreshAll handles POST /api/v1/prices/refresh-all.
// The batch is paced, so the request can run for minutes on a large collection.
func (h *Handler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Refresher.RefreshAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRefreshAllResponse(summary))
}

// PriceHistory handles GET /api/v1/price-history/{id}?days
func (h *Handler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	window, err := history.ParseWindow(r.URL.Query().Get("days"))
	if err != nil {
		writeError(w, err)
		return
	}

	projection, err := h.Portfolio.PriceHistory(r.Context(), id, window)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toProjectionResponse(projection)
	resp.InvestmentID = id.String()
	writeJSON(w, http.StatusOK, resp)
}

// LatestPrice handles GET /api/v1/price-history/{id}/latest
func (h *Handler) LatestPrice(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snapshot, err := h.Portfolio.LatestPrice(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse{
		InvestmentID: snapshot.InvestmentID.String(),
		Price:        snapshot.Price,
		Timestamp:    snapshot.Timestamp,
		Source:       snapshot.Source,
		Volume:       snapshot.Volume,
	})
}

// Summary handles GET /api/v1/portfolio/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Portfolio.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// ValueHistory handles GET /api/v1/portfolio/value-history?days=30
func (h *Handler) ValueHistory(w http.ResponseWriter, r *http.Request) {
	days := r.URL.Query().Get("days")
	if days == "" {
		days = strconv.Itoa(DefaultValueHistoryDays)
	}
	window, err := history.ParseWindow(days)
	if err != nil {
		writeError(w, err)
		return
	}

	projection, err := h.Portfolio.ValueHistory(r.Context(), window)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectionResponse(projection))
}

// TopPerformers handles GET /api/v1/portfolio/top-performers?limit=3
func (h *Handler) TopPerformers(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), "limit", ranking.DefaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if limit < 1 {
		writeError(w, &domain.ValidationError{Field: "limit", Reason: "must be at least 1"})
		return
	}

	result, err := h.Portfolio.TopPerformers(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, topPerformersResponse{
		Gainers: toPerformers(result.Gainers),
		Losers:  toPerformers(result.Losers),
	})
}

// Report handles GET /api/v1/portfolio/report and returns an HTML page
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.Portfolio.Summary(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	top, err := h.Portfolio.TopPerformers(ctx, ranking.DefaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := report.HTML(report.Markdown(summary.Summary, top, summary.GeneratedAt))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to render report")
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, &domain.ValidationError{Field: "id", Reason: "must be a UUID"}
	}
	return id, nil
}

func intParam(raw, name string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return n, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &domain.ValidationError{Field: "body", Reason: "request body is empty"}
		}
		return &domain.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}
