package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/usecase/investment"
	"github.com/simaogato/skinledger-backend/internal/usecase/portfolio"
	"github.com/simaogato/skinledger-backend/internal/usecase/ranking"
	"github.com/simaogato/skinledger-backend/internal/usecase/sorting"
	"github.com/simaogato/skinledger-backend/internal/usecase/valuation"
)

// Refresher refreshes prices on demand
type Refresher interface {
	RefreshOne(ctx context.Context, id uuid.UUID) (domain.RefreshOutcome, error)
	RefreshAll(ctx context.Context) (domain.RefreshSummary, error)
}

// Server implements the PortfolioService gRPC server
type Server struct {
	PortfolioService *portfolio.PortfolioService
	Refresher        Refresher
}

var _ PortfolioServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(portfolioService *portfolio.PortfolioService, refresher Refresher) *Server {
	return &Server{
		PortfolioService: portfolioService,
		Refresher:        refresher,
	}
}

// NewGRPCServer builds a grpc.Server with auth and logging interceptors and
// registers the PortfolioService, the health service and reflection on it
func NewGRPCServer(srv *Server, apiToken string, logger *log.Logger) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(logger),
			AuthInterceptor(apiToken),
		),
	)

	RegisterPortfolioServiceServer(s, srv)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)

	reflection.Register(s)

	return s, healthServer
}

// GetSummary handles the GetSummary RPC
func (s *Server) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	summary, err := s.PortfolioService.Summary(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	byType := make(map[string]any, len(summary.ByType))
	for t, b := range summary.ByType {
		byType[string(t)] = map[string]any{
			"count": b.Count,
			"value": b.Value.String(),
		}
	}

	return newStruct(map[string]any{
		"total_invested":      summary.TotalInvested.String(),
		"total_current_value": summary.TotalCurrentValue.String(),
		"total_profit_loss":   summary.TotalProfitLoss.String(),
		"total_roi_pct":       summary.TotalROIPct.StringFixed(2),
		"item_count":          summary.ItemCount,
		"by_type":             byType,
		"generated_at":        summary.GeneratedAt.Format(time.RFC3339),
	})
}

// ListInvestments handles the ListInvestments RPC.
// Request fields: sort, order, type, skip, limit.
func (s *Server) ListInvestments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	q, err := sorting.ParseQuery(stringField(req, "sort"), stringField(req, "order"), stringField(req, "type"))
	if err != nil {
		return nil, mapError(err)
	}

	skip := intField(req, "skip", 0)
	limit := intField(req, "limit", investment.MaxPageLimit)
	if skip < 0 || limit < 1 || limit > investment.MaxPageLimit {
		return nil, status.Errorf(codes.InvalidArgument, "skip must not be negative and limit must be between 1 and %d", investment.MaxPageLimit)
	}

	items, err := s.PortfolioService.Browse(ctx, q)
	if err != nil {
		return nil, mapError(err)
	}

	start := min(skip, len(items))
	end := min(start+limit, len(items))
	out := make([]any, 0, end-start)
	for _, item := range items[start:end] {
		out = append(out, investmentToMap(item.Investment, item.Metrics))
	}

	return newStruct(map[string]any{
		"items": out,
		"total": len(items),
	})
}

// RefreshPrice handles the RefreshPrice RPC. Request fields: id.
func (s *Server) RefreshPrice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuid.Parse(stringField(req, "id"))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id format: %v", err)
	}

	outcome, err := s.Refresher.RefreshOne(ctx, id)
	if err != nil {
		return nil, refreshError(err, outcome)
	}

	return newStruct(outcomeToMap(outcome))
}

// RefreshAll handles the RefreshAll RPC
func (s *Server) RefreshAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	summary, err := s.Refresher.RefreshAll(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	outcomes := make([]any, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		outcomes = append(outcomes, outcomeToMap(o))
	}

	return newStruct(map[string]any{
		"total":        summary.Total,
		"updated":      summary.Updated,
		"failed":       summary.Failed,
		"rate_limited": summary.RateLimited,
		"unchanged":    summary.Unchanged,
		"skipped":      summary.Skipped,
		"outcomes":     outcomes,
	})
}

// TopPerformers handles the TopPerformers RPC. Request fields: limit.
func (s *Server) TopPerformers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := intField(req, "limit", ranking.DefaultLimit)
	if limit < 1 {
		return nil, status.Error(codes.InvalidArgument, "limit must be at least 1")
	}

	result, err := s.PortfolioService.TopPerformers(ctx, limit)
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(map[string]any{
		"gainers": performersToList(result.Gainers),
		"losers":  performersToList(result.Losers),
	})
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return st, nil
}

func stringField(req *structpb.Struct, name string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[name].GetStringValue()
}

func intField(req *structpb.Struct, name string, fallback int) int {
	if req == nil {
		return fallback
	}
	v, ok := req.GetFields()[name]
	if !ok {
		return fallback
	}
	if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
		return fallback
	}
	return int(v.GetNumberValue())
}

func optionalDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func investmentToMap(inv *domain.Investment, m valuation.ItemMetrics) map[string]any {
	return map[string]any{
		"id":                 inv.ID.String(),
		"item_name":          inv.ItemName,
		"item_type":          string(inv.ItemType),
		"purchase_price":     inv.PurchasePrice.String(),
		"quantity":           inv.Quantity,
		"current_price":      optionalDecimal(inv.CurrentPrice),
		"price_last_updated": optionalTime(inv.PriceLastUpdated),
		"purchase_date":      optionalTime(inv.PurchaseDate),
		"value":              m.Value.String(),
		"profit_loss":        optionalDecimal(m.ProfitLoss),
		"roi_pct":            optionalDecimal(m.ROIPct),
	}
}

func outcomeToMap(o domain.RefreshOutcome) map[string]any {
	return map[string]any{
		"investment_id": o.InvestmentID.String(),
		"status":        string(o.Status),
		"price":         optionalDecimal(o.Price),
		"reason":        o.Reason,
	}
}

func performersToList(ps []ranking.Performer) []any {
	out := make([]any, 0, len(ps))
	for _, p := range ps {
		out = append(out, map[string]any{
			"id":                p.Investment.ID.String(),
			"item_name":         p.Investment.ItemName,
			"item_type":         string(p.Investment.ItemType),
			"price_change":      p.PriceChange.StringFixed(2),
			"price_change_pct":  p.PriceChangePct.StringFixed(2),
			"total_profit_loss": p.TotalProfitLoss.StringFixed(2),
		})
	}
	return out
}

// mapError converts domain errors to gRPC status errors
// refreshError is mapError with the outcome attached as a status detail
// when the refresh reached the price source
func refreshError(err error, outcome domain.RefreshOutcome) error {
	mapped := mapError(err)
	if outcome.Status == "" {
		return mapped
	}
	detail, encErr := structpb.NewStruct(outcomeToMap(outcome))
	if encErr != nil {
		return mapped
	}
	withOutcome, detailErr := status.Convert(mapped).WithDetails(detail)
	if detailErr != nil {
		return mapped
	}
	return withOutcome.Err()
}

// OutcomeFromError returns the refresh outcome carried by a RefreshPrice error, if any
func OutcomeFromError(err error) (*structpb.Struct, bool) {
	for _, d := range status.Convert(err).Details() {
		if st, ok := d.(*structpb.Struct); ok {
			return st, true
		}
	}
	return nil, false
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrCooldown), errors.Is(err, domain.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, domain.ErrBatchRunning):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, domain.ErrUpstreamFailed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
