package rest

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/simaogato/skinledger-backend/internal/domain"
)

// errorBody is the envelope of every error response.
// A failed single-item refresh also carries its outcome.
type errorBody struct {
	Error   errorDetail      `json:"error"`
	Outcome *refreshResponse `json:"outcome,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeError maps a service error onto a status code
func writeError(w http.ResponseWriter, err error) {
	status, code, message := classifyError(w, err)
	writeErrorCode(w, status, code, message)
}

// writeRefreshError is writeError for a refresh that reached the price source
func writeRefreshError(w http.ResponseWriter, err error, outcome domain.RefreshOutcome) {
	if outcome.Status == "" {
		writeError(w, err)
		return
	}
	status, code, message := classifyError(w, err)
	body := toRefreshResponse(outcome)
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}, Outcome: &body})
}

// classifyError picks the status, code and message for err, setting Retry-After on cooldowns
func classifyError(w http.ResponseWriter, err error) (int, string, string) {
	var cooldown *domain.CooldownError

	switch {
	case errors.As(err, &cooldown):
		retryAfter := int64(1)
		if !cooldown.InFlight {
			retryAfter = int64(math.Ceil(cooldown.Remaining.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
		}
		w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
		return http.StatusTooManyRequests, "cooldown", err.Error()
	case errors.Is(err, domain.ErrBatchRunning):
		return http.StatusConflict, "batch_running", err.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_failed", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusServiceUnavailable, "rate_limited", err.Error()
	case errors.Is(err, domain.ErrUpstreamFailed):
		return http.StatusBadGateway, "upstream_failed", err.Error()
	default:
		return http.StatusInternalServerError, "internal", "internal server error"
	}
}
