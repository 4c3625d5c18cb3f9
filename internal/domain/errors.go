package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrValidation marks malformed input rejected before it reaches the store
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference to an unknown investment
	ErrNotFound = errors.New("not found")

	// ErrUpstreamFailed marks a price source error, including timeouts
	ErrUpstreamFailed = errors.New("price source failed")

	// ErrRateLimited marks a price source throttling signal
	ErrRateLimited = errors.New("price source rate limited")

	// ErrCooldown marks a refresh rejected before any upstream call was made
	ErrCooldown = errors.New("refresh cooling down")

	// ErrBatchRunning is returned when a batch refresh is already in progress
	ErrBatchRunning = errors.New("batch refresh already running")
)

// ValidationError describes which field failed validation and why
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// CooldownError is returned when an item is in flight or inside its cooldown window
type CooldownError struct {
	ID        uuid.UUID
	InFlight  bool
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	if e.InFlight {
		return fmt.Sprintf("investment %s: refresh already in progress", e.ID)
	}
	return fmt.Sprintf("investment %s: refresh available in %s", e.ID, e.Remaining.Round(time.Millisecond))
}

func (e *CooldownError) Unwrap() error {
	return ErrCooldown
}

// NotFoundError wraps ErrNotFound with the missing id
func NotFoundError(kind string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
