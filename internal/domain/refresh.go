package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefreshStatus is the result of one refresh attempt for one investment
type RefreshStatus string

const (
	RefreshSucceeded   RefreshStatus = "succeeded"
	RefreshFailed      RefreshStatus = "failed"
	RefreshRateLimited RefreshStatus = "rate_limited"
	// RefreshUnchanged means the source answered with a quote no newer than the stored price
	RefreshUnchanged RefreshStatus = "unchanged"
)

// RefreshOutcome is produced once per item per refresh attempt
type RefreshOutcome struct {
	InvestmentID uuid.UUID
	Status       RefreshStatus
	Price        *decimal.Decimal
	Reason       string
}

// RefreshSummary is the result of a batch refresh.
// Total counts every investment seen at batch start, including skipped ones.
type RefreshSummary struct {
	Total       int
	Updated     int
	Failed      int
	RateLimited int
	Unchanged   int
	Skipped     int
	Outcomes    []RefreshOutcome
}

// Record adds an outcome to the summary counters
func (s *RefreshSummary) Record(o RefreshOutcome) {
	switch o.Status {
	case RefreshSucceeded:
		s.Updated++
	case RefreshRateLimited:
		s.RateLimited++
	case RefreshUnchanged:
		s.Unchanged++
	default:
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}
