package history

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Point is one observation in a chart series
type Point struct {
	Timestamp time.Time
	Value     decimal.Decimal
}

// Window restricts a series to the last Days days. The zero value keeps everything.
type Window struct {
	Days int
}

// AllTime keeps the whole series
func AllTime() Window { return Window{} }

// LastDays keeps observations from the last n days
func LastDays(n int) Window { return Window{Days: n} }

// IsAll reports whether the window keeps the whole series
func (w Window) IsAll() bool { return w.Days <= 0 }

// Since returns the window start relative to now, or nil for all time
func (w Window) Since(now time.Time) *time.Time {
	if w.IsAll() {
		return nil
	}
	since := now.AddDate(0, 0, -w.Days)
	return &since
}

func (w Window) String() string {
	if w.IsAll() {
		return "all"
	}
	return strconv.Itoa(w.Days) + "d"
}

// ParseWindow accepts a day count, or "all"/"" for the whole series
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return AllTime(), nil
	}
	days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
	if err != nil || days <= 0 {
		return Window{}, &domain.ValidationError{Field: "days", Reason: "must be a positive number of days or \"all\""}
	}
	return LastDays(days), nil
}

// Stats summarizes the values of a filtered series
type Stats struct {
	Min decimal.Decimal
	Max decimal.Decimal
	Avg decimal.Decimal
}

// Change is the movement between the first and last observation
type Change struct {
	Absolute   decimal.Decimal
	Percentage decimal.Decimal // 0 when the first value is 0
}

// Projection is a chart-ready series with its statistics
type Projection struct {
	Window Window
	Points []Point
	Stats  Stats
	Change Change
	Empty  bool
}

// Project sorts, filters and summarizes a series
// Logic:
//   - Points are stable-sorted ascending by timestamp (equal timestamps keep input order)
//   - Points outside [now - window, now] are dropped unless the window is all time
//   - Stats and change are computed over what remains
func Project(points []Point, window Window, now time.Time) Projection {
	return project(points, window, window.Since(now), now)
}

// ProjectBuckets is Project for series whose timestamps are bucket starts.
// The window start is truncated to the bucket width, so a bucket that begins
// before now - window but holds observations inside it is kept.
func ProjectBuckets(points []Point, window Window, now time.Time, width time.Duration) Projection {
	since := window.Since(now)
	if since != nil {
		aligned := since.UTC().Truncate(width)
		since = &aligned
	}
	return project(points, window, since, now)
}

func project(points []Point, window Window, since *time.Time, now time.Time) Projection {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	filtered := sorted
	if since != nil {
		filtered = make([]Point, 0, len(sorted))
		for _, p := range sorted {
			if p.Timestamp.Before(*since) || p.Timestamp.After(now) {
				continue
			}
			filtered = append(filtered, p)
		}
	}

	proj := Projection{
		Window: window,
		Points: filtered,
		Stats:  Stats{Min: decimal.Zero, Max: decimal.Zero, Avg: decimal.Zero},
		Change: Change{Absolute: decimal.Zero, Percentage: decimal.Zero},
		Empty:  len(filtered) == 0,
	}
	if proj.Empty {
		return proj
	}

	values := make([]decimal.Decimal, len(filtered))
	for i, p := range filtered {
		values[i] = p.Value
	}

	proj.Stats = Stats{
		Min: decimal.Min(values[0], values[1:]...),
		Max: decimal.Max(values[0], values[1:]...),
		Avg: decimal.Avg(values[0], values[1:]...),
	}

	first := values[0]
	last := values[len(values)-1]
	proj.Change.Absolute = last.Sub(first)
	if !first.IsZero() {
		proj.Change.Percentage = proj.Change.Absolute.Div(first).Mul(hundred)
	}

	return proj
}

// FromPriceSnapshots converts stored price snapshots into chart points
func FromPriceSnapshots(snapshots []*domain.PriceSnapshot) []Point {
	points := make([]Point, len(snapshots))
	for i, s := range snapshots {
		points[i] = Point{Timestamp: s.Timestamp, Value: s.Price}
	}
	return points
}

// FromValueSnapshots converts portfolio value snapshots into chart points
func FromValueSnapshots(snapshots []domain.PortfolioValueSnapshot) []Point {
	points := make([]Point, len(snapshots))
	for i, s := range snapshots {
		points[i] = Point{Timestamp: s.Timestamp, Value: s.Value}
	}
	return points
}
