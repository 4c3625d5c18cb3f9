package history

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func pt(daysAgo int, value float64) Point {
	return Point{Timestamp: now.AddDate(0, 0, -daysAgo), Value: decimal.NewFromFloat(value)}
}

func values(ps []Point) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Value.String()
	}
	return out
}

func TestProject_SortsAndComputesStats(t *testing.T) {
	points := []Point{pt(1, 12), pt(5, 10), pt(3, 8), pt(0, 14)}

	proj := Project(points, AllTime(), now)

	assert.False(t, proj.Empty)
	assert.Equal(t, []string{"10", "8", "12", "14"}, values(proj.Points))
	assert.True(t, proj.Stats.Min.Equal(decimal.NewFromInt(8)))
	assert.True(t, proj.Stats.Max.Equal(decimal.NewFromInt(14)))
	assert.True(t, proj.Stats.Avg.Equal(decimal.NewFromInt(11)))
	assert.True(t, proj.Change.Absolute.Equal(decimal.NewFromInt(4)))
	assert.True(t, proj.Change.Percentage.Equal(decimal.NewFromInt(40)))
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	points := []Point{pt(1, 2), pt(2, 1)}

	Project(points, AllTime(), now)

	assert.Equal(t, []string{"2", "1"}, values(points))
}

func TestProject_StableOnEqualTimestamps(t *testing.T) {
	ts := now.Add(-time.Hour)
	points := []Point{
		{Timestamp: ts, Value: decimal.NewFromInt(1)},
		{Timestamp: ts.Add(-time.Hour), Value: decimal.NewFromInt(0)},
		{Timestamp: ts, Value: decimal.NewFromInt(2)},
		{Timestamp: ts, Value: decimal.NewFromInt(3)},
	}

	proj := Project(points, AllTime(), now)

	assert.Equal(t, []string{"0", "1", "2", "3"}, values(proj.Points))
}

func TestProject_Window(t *testing.T) {
	points := []Point{pt(40, 1), pt(20, 2), pt(6, 3), pt(1, 4)}

	week := Project(points, LastDays(7), now)
	month := Project(points, LastDays(30), now)

	assert.Equal(t, []string{"3", "4"}, values(week.Points))
	assert.Equal(t, []string{"2", "3", "4"}, values(month.Points))
	// The smaller window is a subsequence of the larger one
	assert.Subset(t, values(month.Points), values(week.Points))
}

func TestProject_WindowExcludesFuturePoints(t *testing.T) {
	points := []Point{pt(1, 4), {Timestamp: now.Add(time.Minute), Value: decimal.NewFromInt(99)}}

	proj := Project(points, LastDays(7), now)

	assert.Equal(t, []string{"4"}, values(proj.Points))
}

func TestProjectBuckets_KeepsBucketStraddlingWindowStart(t *testing.T) {
	// Setup
	at := time.Date(2025, 5, 10, 12, 30, 0, 0, time.UTC)
	straddling := Point{Timestamp: time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC), Value: decimal.NewFromInt(5)}
	before := Point{Timestamp: time.Date(2025, 5, 3, 11, 0, 0, 0, time.UTC), Value: decimal.NewFromInt(4)}
	points := []Point{before, straddling}

	// Execute
	plain := Project(points, LastDays(7), at)
	bucketed := ProjectBuckets(points, LastDays(7), at, time.Hour)

	// Assert
	assert.True(t, plain.Empty)
	assert.Equal(t, []string{"5"}, values(bucketed.Points))
	assert.Equal(t, LastDays(7), bucketed.Window)
}

func TestProjectBuckets_AllTime(t *testing.T) {
	points := []Point{pt(400, 1), pt(1, 2)}

	proj := ProjectBuckets(points, AllTime(), now, time.Hour)

	assert.Equal(t, []string{"1", "2"}, values(proj.Points))
}

func TestProject_Empty(t *testing.T) {
	proj := Project([]Point{pt(100, 5)}, LastDays(7), now)

	assert.True(t, proj.Empty)
	assert.Empty(t, proj.Points)
	assert.True(t, proj.Stats.Avg.IsZero())
	assert.True(t, proj.Change.Percentage.IsZero())
}

func TestProject_FirstValueZero(t *testing.T) {
	proj := Project([]Point{pt(2, 0), pt(1, 5)}, AllTime(), now)

	assert.True(t, proj.Change.Absolute.Equal(decimal.NewFromInt(5)))
	assert.True(t, proj.Change.Percentage.IsZero())
}

func TestProject_AverageBounded(t *testing.T) {
	proj := Project([]Point{pt(3, 1), pt(2, 1), pt(1, 2)}, AllTime(), now)

	assert.True(t, proj.Stats.Min.LessThanOrEqual(proj.Stats.Avg))
	assert.True(t, proj.Stats.Avg.LessThanOrEqual(proj.Stats.Max))
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		input   string
		want    Window
		wantErr bool
	}{
		{input: "", want: AllTime()},
		{input: "all", want: AllTime()},
		{input: "ALL", want: AllTime()},
		{input: "30", want: LastDays(30)},
		{input: "7d", want: LastDays(7)},
		{input: "0", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWindow(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromPriceSnapshots(t *testing.T) {
	id := uuid.New()
	snaps := []*domain.PriceSnapshot{
		{ID: uuid.New(), InvestmentID: id, Price: decimal.NewFromInt(3), Timestamp: now},
	}

	points := FromPriceSnapshots(snaps)

	require.Len(t, points, 1)
	assert.Equal(t, now, points[0].Timestamp)
	assert.True(t, points[0].Value.Equal(decimal.NewFromInt(3)))
}
