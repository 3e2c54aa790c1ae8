package costreport

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func window(t *testing.T, end string, period int) Window {
	t.Helper()
	w, err := ResolveWindow(end, period, time.Now())
	require.NoError(t, err)
	return w
}

func TestBaselineSimpleMean(t *testing.T) {
	obs := []Observation{
		{20240101, 10}, {20240102, 10}, {20240103, 10}, {20240104, 10},
		{20240105, 10}, {20240106, 10}, {20240107, 10},
	}
	avg, days := Baseline(obs, window(t, "2024-01-08", 7), false)

	assert.Equal(t, 10.0, avg)
	assert.Equal(t, 7, days)
}

func TestBaselineSimpleMeanEmptySeries(t *testing.T) {
	avg, days := Baseline(nil, window(t, "2024-01-08", 7), false)
	assert.Zero(t, avg)
	assert.Zero(t, days)
}

func TestBaselineIsDeterministic(t *testing.T) {
	obs := []Observation{{20240102, 3.3}, {20240105, 7.7}, {20240102, 3.3}}
	w := window(t, "2024-01-08", 7)

	avg1, days1 := Baseline(obs, w, true)
	avg2, days2 := Baseline(obs, w, true)
	assert.Equal(t, avg1, avg2)
	assert.Equal(t, days1, days2)
}

// Weekday-restricted baselines zero-fill missing days: a weekday with no
// cost row divides the sum, it is not skipped.
func TestBaselineWeekdayZeroFill(t *testing.T) {
	// 2024-02-01 is a Thursday; the window runs 2024-01-01..2024-02-01
	// inclusive, which holds 24 weekdays and 8 weekend days.
	w := window(t, "2024-02-01", 31)
	obs := []Observation{
		{20240102, 10}, {20240103, 10}, {20240110, 10}, {20240118, 10}, {20240126, 10},
	}

	avg, days := Baseline(obs, w, true)

	assert.Equal(t, 24, days)
	assert.InDelta(t, 50.0/24.0, avg, 1e-9)
}

func TestBaselineWeekendAnalysisDateUsesWeekendDaysOnly(t *testing.T) {
	// 2024-01-20 is a Saturday; with a 20-day period the window starts on
	// Sunday 2023-12-31 and holds exactly 6 weekend days.
	w := window(t, "2024-01-20", 20)
	obs := []Observation{
		// weekday costs, must not influence the baseline
		{20240102, 10}, {20240103, 130},
		// weekend costs: 5 + 5 + 10 + 20 = 40 over 6 weekend days
		{20231231, 5}, {20240106, 5}, {20240107, 10}, {20240120, 20},
	}

	avg, days := Baseline(obs, w, true)

	assert.Equal(t, 6, days)
	assert.InDelta(t, 40.0/6.0, avg, 1e-9)
}

func TestBaselineNoMatchingDays(t *testing.T) {
	// Start after end never happens via ResolveWindow, so force a window
	// where the loop body never runs.
	w := Window{
		Start: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
	}
	avg, days := Baseline([]Observation{{20240105, 10}}, w, true)
	assert.Zero(t, avg)
	assert.Zero(t, days)
}

func TestCostOn(t *testing.T) {
	obs := []Observation{{20240101, 7}, {20240102, 9}, {20240101, 3}}

	assert.Equal(t, 9.0, CostOn(obs, 20240102))
	assert.Equal(t, 0.0, CostOn(obs, 20240199))
	// first observation wins on duplicate dates
	assert.Equal(t, 7.0, CostOn(obs, 20240101))
}

func TestSampleStdDev(t *testing.T) {
	obs := []Observation{
		{1, 2}, {2, 4}, {3, 4}, {4, 4}, {5, 5}, {6, 5}, {7, 7}, {8, 9},
	}
	assert.InDelta(t, math.Sqrt(32.0/7.0), SampleStdDev(obs), 1e-9)

	assert.Zero(t, SampleStdDev(nil))
	assert.Zero(t, SampleStdDev([]Observation{{1, 42}}))
}

func TestDailyTotals(t *testing.T) {
	w := window(t, "2024-01-03", 2)
	series := GroupSeries{
		Keys: []string{"a", "b"},
		Obs: map[string][]Observation{
			"a": {{20240101, 1}, {20240103, 2}},
			"b": {{20240101, 4}},
		},
	}
	assert.Equal(t, []float64{5, 0, 2}, DailyTotals(series, w))
}
