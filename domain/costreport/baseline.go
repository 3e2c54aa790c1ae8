package costreport

import (
	"math"

	lo "github.com/samber/lo"
)

// Baseline computes the reference average cost for one group's series.
//
// With weekdayRestricted false it is the plain mean of every observed cost
// value, and days is the number of observations.
//
// With weekdayRestricted true the analysis date (w.End) is classified as
// weekend or weekday, and the mean runs over every calendar day of the same
// class in [w.Start, w.End] inclusive. A day with no observation counts as a
// legitimate zero cost, not a gap: weekday and weekend spending patterns
// differ structurally (batch jobs run on business days), so a Monday is only
// compared against other weekdays, zero-filled.
//
// When no days qualify the result is (0, 0).
func Baseline(obs []Observation, w Window, weekdayRestricted bool) (average float64, days int) {
	if !weekdayRestricted {
		if len(obs) == 0 {
			return 0, 0
		}
		return lo.SumBy(obs, func(o Observation) float64 { return o.Cost }) / float64(len(obs)), len(obs)
	}

	analysisIsWeekend := isWeekend(w.End)
	var total float64
	for day := w.Start; !day.After(w.End); day = day.AddDate(0, 0, 1) {
		if isWeekend(day) != analysisIsWeekend {
			continue
		}
		total += CostOn(obs, DateInt(day))
		days++
	}
	if days == 0 {
		return 0, 0
	}
	return total / float64(days), days
}

// CostOn returns the cost observed on the given date, or 0 when the series
// has no entry for it. With duplicate dates the first observation wins,
// matching encounter order.
func CostOn(obs []Observation, date int) float64 {
	if o, ok := lo.Find(obs, func(o Observation) bool { return o.Date == date }); ok {
		return o.Cost
	}
	return 0
}

// SampleStdDev is the sample standard deviation of the observed costs,
// 0 when fewer than two observations exist. Feeds the mean-plus-stddev
// alert threshold.
func SampleStdDev(obs []Observation) float64 {
	if len(obs) < 2 {
		return 0
	}
	mean := lo.SumBy(obs, func(o Observation) float64 { return o.Cost }) / float64(len(obs))
	var sq float64
	for _, o := range obs {
		d := o.Cost - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(obs)-1))
}

// DailyTotals sums costs across all groups for each calendar day of the
// window, in order. Used for the terminal trend graph.
func DailyTotals(series GroupSeries, w Window) []float64 {
	var totals []float64
	for day := w.Start; !day.After(w.End); day = day.AddDate(0, 0, 1) {
		date := DateInt(day)
		var sum float64
		for _, key := range series.Keys {
			for _, o := range series.Obs[key] {
				if o.Date == date {
					sum += o.Cost
				}
			}
		}
		totals = append(totals, sum)
	}
	return totals
}
