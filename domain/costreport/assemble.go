package costreport

import (
	lo "github.com/samber/lo"
)

// ResultRecord is the per-group outcome of one analysis run. Records are
// created once by Assemble and never mutated afterwards.
type ResultRecord struct {
	Group            string
	AverageCost      float64
	AnalysisDateCost float64
	Alert            bool
	PercentVariation float64
	CostDifference   float64
	Window           string // "YYYY-MM-DD to YYYY-MM-DD"
	DaysCounted      int
	AnalysisDate     string // YYYY-MM-DD
}

// Report is the assembled result set for one subscription and grouping.
// TotalAnalysisDateCost sums the analysis-date cost over every kept row,
// before any alert filtering, so duplicates count.
type Report struct {
	GroupingKey           string
	Records               []ResultRecord
	TotalAnalysisDateCost float64
	Window                Window
}

// Empty reports whether the run produced no records: either the upstream
// returned no rows, or every row was dropped (empty tag values). This is the
// "No Cost Found" outcome, never an error.
func (r Report) Empty() bool { return len(r.Records) == 0 }

// Alerts returns only the alerting records. An empty result is a valid,
// reportable outcome.
func (r Report) Alerts() []ResultRecord {
	return lo.Filter(r.Records, func(rec ResultRecord, _ int) bool { return rec.Alert })
}

// Assemble runs the baseline and alert evaluation over every group of the
// series, in insertion order. A group with no observation on the analysis
// date is evaluated with a legitimate zero cost, not dropped; a group whose
// observations all fall outside the window still yields a record with
// whatever baseline the aggregator computes.
func Assemble(series GroupSeries, w Window, groupingKey string, policy AlertPolicy) Report {
	analysisDate := w.AnalysisDate()
	report := Report{GroupingKey: groupingKey, Window: w}

	for _, key := range series.Keys {
		obs := series.Obs[key]

		// Duplicate rows for the analysis date all contribute to the
		// subscription total, while the per-group figure resolves to the
		// first observation.
		report.TotalAnalysisDateCost += lo.SumBy(obs, func(o Observation) float64 {
			if o.Date == analysisDate {
				return o.Cost
			}
			return 0
		})

		average, days := Baseline(obs, w, policy.WeekdayRestricted)
		dayCost := CostOn(obs, analysisDate)
		var stddev float64
		if policy.Threshold == ThresholdMeanStdDev {
			stddev = SampleStdDev(obs)
		}
		ev := Evaluate(dayCost, average, stddev, policy)

		report.Records = append(report.Records, ResultRecord{
			Group:            key,
			AverageCost:      average,
			AnalysisDateCost: dayCost,
			Alert:            ev.Alert,
			PercentVariation: ev.PercentVariation,
			CostDifference:   ev.CostDifference,
			Window:           w.Label(),
			DaysCounted:      days,
			AnalysisDate:     w.To(),
		})
	}
	return report
}
