package costreport

// ThresholdMode selects the alert threshold above the baseline average.
type ThresholdMode string

const (
	// ThresholdEpsilon alerts when the analysis-date cost exceeds the
	// average plus a small flat epsilon. The epsilon keeps floating-point
	// noise from alerting on a cost exactly at baseline.
	ThresholdEpsilon ThresholdMode = "epsilon"
	// ThresholdMeanStdDev alerts only past one sample standard deviation
	// above the average: statistical-outlier detection rather than
	// any-increase detection.
	ThresholdMeanStdDev ThresholdMode = "stddev"
	// ThresholdMean alerts on any cost strictly above the average.
	ThresholdMean ThresholdMode = "mean"
)

// Valid reports whether m is a supported threshold mode.
func (m ThresholdMode) Valid() bool {
	switch m {
	case ThresholdEpsilon, ThresholdMeanStdDev, ThresholdMean:
		return true
	}
	return false
}

// DefaultEpsilon is the flat buffer added to the baseline in epsilon mode.
const DefaultEpsilon = 0.01

// AlertPolicy configures how a group's analysis-date cost is judged against
// its baseline. One policy drives every analysis in a run.
type AlertPolicy struct {
	Threshold         ThresholdMode
	Epsilon           float64
	WeekdayRestricted bool
}

// DefaultPolicy is flat-epsilon alerting over the full-window mean.
func DefaultPolicy() AlertPolicy {
	return AlertPolicy{Threshold: ThresholdEpsilon, Epsilon: DefaultEpsilon}
}

// Evaluation is the alert decision for one group.
type Evaluation struct {
	Alert            bool
	PercentVariation float64
	CostDifference   float64
}

// Evaluate compares the analysis-date cost against the baseline average.
// The comparison is strictly one-directional: only increases beyond the
// threshold alert, never decreases. A zero average reports 0% variation
// rather than a division error; the absolute difference still carries the
// magnitude.
func Evaluate(dayCost, average, stddev float64, p AlertPolicy) Evaluation {
	threshold := average
	switch p.Threshold {
	case ThresholdMeanStdDev:
		threshold += stddev
	case ThresholdMean:
	default:
		threshold += p.Epsilon
	}

	ev := Evaluation{
		Alert:          dayCost > threshold,
		CostDifference: dayCost - average,
	}
	if average != 0 {
		ev.PercentVariation = (dayCost - average) / average * 100
	}
	return ev
}
