package costreport

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// GroupingMode selects how query rows are keyed into series.
type GroupingMode string

const (
	// GroupByDimension keys rows on a built-in cost dimension value
	// (ServiceName, ResourceGroupName, MeterCategory, ...).
	GroupByDimension GroupingMode = "group"
	// GroupByTag keys rows on the tag value of a tag-key grouped query.
	// Rows without a tag value are dropped entirely.
	GroupByTag GroupingMode = "tag"
	// GroupBySubscription treats the whole subscription as a single group.
	GroupBySubscription GroupingMode = "subscription"
)

// Valid reports whether m is one of the supported grouping modes.
func (m GroupingMode) Valid() bool {
	switch m {
	case GroupByDimension, GroupByTag, GroupBySubscription:
		return true
	}
	return false
}

// Row is one entry of the Cost Management query response, in the column
// order the API returns: cost, usage date, group value and, for tag-key
// grouped queries, the tag value. Cost is kept as decoded (float64 or
// string) so that malformed values surface here rather than in the
// transport layer.
type Row struct {
	Cost  any
	Date  int
	Group string
	Tag   string
}

// Observation is a single (date, cost) point of a group's series.
type Observation struct {
	Date int // YYYYMMDD
	Cost float64
}

// GroupSeries maps group keys to their observations. Keys preserves the
// order in which groups were first seen in the response.
type GroupSeries struct {
	Keys []string
	Obs  map[string][]Observation
}

// MalformedRowError reports a cost field that could not be parsed as a
// number. It aborts the current subscription's analysis; the caller decides
// whether the rest of the run continues.
type MalformedRowError struct {
	Index int
	Value any
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed cost value %v in row %d", e.Value, e.Index)
}

// BuildSeries buckets query rows into per-group observation lists. Encounter
// order is preserved and duplicate dates are kept as distinct data points.
// In tag mode, rows with an empty tag value never form a group. In
// subscription mode everything accumulates under subscriptionName.
func BuildSeries(rows []Row, mode GroupingMode, subscriptionName string) (GroupSeries, error) {
	series := GroupSeries{Obs: map[string][]Observation{}}
	for i, row := range rows {
		var key string
		switch mode {
		case GroupByTag:
			if row.Tag == "" {
				continue
			}
			key = row.Tag
		case GroupBySubscription:
			key = subscriptionName
		default:
			key = row.Group
		}
		cost, err := parseCost(row.Cost)
		if err != nil {
			return GroupSeries{}, &MalformedRowError{Index: i, Value: row.Cost}
		}
		if _, seen := series.Obs[key]; !seen {
			series.Keys = append(series.Keys, key)
		}
		series.Obs[key] = append(series.Obs[key], Observation{Date: row.Date, Cost: cost})
	}
	return series, nil
}

func parseCost(v any) (float64, error) {
	switch c := v.(type) {
	case float64:
		return c, nil
	case int:
		return float64(c), nil
	case json.Number:
		return c.Float64()
	case string:
		return strconv.ParseFloat(c, 64)
	default:
		return 0, fmt.Errorf("unsupported cost type %T", v)
	}
}
