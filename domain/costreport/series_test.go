package costreport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSeriesByDimension(t *testing.T) {
	rows := []Row{
		{Cost: 10.0, Date: 20240101, Group: "Virtual Machines"},
		{Cost: 5.0, Date: 20240101, Group: "Storage"},
		{Cost: 12.0, Date: 20240102, Group: "Virtual Machines"},
	}
	series, err := BuildSeries(rows, GroupByDimension, "sub")
	require.NoError(t, err)

	assert.Equal(t, []string{"Virtual Machines", "Storage"}, series.Keys)
	assert.Equal(t, []Observation{{20240101, 10}, {20240102, 12}}, series.Obs["Virtual Machines"])
	assert.Equal(t, []Observation{{20240101, 5}}, series.Obs["Storage"])
}

func TestBuildSeriesKeepsDuplicateDates(t *testing.T) {
	rows := []Row{
		{Cost: 10.0, Date: 20240101, Group: "Compute"},
		{Cost: 3.0, Date: 20240101, Group: "Compute"},
	}
	series, err := BuildSeries(rows, GroupByDimension, "sub")
	require.NoError(t, err)

	// Duplicates are distinct data points, never merged.
	assert.Len(t, series.Obs["Compute"], 2)
}

func TestBuildSeriesTagModeDropsEmptyTagValues(t *testing.T) {
	rows := []Row{
		{Cost: 10.0, Date: 20240101, Group: "Projeto", Tag: "billing"},
		{Cost: 99.0, Date: 20240101, Group: "Projeto", Tag: ""},
		{Cost: 2.0, Date: 20240102, Group: "Projeto", Tag: "billing"},
	}
	series, err := BuildSeries(rows, GroupByTag, "sub")
	require.NoError(t, err)

	// The untagged row forms no group and contributes nowhere.
	assert.Equal(t, []string{"billing"}, series.Keys)
	assert.Equal(t, []Observation{{20240101, 10}, {20240102, 2}}, series.Obs["billing"])
}

func TestBuildSeriesSubscriptionModeCollapsesGroups(t *testing.T) {
	rows := []Row{
		{Cost: 10.0, Date: 20240101},
		{Cost: 20.0, Date: 20240102},
	}
	series, err := BuildSeries(rows, GroupBySubscription, "Prod-01")
	require.NoError(t, err)

	assert.Equal(t, []string{"Prod-01"}, series.Keys)
	assert.Len(t, series.Obs["Prod-01"], 2)
}

func TestBuildSeriesParsesStringCosts(t *testing.T) {
	series, err := BuildSeries([]Row{{Cost: "12.5", Date: 20240101, Group: "Compute"}}, GroupByDimension, "sub")
	require.NoError(t, err)
	assert.Equal(t, 12.5, series.Obs["Compute"][0].Cost)
}

func TestBuildSeriesMalformedCost(t *testing.T) {
	rows := []Row{
		{Cost: 10.0, Date: 20240101, Group: "Compute"},
		{Cost: "not-a-number", Date: 20240102, Group: "Compute"},
	}
	_, err := BuildSeries(rows, GroupByDimension, "sub")

	var malformed *MalformedRowError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 1, malformed.Index)
}

func TestBuildSeriesEmptyInput(t *testing.T) {
	series, err := BuildSeries(nil, GroupByDimension, "sub")
	require.NoError(t, err)
	assert.Empty(t, series.Keys)
}

func TestGroupingModeValid(t *testing.T) {
	assert.True(t, GroupByDimension.Valid())
	assert.True(t, GroupByTag.Valid())
	assert.True(t, GroupBySubscription.Valid())
	assert.False(t, GroupingMode("grupo").Valid())
}
