package costmanagement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandrelobiancosantos/Azure-FinOps/domain/costreport"
)

type staticToken string

func (t staticToken) AccessToken(context.Context) (string, error) { return string(t), nil }

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(staticToken("token"), 0)
	c.baseURL = srv.URL
	return c
}

func testWindow(t *testing.T) costreport.Window {
	t.Helper()
	w, err := costreport.ResolveWindow("2024-01-08", 7, time.Now())
	require.NoError(t, err)
	return w
}

func TestQueryCostsMapsRows(t *testing.T) {
	var got queryRequest
	c := testClient(t, func(rw http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer token", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		rw.Write([]byte(`{"properties":{"rows":[
			[12.5, 20240101, "Virtual Machines", "BRL"],
			[3.25, 20240102, "Storage", "BRL"]
		]}}`))
	})

	rows, err := c.QueryCosts(context.Background(), "sub-id", testWindow(t), costreport.GroupByDimension, "ServiceName")
	require.NoError(t, err)

	assert.Equal(t, "ActualCost", got.Type)
	assert.Equal(t, "Custom", got.Timeframe)
	assert.Equal(t, "2024-01-01", got.TimePeriod.From)
	assert.Equal(t, "2024-01-08", got.TimePeriod.To)
	assert.Equal(t, "Daily", got.Dataset.Granularity)
	require.Len(t, got.Dataset.Grouping, 1)
	assert.Equal(t, groupingClause{Type: "Dimension", Name: "ServiceName"}, got.Dataset.Grouping[0])

	require.Len(t, rows, 2)
	assert.Equal(t, 20240101, rows[0].Date)
	assert.Equal(t, 12.5, rows[0].Cost)
	assert.Equal(t, "Virtual Machines", rows[0].Group)
}

func TestQueryCostsTagGrouping(t *testing.T) {
	var got queryRequest
	c := testClient(t, func(rw http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		rw.Write([]byte(`{"properties":{"rows":[[1.0, 20240101, "Projeto", "billing"]]}}`))
	})

	rows, err := c.QueryCosts(context.Background(), "sub-id", testWindow(t), costreport.GroupByTag, "Projeto")
	require.NoError(t, err)

	require.Len(t, got.Dataset.Grouping, 1)
	assert.Equal(t, groupingClause{Type: "TagKey", Name: "Projeto"}, got.Dataset.Grouping[0])
	require.Len(t, rows, 1)
	assert.Equal(t, "billing", rows[0].Tag)
}

func TestQueryCostsSubscriptionModeHasNoGrouping(t *testing.T) {
	var got queryRequest
	c := testClient(t, func(rw http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		rw.Write([]byte(`{"properties":{"rows":[]}}`))
	})

	_, err := c.QueryCosts(context.Background(), "sub-id", testWindow(t), costreport.GroupBySubscription, "")
	require.NoError(t, err)
	assert.Empty(t, got.Dataset.Grouping)
}

func TestQueryCostsMissingRowsMeansNoCostData(t *testing.T) {
	c := testClient(t, func(rw http.ResponseWriter, _ *http.Request) {
		rw.Write([]byte(`{"id":"x","name":"y"}`))
	})

	rows, err := c.QueryCosts(context.Background(), "sub-id", testWindow(t), costreport.GroupByDimension, "ServiceName")
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestQueryCostsRetriesOn429(t *testing.T) {
	calls := 0
	c := testClient(t, func(rw http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			rw.WriteHeader(http.StatusTooManyRequests)
			return
		}
		rw.Write([]byte(`{"properties":{"rows":[[1.0, 20240101, "Compute", "BRL"]]}}`))
	})

	rows, err := c.QueryCosts(context.Background(), "sub-id", testWindow(t), costreport.GroupByDimension, "ServiceName")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2, c.Stats.Count)
}

func TestQueryCostsNonSuccessStatus(t *testing.T) {
	c := testClient(t, func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusForbidden)
		rw.Write([]byte(`{"error":"denied"}`))
	})

	_, err := c.QueryCosts(context.Background(), "sub-id", testWindow(t), costreport.GroupByDimension, "ServiceName")
	assert.ErrorContains(t, err, "403")
}

func TestResourceCostSumsRows(t *testing.T) {
	c := testClient(t, func(rw http.ResponseWriter, req *http.Request) {
		var got queryRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		require.NotNil(t, got.Dataset.Filter)
		assert.Equal(t, "ResourceId", got.Dataset.Filter.Dimensions.Name)
		rw.Write([]byte(`{"properties":{"rows":[[1.5, 20240101],[2.5, 20240101]]}}`))
	})

	cost, err := c.ResourceCost(context.Background(), "sub-id", "/subscriptions/s/resourceGroups/rg/vm1", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 4.0, cost)
}

func TestAsDateInt(t *testing.T) {
	assert.Equal(t, 20240131, asDateInt(float64(20240131)))
	assert.Equal(t, 20240131, asDateInt("20240131"))
	assert.Equal(t, 20240131, asDateInt("2024-01-31"))
	assert.Zero(t, asDateInt("bogus"))
}
