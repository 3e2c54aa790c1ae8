package costmanagement

import (
	"context"
	"fmt"
	"net/http"
)

// Resource is one ARM resource of a subscription.
type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Tag is a single key/value label on a resource.
type Tag struct {
	Key   string
	Value string
}

// ListResources enumerates the resources of a subscription.
func (c *Client) ListResources(ctx context.Context, subscriptionID string) ([]Resource, error) {
	url := fmt.Sprintf("%s/subscriptions/%s/resources?api-version=%s",
		c.baseURL, subscriptionID, resourcesAPIVersion)
	var resp struct {
		Value []Resource `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("list resources for subscription %s: %w", subscriptionID, err)
	}
	return resp.Value, nil
}

// ResourceTags fetches the tags attached to one resource.
func (c *Client) ResourceTags(ctx context.Context, resourceID string) ([]Tag, error) {
	url := fmt.Sprintf("%s%s/providers/Microsoft.Resources/tags/default?api-version=%s",
		c.baseURL, resourceID, resourcesAPIVersion)
	var resp struct {
		Properties struct {
			Tags map[string]string `json:"tags"`
		} `json:"properties"`
	}
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("tags for resource %s: %w", resourceID, err)
	}
	tags := make([]Tag, 0, len(resp.Properties.Tags))
	for k, v := range resp.Properties.Tags {
		tags = append(tags, Tag{Key: k, Value: v})
	}
	return tags, nil
}

// ResourceCost sums the cost of a single resource on one day
// (date in YYYY-MM-DD form).
func (c *Client) ResourceCost(ctx context.Context, subscriptionID, resourceID, date string) (float64, error) {
	payload := queryRequest{
		Type:       "ActualCost",
		Timeframe:  "Custom",
		TimePeriod: &timePeriod{From: date, To: date},
		Dataset: queryDataset{
			Granularity: "Daily",
			Filter: &dimensionFilter{Dimensions: dimensionClause{
				Name:     "ResourceId",
				Operator: "In",
				Values:   []string{resourceID},
			}},
			Aggregation: map[string]aggDef{
				"totalCost": {Name: "Cost", Function: "Sum"},
			},
		},
	}
	url := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.CostManagement/query?api-version=%s",
		c.baseURL, subscriptionID, queryAPIVersion)

	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return 0, fmt.Errorf("cost for resource %s: %w", resourceID, err)
	}
	if resp.Properties == nil {
		return 0, nil
	}
	var total float64
	for _, row := range resp.Properties.Rows {
		if len(row) > 0 {
			if cost, ok := row[0].(float64); ok {
				total += cost
			}
		}
	}
	return total, nil
}
