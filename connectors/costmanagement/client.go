// Package costmanagement talks to the Azure Cost Management REST API.
package costmanagement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/azurecli"
	"github.com/alexandrelobiancosantos/Azure-FinOps/domain/costreport"
)

const (
	queryAPIVersion     = "2021-10-01"
	resourcesAPIVersion = "2021-04-01"
	managementBase      = "https://management.azure.com"
	maxRetries          = 5
)

// RequestStats counts outgoing API calls and the spacing between them. It is
// owned by one Client and scoped to one run; nothing is process-global.
type RequestStats struct {
	Count    int
	lastCall time.Time
}

func (s *RequestStats) observe() {
	s.Count++
	now := time.Now()
	if s.lastCall.IsZero() {
		slog.Info("request sent", "count", s.Count)
	} else {
		slog.Info("request sent", "count", s.Count, "interval", now.Sub(s.lastCall).Round(10*time.Millisecond))
	}
	s.lastCall = now
}

// Client issues Cost Management queries for one run. Consecutive calls are
// separated by a courtesy delay to stay clear of provider throttling; an
// HTTP 429 on top of that backs off exponentially.
type Client struct {
	httpClient    *http.Client
	tokens        azurecli.TokenProvider
	courtesyDelay time.Duration
	baseURL       string
	Stats         RequestStats
}

// NewClient builds a client around the given token provider.
func NewClient(tokens azurecli.TokenProvider, courtesyDelay time.Duration) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		tokens:        tokens,
		courtesyDelay: courtesyDelay,
		baseURL:       managementBase,
	}
}

// ServicePrincipal provides tokens through the OAuth2 client-credentials
// grant, for unattended runs where the Azure CLI is not logged in.
type ServicePrincipal struct {
	cfg *clientcredentials.Config
}

// NewServicePrincipal configures client-credentials auth against the given
// tenant.
func NewServicePrincipal(tenantID, clientID, clientSecret string) *ServicePrincipal {
	return &ServicePrincipal{cfg: &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
		Scopes:       []string{"https://management.azure.com/.default"},
	}}
}

func (s *ServicePrincipal) AccessToken(ctx context.Context) (string, error) {
	token, err := s.cfg.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("service principal token: %w", err)
	}
	return token.AccessToken, nil
}

// Query request/response shapes, per the Cost Management query contract.

type queryRequest struct {
	Type       string       `json:"type"`
	Timeframe  string       `json:"timeframe"`
	TimePeriod *timePeriod  `json:"timePeriod,omitempty"`
	Dataset    queryDataset `json:"dataset"`
}

type timePeriod struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type queryDataset struct {
	Granularity string              `json:"granularity"`
	Filter      *dimensionFilter    `json:"filter,omitempty"`
	Aggregation map[string]aggDef   `json:"aggregation"`
	Grouping    []groupingClause    `json:"grouping,omitempty"`
}

type dimensionFilter struct {
	Dimensions dimensionClause `json:"dimensions"`
}

type dimensionClause struct {
	Name     string   `json:"name"`
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
}

type aggDef struct {
	Name     string `json:"name"`
	Function string `json:"function"`
}

type groupingClause struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type queryResponse struct {
	Properties *struct {
		Rows [][]any `json:"rows"`
	} `json:"properties"`
}

// QueryCosts fetches the daily cost rows for one subscription over the
// window, grouped per mode. A response without properties.rows means the
// subscription simply has no cost data; that surfaces as nil rows, not an
// error.
func (c *Client) QueryCosts(ctx context.Context, subscriptionID string, w costreport.Window, mode costreport.GroupingMode, groupingKey string) ([]costreport.Row, error) {
	payload := queryRequest{
		Type:       "ActualCost",
		Timeframe:  "Custom",
		TimePeriod: &timePeriod{From: w.From(), To: w.To()},
		Dataset: queryDataset{
			Granularity: "Daily",
			Aggregation: map[string]aggDef{
				"totalCost": {Name: "Cost", Function: "Sum"},
			},
		},
	}
	switch mode {
	case costreport.GroupByDimension:
		payload.Dataset.Grouping = []groupingClause{{Type: "Dimension", Name: groupingKey}}
	case costreport.GroupByTag:
		payload.Dataset.Grouping = []groupingClause{{Type: "TagKey", Name: groupingKey}}
	}

	url := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.CostManagement/query?api-version=%s",
		c.baseURL, subscriptionID, queryAPIVersion)

	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return nil, err
	}
	if resp.Properties == nil || resp.Properties.Rows == nil {
		slog.Info("no cost found in response")
		return nil, nil
	}

	rows := make([]costreport.Row, 0, len(resp.Properties.Rows))
	for _, raw := range resp.Properties.Rows {
		if len(raw) < 2 {
			continue
		}
		row := costreport.Row{Cost: raw[0], Date: asDateInt(raw[1])}
		if len(raw) > 2 {
			row.Group, _ = raw[2].(string)
		}
		if len(raw) > 3 {
			row.Tag, _ = raw[3].(string)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// do sends one authenticated request, enforcing the courtesy delay and
// retrying on 429 with exponential backoff.
func (c *Client) do(ctx context.Context, method, url string, payload any, out any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	var body []byte
	if payload != nil {
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	if err := c.pause(ctx, c.sinceLastCall()); err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("cost management request: %w", err)
		}
		c.Stats.observe()

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries-1 {
			wait := time.Duration(1<<attempt) * time.Second
			slog.Warn("rate limit exceeded, retrying", "wait", wait, "attempt", attempt+1)
			if err := c.pause(ctx, wait); err != nil {
				return err
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("cost management request failed: %d %s", resp.StatusCode, string(respBody))
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}

func (c *Client) sinceLastCall() time.Duration {
	if c.Stats.lastCall.IsZero() || c.courtesyDelay == 0 {
		return 0
	}
	if elapsed := time.Since(c.Stats.lastCall); elapsed < c.courtesyDelay {
		return c.courtesyDelay - elapsed
	}
	return 0
}

func (c *Client) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// asDateInt normalizes the usage-date column, which arrives as a JSON number
// (20240131) or occasionally a string.
func asDateInt(v any) int {
	switch d := v.(type) {
	case float64:
		return int(d)
	case string:
		if t, err := time.Parse("20060102", d); err == nil {
			return costreport.DateInt(t)
		}
		if t, err := time.Parse("2006-01-02", d); err == nil {
			return costreport.DateInt(t)
		}
	}
	return 0
}
