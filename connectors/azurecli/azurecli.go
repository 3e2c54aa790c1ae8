// Package azurecli shells out to the Azure CLI for the two things it is the
// source of truth for on an operator workstation: the subscription list and a
// management-plane access token.
package azurecli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	lo "github.com/samber/lo"
)

const managementResource = "https://management.azure.com/"

// Subscription is one entry of `az account list`.
type Subscription struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Subscriptions lists the accounts visible to the CLI whose name starts with
// prefix. An empty result is an error: the caller asked for something that
// does not exist.
func Subscriptions(ctx context.Context, prefix string) ([]Subscription, error) {
	out, err := exec.CommandContext(ctx, "az", "account", "list", "--output", "json").Output()
	if err != nil {
		return nil, fmt.Errorf("az account list: %w", err)
	}
	var all []Subscription
	if err := json.Unmarshal(out, &all); err != nil {
		return nil, fmt.Errorf("az account list: decode: %w", err)
	}
	subs := lo.Filter(all, func(s Subscription, _ int) bool {
		return strings.HasPrefix(s.Name, prefix)
	})
	if len(subs) == 0 {
		return nil, fmt.Errorf("no subscriptions found with prefix %q", prefix)
	}
	return subs, nil
}

// TokenProvider yields bearer tokens for the management API.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// CLITokenProvider obtains tokens through `az account get-access-token`.
// The CLI caches and refreshes tokens itself, so every call just asks again.
type CLITokenProvider struct{}

func (CLITokenProvider) AccessToken(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "az", "account", "get-access-token",
		"--resource="+managementResource, "--output", "json").Output()
	if err != nil {
		return "", fmt.Errorf("az account get-access-token: %w", err)
	}
	var token struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(out, &token); err != nil {
		return "", fmt.Errorf("az account get-access-token: decode: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("az account get-access-token: empty token")
	}
	return token.AccessToken, nil
}

// CommonPrefix returns the longest prefix shared by every name. Used to
// shorten subscription names into sheet and file names.
func CommonPrefix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	shortest := lo.MinBy(names, func(a, b string) bool { return len(a) < len(b) })
	for i := 0; i < len(shortest); i++ {
		for _, other := range names {
			if other[i] != shortest[i] {
				return shortest[:i]
			}
		}
	}
	return shortest
}

// ShortName strips the common prefix from a subscription name, falling back
// to the full name when nothing remains.
func ShortName(name, commonPrefix string) string {
	short := strings.TrimSpace(strings.TrimPrefix(name, commonPrefix))
	if short == "" {
		return name
	}
	return short
}
