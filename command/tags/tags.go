// Package tags inventories resource tags across subscriptions, optionally
// with each resource's cost on a given day.
package tags

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexandrelobiancosantos/Azure-FinOps/command/analyze"
	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/azurecli"
	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/config"
	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/costmanagement"
	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/render"
)

// Run parses CLI arguments and prints the tag inventory.
//
// Usage: tags [flags] <subscription-prefix>
func Run(args []string) error {
	fs := flag.NewFlagSet("tags", flag.ContinueOnError)
	date := fs.String("date", "", "date for the cost lookup in YYYY-MM-DD format (default: yesterday)")
	withCost := fs.Bool("cost", false, "include each resource's cost on the date")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || fs.Arg(0) == "" {
		return fmt.Errorf("usage: tags [-date YYYY-MM-DD] [-cost] <subscription-prefix>")
	}
	prefix := fs.Arg(0)

	analysisDate := *date
	if analysisDate == "" {
		analysisDate = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", analysisDate); err != nil {
		return fmt.Errorf("invalid date, expected YYYY-MM-DD, got %q", analysisDate)
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}

	tokens, err := analyze.TokenProvider(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	client := costmanagement.NewClient(tokens, time.Duration(cfg.CourtesyDelaySeconds)*time.Second)

	subs, err := azurecli.Subscriptions(ctx, prefix)
	if err != nil {
		return err
	}

	slog.Info("starting tag analysis", "subscription_prefix", prefix, "date", analysisDate)

	var rows [][]string
	for _, sub := range subs {
		slog.Info("analyzing subscription", "name", sub.Name, "id", sub.ID)
		resources, err := client.ListResources(ctx, sub.ID)
		if err != nil {
			return err
		}
		for _, res := range resources {
			tags, err := client.ResourceTags(ctx, res.ID)
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				continue
			}
			cost := ""
			if *withCost {
				c, err := client.ResourceCost(ctx, sub.ID, res.ID, analysisDate)
				if err != nil {
					return err
				}
				cost = fmt.Sprintf("%.3f", c)
			}
			for _, tag := range tags {
				row := []string{sub.Name, res.Name, tag.Key, tag.Value}
				if *withCost {
					row = append(row, cost)
				}
				rows = append(rows, row)
			}
		}
	}

	if len(rows) == 0 {
		slog.Info("no tags found for the specified subscriptions")
		return nil
	}
	fmt.Println(render.TagsTable(rows, *withCost))
	slog.Info("run finished", "requests", client.Stats.Count)
	return nil
}
