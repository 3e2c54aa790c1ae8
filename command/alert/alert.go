// Package alert is the cron-friendly shortcut around the analyze pipeline:
// same computation, but only alerting groups are printed and the default
// output is silent when everything is within baseline.
package alert

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/alexandrelobiancosantos/Azure-FinOps/command/analyze"
	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/config"
	"github.com/alexandrelobiancosantos/Azure-FinOps/domain/costreport"
)

// Run parses CLI arguments and executes the alert analysis.
//
// Usage: alert [flags] <group|tag> <subscription-prefix> <grouping-key>
func Run(args []string) error {
	fs := flag.NewFlagSet("alert", flag.ContinueOnError)
	save := fs.Bool("save", false, "save alerting results to CSV and spreadsheet")
	date := fs.String("date", "", "analysis date in YYYY-MM-DD format (default: yesterday)")
	period := fs.Int("period", 0, "number of days for the baseline period (default from config, 31)")
	weekday := fs.Bool("weekday", true, "restrict the baseline to days matching the analysis date's weekday class")
	threshold := fs.String("threshold", string(costreport.ThresholdEpsilon), "alert threshold mode: epsilon, stddev or mean")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()

	opts := analyze.Options{
		AlertOnly: true,
		Save:      *save,
		Date:      *date,
		Weekday:   *weekday,
		Threshold: costreport.ThresholdMode(*threshold),
	}
	if len(rest) > 0 {
		opts.Mode = costreport.GroupingMode(rest[0])
	}
	if len(rest) > 1 {
		opts.SubscriptionPrefix = rest[1]
	}
	if len(rest) > 2 {
		opts.GroupingKey = rest[2]
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	opts.PeriodDays = *period
	if opts.PeriodDays == 0 {
		opts.PeriodDays = cfg.DefaultPeriodDays
	}

	if opts.Mode == costreport.GroupBySubscription {
		return fmt.Errorf("alert supports group or tag analysis, use analyze for subscription totals")
	}
	if errs := analyze.Validate(opts); len(errs) > 0 {
		for _, e := range errs {
			slog.Error(e.Error())
		}
		return fmt.Errorf("%d invalid argument(s)", len(errs))
	}

	slog.Info("starting alert analysis", "mode", string(opts.Mode),
		"grouping_key", opts.GroupingKey, "subscription_prefix", opts.SubscriptionPrefix)
	return analyze.Execute(context.Background(), cfg, opts)
}
