// Package analyze implements the main cost-analysis command: fetch daily
// costs per subscription, compare the analysis date against the baseline,
// print the report and optionally persist it.
package analyze

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"time"

	lo "github.com/samber/lo"

	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/azurecli"
	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/config"
	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/costmanagement"
	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/csvreport"
	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/render"
	"github.com/alexandrelobiancosantos/Azure-FinOps/connectors/xlsx"
	"github.com/alexandrelobiancosantos/Azure-FinOps/domain/costreport"
)

// Options is one fully validated analysis invocation.
type Options struct {
	SubscriptionPrefix string
	Mode               costreport.GroupingMode
	GroupingKey        string
	AlertOnly          bool
	Save               bool
	Date               string // empty means yesterday
	PeriodDays         int
	Weekday            bool
	Threshold          costreport.ThresholdMode
}

// Run parses CLI arguments and executes the analysis.
//
// Usage: analyze [flags] <subscription-prefix> <group|tag|subscription> [grouping-key]
func Run(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	alertOnly := fs.Bool("alert", false, "print only alerting groups")
	save := fs.Bool("save", false, "save results to CSV and spreadsheet under the data directory")
	date := fs.String("date", "", "analysis date in YYYY-MM-DD format (default: yesterday)")
	period := fs.Int("period", 0, "number of days for the baseline period (default from config, 31)")
	weekday := fs.Bool("weekday", false, "restrict the baseline to days matching the analysis date's weekday class")
	threshold := fs.String("threshold", string(costreport.ThresholdEpsilon), "alert threshold mode: epsilon, stddev or mean")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := Options{
		AlertOnly: *alertOnly,
		Save:      *save,
		Date:      *date,
		Weekday:   *weekday,
		Threshold: costreport.ThresholdMode(*threshold),
	}
	rest := fs.Args()
	if len(rest) > 0 {
		opts.SubscriptionPrefix = rest[0]
	}
	if len(rest) > 1 {
		opts.Mode = costreport.GroupingMode(rest[1])
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

	if errs := Validate(opts); len(errs) > 0 {
		// Report every invalid argument in one pass, not just the first.
		for _, e := range errs {
			slog.Error(e.Error())
		}
		return fmt.Errorf("%d invalid argument(s)", len(errs))
	}
	return Execute(context.Background(), cfg, opts)
}

// Validate collects every parameter problem instead of stopping at the
// first one.
func Validate(opts Options) []error {
	var errs []error
	if opts.SubscriptionPrefix == "" {
		errs = append(errs, errors.New("subscription prefix cannot be empty"))
	}
	if !opts.Mode.Valid() {
		errs = append(errs, fmt.Errorf("analysis mode must be group, tag or subscription, got %q", string(opts.Mode)))
	}
	if (opts.Mode == costreport.GroupByDimension || opts.Mode == costreport.GroupByTag) && opts.GroupingKey == "" {
		errs = append(errs, errors.New("grouping key is required for group and tag analysis"))
	}
	if !opts.Threshold.Valid() {
		errs = append(errs, fmt.Errorf("threshold mode must be epsilon, stddev or mean, got %q", string(opts.Threshold)))
	}
	if _, err := costreport.ResolveWindow(opts.Date, max(opts.PeriodDays, 1), time.Now()); err != nil {
		errs = append(errs, err)
	}
	if opts.PeriodDays <= 0 {
		errs = append(errs, costreport.ErrInvalidPeriod)
	}
	return errs
}

// Execute runs the analysis over every matching subscription. Failures are
// isolated per subscription: one bad response is logged and the remaining
// subscriptions still run, but the command reports failure at the end.
func Execute(ctx context.Context, cfg *config.Config, opts Options) error {
	window, err := costreport.ResolveWindow(opts.Date, opts.PeriodDays, time.Now())
	if err != nil {
		return err
	}

	tokens, err := TokenProvider(cfg)
	if err != nil {
		return err
	}
	client := costmanagement.NewClient(tokens, time.Duration(cfg.CourtesyDelaySeconds)*time.Second)

	subs, err := azurecli.Subscriptions(ctx, opts.SubscriptionPrefix)
	if err != nil {
		return err
	}
	names := lo.Map(subs, func(s azurecli.Subscription, _ int) string { return s.Name })
	commonPrefix := azurecli.CommonPrefix(names)

	policy := costreport.AlertPolicy{
		Threshold:         opts.Threshold,
		Epsilon:           costreport.DefaultEpsilon,
		WeekdayRestricted: opts.Weekday,
	}
	groupingKey := opts.GroupingKey
	if opts.Mode == costreport.GroupBySubscription {
		groupingKey = "Subscription"
	}

	var saved []xlsx.SubscriptionReport
	failed := 0
	for _, sub := range subs {
		slog.Info("analyzing subscription", "name", sub.Name, "id", sub.ID)

		report, series, err := analyzeOne(ctx, client, sub, window, opts.Mode, opts.GroupingKey, groupingKey, policy)
		if err != nil {
			slog.Error("analysis failed", "subscription", sub.Name, "error", err)
			failed++
			continue
		}

		short := azurecli.ShortName(sub.Name, commonPrefix)
		printReport(sub.Name, report, series, window, groupingKey, opts.AlertOnly)
		if opts.Save && !report.Empty() {
			saved = append(saved, xlsx.SubscriptionReport{Name: short, Report: report})
			path, err := csvreport.WriteReport(cfg.DataDir, short, groupingKey, report, time.Now())
			if err != nil {
				return err
			}
			slog.Info("report saved", "path", path)
		}
	}

	if opts.Save && len(saved) > 0 {
		path, err := xlsx.WriteWorkbook(cfg.DataDir, commonPrefix, groupingKey, saved, time.Now())
		if err != nil {
			return err
		}
		slog.Info("workbook saved", "path", path)
	}

	slog.Info("run finished", "requests", client.Stats.Count)
	if failed > 0 {
		return fmt.Errorf("analysis failed for %d of %d subscriptions", failed, len(subs))
	}
	return nil
}

func analyzeOne(ctx context.Context, client *costmanagement.Client, sub azurecli.Subscription,
	window costreport.Window, mode costreport.GroupingMode, queryKey, groupingKey string,
	policy costreport.AlertPolicy) (costreport.Report, costreport.GroupSeries, error) {

	rows, err := client.QueryCosts(ctx, sub.ID, window, mode, queryKey)
	if err != nil {
		return costreport.Report{}, costreport.GroupSeries{}, err
	}
	series, err := costreport.BuildSeries(rows, mode, sub.Name)
	if err != nil {
		return costreport.Report{}, costreport.GroupSeries{}, err
	}
	return costreport.Assemble(series, window, groupingKey, policy), series, nil
}

func printReport(subscription string, report costreport.Report, series costreport.GroupSeries,
	window costreport.Window, groupingKey string, alertOnly bool) {

	if report.Empty() {
		fmt.Println(render.NoCost(subscription))
		return
	}
	records := report.Records
	if alertOnly {
		records = report.Alerts()
		if len(records) == 0 {
			slog.Info("no alerts found", "subscription", subscription)
			return
		}
	}
	fmt.Println(render.Table(records, groupingKey))
	fmt.Print(render.Trend(costreport.DailyTotals(series, window), "daily total, "+window.Label()))
	fmt.Printf("Total cost on %s: %.3f\n", report.Window.To(), report.TotalAnalysisDateCost)
}

// TokenProvider picks the credential source configured for the run.
func TokenProvider(cfg *config.Config) (azurecli.TokenProvider, error) {
	switch cfg.Auth.Mode {
	case "", "cli":
		return azurecli.CLITokenProvider{}, nil
	case "service_principal":
		return costmanagement.NewServicePrincipal(cfg.Auth.TenantID, cfg.Auth.ClientID, cfg.Auth.ClientSecret), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}
