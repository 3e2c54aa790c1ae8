// Package csvreport serializes result records to CSV files under the data
// directory, one file per subscription and grouping. The dialect matches the
// downstream spreadsheet tooling: `*` as field delimiter and decimal comma.
package csvreport

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexandrelobiancosantos/Azure-FinOps/domain/costreport"
)

// WriteReport writes one report and returns the created file path.
func WriteReport(dir, subscription, groupingKey string, report costreport.Report, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s_%s.csv", sanitize(subscription), sanitize(groupingKey), now.Format("20060102150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '*'
	defer w.Flush()

	header := []string{report.GroupingKey, "Average Cost", "Analysis Date Cost", "Alert",
		"Percent Variation", "Cost Difference", "Period of Average Calculation", "Number of Days", "Analysis Date"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, rec := range report.Records {
		row := []string{
			rec.Group,
			decimal(rec.AverageCost),
			decimal(rec.AnalysisDateCost),
			yesNo(rec.Alert),
			decimal(rec.PercentVariation),
			decimal(rec.CostDifference),
			rec.Window,
			fmt.Sprintf("%d", rec.DaysCounted),
			rec.AnalysisDate,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}

// decimal renders a float with three decimals and a decimal comma.
func decimal(v float64) string {
	return strings.ReplaceAll(fmt.Sprintf("%.3f", v), ".", ",")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, s)
}
