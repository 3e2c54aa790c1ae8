// Package xlsx saves a run's reports to a spreadsheet: one sheet per
// subscription, with pie charts over the baseline and analysis-date cost
// columns.
package xlsx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alexandrelobiancosantos/Azure-FinOps/domain/costreport"
)

// SubscriptionReport pairs a subscription's short name with its report.
// Order is preserved into sheet order.
type SubscriptionReport struct {
	Name   string
	Report costreport.Report
}

// WriteWorkbook creates `<prefix>_<groupingKey>_<timestamp>.xlsx` under dir
// and returns its path.
func WriteWorkbook(dir, prefix, groupingKey string, reports []SubscriptionReport, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.xlsx", sheetSafe(prefix), sheetSafe(groupingKey), now.Format("20060102150405")))

	f := excelize.NewFile()
	defer f.Close()

	for _, sr := range reports {
		sheet := sheetName(sr.Name)
		if _, err := f.NewSheet(sheet); err != nil {
			return "", err
		}
		if err := writeSheet(f, sheet, sr.Report); err != nil {
			return "", err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", err
	}
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, report costreport.Report) error {
	header := []any{report.GroupingKey, "Average Cost", "Analysis Date Cost", "Alert",
		"Percent Variation", "Cost Difference", "Period of Average Calculation", "Number of Days", "Analysis Date"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, rec := range report.Records {
		alert := "No"
		if rec.Alert {
			alert = "Yes"
		}
		row := []any{rec.Group, rec.AverageCost, rec.AnalysisDateCost, alert,
			rec.PercentVariation, rec.CostDifference, rec.Window, rec.DaysCounted, rec.AnalysisDate}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	if report.Empty() {
		return nil
	}

	lastRow := len(report.Records) + 1
	categories := fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, lastRow)

	if err := addPie(f, sheet, "A10", "Average Cost Distribution", categories,
		fmt.Sprintf("'%s'!$B$2:$B$%d", sheet, lastRow)); err != nil {
		return err
	}
	title := fmt.Sprintf("Cost Distribution on %s", report.Window.To())
	return addPie(f, sheet, "J10", title, categories,
		fmt.Sprintf("'%s'!$C$2:$C$%d", sheet, lastRow))
}

func addPie(f *excelize.File, sheet, cell, title, categories, values string) error {
	return f.AddChart(sheet, cell, &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       title,
			Categories: categories,
			Values:     values,
		}},
		Title: []excelize.RichTextRun{{Text: title}},
		PlotArea: excelize.ChartPlotArea{
			ShowVal: true,
		},
	})
}

// sheetName fits a subscription name into Excel's 31-character sheet limit.
func sheetName(name string) string {
	s := sheetSafe(name)
	if len(s) > 31 {
		s = s[:31]
	}
	return s
}

func sheetSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, s)
}
