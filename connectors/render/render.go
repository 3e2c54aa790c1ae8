// Package render draws reports for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"

	"github.com/alexandrelobiancosantos/Azure-FinOps/domain/costreport"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cellStyle   = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
)

// Table renders result records as a bordered table, three decimals on every
// numeric column, alerting rows highlighted.
func Table(records []costreport.ResultRecord, groupingKey string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(groupingKey, "Average Cost", "Analysis Date Cost", "Alert",
			"Percent Variation", "Cost Difference", "Period of Average Calculation", "Number of Days", "Analysis Date").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.PaddingLeft(1).PaddingRight(1)
			}
			if records[row].Alert {
				return alertStyle.PaddingLeft(1).PaddingRight(1)
			}
			return cellStyle
		})
	for _, rec := range records {
		alert := "No"
		if rec.Alert {
			alert = "Yes"
		}
		t.Row(rec.Group,
			fmt.Sprintf("%.3f", rec.AverageCost),
			fmt.Sprintf("%.3f", rec.AnalysisDateCost),
			alert,
			fmt.Sprintf("%.3f", rec.PercentVariation),
			fmt.Sprintf("%.3f", rec.CostDifference),
			rec.Window,
			fmt.Sprintf("%d", rec.DaysCounted),
			rec.AnalysisDate)
	}
	return t.Render()
}

// Trend plots the window's daily cost totals as a sparkline. Empty or flat
// zero series render nothing.
func Trend(totals []float64, label string) string {
	if len(totals) == 0 {
		return ""
	}
	flat := true
	for _, v := range totals {
		if v != 0 {
			flat = false
			break
		}
	}
	if flat {
		return ""
	}
	return asciigraph.Plot(totals,
		asciigraph.Height(8),
		asciigraph.Precision(2),
		asciigraph.Caption(label),
	) + "\n"
}

// TagsTable renders the tag inventory produced by the tags command.
func TagsTable(rows [][]string, withCost bool) string {
	headers := []string{"Subscription", "ResourceName", "TagKey", "TagValue"}
	if withCost {
		headers = append(headers, "Cost")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.PaddingLeft(1).PaddingRight(1)
			}
			return cellStyle
		})
	for _, r := range rows {
		t.Row(r...)
	}
	return t.Render()
}

// NoCost is the message printed when a subscription has no cost data.
func NoCost(subscription string) string {
	return strings.TrimSpace(fmt.Sprintf("No Cost Found for %s", subscription))
}
