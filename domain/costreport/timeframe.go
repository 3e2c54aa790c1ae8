package costreport

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for parameter validation. Callers decide whether to exit;
// nothing in this package terminates the process.
var (
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidPeriod = errors.New("period must be a positive number of days")
)

const dateLayout = "2006-01-02"

// Window is the analysis timeframe: End is the analysis date, Start is
// End minus PeriodDays. Both bounds are inclusive when iterating days.
type Window struct {
	Start      time.Time
	End        time.Time
	PeriodDays int
}

// ResolveWindow computes the analysis window. When explicitEnd is empty the
// analysis date is UTC yesterday relative to now: the current day is never
// analyzed because its costs are still incomplete.
func ResolveWindow(explicitEnd string, periodDays int, now time.Time) (Window, error) {
	if periodDays <= 0 {
		return Window{}, fmt.Errorf("%w, got %d", ErrInvalidPeriod, periodDays)
	}
	var end time.Time
	if explicitEnd != "" {
		parsed, err := time.Parse(dateLayout, explicitEnd)
		if err != nil {
			return Window{}, fmt.Errorf("%w, got %q", ErrInvalidDate, explicitEnd)
		}
		end = parsed
	} else {
		end = now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	}
	return Window{
		Start:      end.AddDate(0, 0, -periodDays),
		End:        end,
		PeriodDays: periodDays,
	}, nil
}

// AnalysisDate returns the analysis date as an integer YYYYMMDD, the format
// the Cost Management API uses for daily rows.
func (w Window) AnalysisDate() int {
	return DateInt(w.End)
}

// Label renders the window as "YYYY-MM-DD to YYYY-MM-DD" for report rows.
func (w Window) Label() string {
	return w.Start.Format(dateLayout) + " to " + w.End.Format(dateLayout)
}

// From and To are the custom-timeframe bounds in API date format.
func (w Window) From() string { return w.Start.Format(dateLayout) }
func (w Window) To() string   { return w.End.Format(dateLayout) }

// DateInt converts a calendar date to the integer YYYYMMDD form.
func DateInt(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
