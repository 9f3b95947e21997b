package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Filter describes a reporting window. At most one of Quarter and Month may be set.
// Year only qualifies a quarter and defaults to the current year.
type Filter struct {
	Year    string `json:"filter_by_year,omitempty"`
	Quarter string `json:"filter_by_quarter,omitempty"` // q1..q4, or "last"
	Month   string `json:"filter_by_month,omitempty"`   // YYYY-MM
}

// IsZero reports whether f carries no filter key at all.
func (f Filter) IsZero() bool {
	return f.Year == "" && f.Quarter == "" && f.Month == ""
}

// Interval is a half-open date range [Start, End).
type Interval struct {
	Start civil.Date
	End   civil.Date
}

// Contains reports whether d falls inside the interval.
func (i Interval) Contains(d civil.Date) bool {
	return !d.Before(i.Start) && d.Before(i.End)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start, i.End)
}

// firstOfMonth normalizes month overflow, so month 13 is January of the next year.
func firstOfMonth(year int, month time.Month) civil.Date {
	return civil.DateOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

// YearInterval returns [year-01-01, (year+1)-01-01).
func YearInterval(year int) Interval {
	return Interval{Start: firstOfMonth(year, time.January), End: firstOfMonth(year+1, time.January)}
}

// MonthInterval returns the calendar month of year.
func MonthInterval(year int, month time.Month) Interval {
	return Interval{Start: firstOfMonth(year, month), End: firstOfMonth(year, month+1)}
}

// QuarterInterval returns quarter q (1..4) of year.
func QuarterInterval(year, q int) Interval {
	start := time.Month(q*3 - 2)
	return Interval{Start: firstOfMonth(year, start), End: firstOfMonth(year, start+3)}
}

// PreviousQuarter returns the calendar quarter before the one containing ref.
// In Q1 that is October to December of the prior year.
func PreviousQuarter(ref civil.Date) Interval {
	if ref.Month < time.April {
		return QuarterInterval(ref.Year-1, 4)
	}
	current := (int(ref.Month)-1)/3 + 1
	return QuarterInterval(ref.Year, current-1)
}

// ResolveInterval maps f to a date window relative to today.
// It returns ok == false when f has neither a quarter nor a month key.
// A present but malformed key fails with ErrInvalidFilter, no default is guessed.
func ResolveInterval(f Filter, today civil.Date) (Interval, bool, error) {
	year := today.Year
	explicitYear := false
	if y := strings.TrimSpace(f.Year); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil || parsed < 1 || parsed > 9999 {
			return Interval{}, false, fmt.Errorf("ResolveInterval: year %q: %w", f.Year, ErrInvalidFilter)
		}
		year, explicitYear = parsed, true
	}

	quarter := strings.ToLower(strings.TrimSpace(f.Quarter))
	month := strings.TrimSpace(f.Month)
	if quarter != "" && month != "" {
		return Interval{}, false, fmt.Errorf("ResolveInterval: quarter and month are exclusive: %w", ErrInvalidFilter)
	}

	switch {
	case quarter != "":
		switch {
		case strings.HasPrefix(quarter, "q"):
			q, err := strconv.Atoi(quarter[1:])
			if err != nil || q < 1 || q > 4 {
				return Interval{}, false, fmt.Errorf("ResolveInterval: quarter %q: %w", f.Quarter, ErrInvalidFilter)
			}
			return QuarterInterval(year, q), true, nil
		case strings.HasPrefix(quarter, "l"):
			return PreviousQuarter(today), true, nil
		default:
			return Interval{}, false, fmt.Errorf("ResolveInterval: quarter %q: %w", f.Quarter, ErrInvalidFilter)
		}
	case month != "":
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return Interval{}, false, fmt.Errorf("ResolveInterval: month %q: %w", f.Month, ErrInvalidFilter)
		}
		if explicitYear && t.Year() != year {
			return Interval{}, false, fmt.Errorf("ResolveInterval: month %q outside year %d: %w", f.Month, year, ErrInvalidFilter)
		}
		return MonthInterval(t.Year(), t.Month()), true, nil
	}
	return Interval{}, false, nil
}
