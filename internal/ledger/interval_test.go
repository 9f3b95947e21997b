package ledger

import (
	"errors"
	"testing"
)

func TestResolveInterval(t *testing.T) {
	today := date("2024-02-15")

	tests := []struct {
		name      string
		filter    Filter
		wantStart string
		wantEnd   string
		wantOK    bool
	}{
		{
			name:      "second quarter",
			filter:    Filter{Year: "2024", Quarter: "q2"},
			wantStart: "2024-04-01",
			wantEnd:   "2024-07-01",
			wantOK:    true,
		},
		{
			name:      "fourth quarter rolls into next year",
			filter:    Filter{Year: "2024", Quarter: "q4"},
			wantStart: "2024-10-01",
			wantEnd:   "2025-01-01",
			wantOK:    true,
		},
		{
			name:      "quarter defaults to current year",
			filter:    Filter{Quarter: "Q1"},
			wantStart: "2024-01-01",
			wantEnd:   "2024-04-01",
			wantOK:    true,
		},
		{
			name:      "december rolls into january",
			filter:    Filter{Month: "2024-12"},
			wantStart: "2024-12-01",
			wantEnd:   "2025-01-01",
			wantOK:    true,
		},
		{
			name:      "month within explicit year",
			filter:    Filter{Year: "2023", Month: "2023-06"},
			wantStart: "2023-06-01",
			wantEnd:   "2023-07-01",
			wantOK:    true,
		},
		{
			name:      "last quarter from first quarter",
			filter:    Filter{Quarter: "last"},
			wantStart: "2023-10-01",
			wantEnd:   "2024-01-01",
			wantOK:    true,
		},
		{
			name:   "no filter key",
			filter: Filter{},
			wantOK: false,
		},
		{
			name:   "year alone is not an interval key",
			filter: Filter{Year: "2023"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, ok, err := ResolveInterval(tt.filter, today)
			if err != nil {
				t.Fatalf("ResolveInterval() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ResolveInterval() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if iv.Start.String() != tt.wantStart || iv.End.String() != tt.wantEnd {
				t.Errorf("ResolveInterval() = %s, want [%s, %s)", iv, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestResolveInterval_Invalid(t *testing.T) {
	today := date("2024-02-15")

	tests := []struct {
		name   string
		filter Filter
	}{
		{name: "non-numeric year", filter: Filter{Year: "twenty", Quarter: "q1"}},
		{name: "year zero", filter: Filter{Year: "0", Quarter: "q1"}},
		{name: "quarter five", filter: Filter{Quarter: "q5"}},
		{name: "quarter without number", filter: Filter{Quarter: "q"}},
		{name: "unknown quarter word", filter: Filter{Quarter: "first"}},
		{name: "malformed month", filter: Filter{Month: "2024/12"}},
		{name: "month thirteen", filter: Filter{Month: "2024-13"}},
		{name: "month outside year", filter: Filter{Year: "2023", Month: "2024-01"}},
		{name: "quarter and month", filter: Filter{Quarter: "q1", Month: "2024-01"}},
		{name: "malformed year alone", filter: Filter{Year: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ResolveInterval(tt.filter, today)
			if !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("ResolveInterval() error = %v, want ErrInvalidFilter", err)
			}
		})
	}
}

func TestPreviousQuarter(t *testing.T) {
	tests := []struct {
		ref       string
		wantStart string
		wantEnd   string
	}{
		{ref: "2024-02-15", wantStart: "2023-10-01", wantEnd: "2024-01-01"},
		{ref: "2024-03-31", wantStart: "2023-10-01", wantEnd: "2024-01-01"},
		{ref: "2024-04-01", wantStart: "2024-01-01", wantEnd: "2024-04-01"},
		{ref: "2024-08-20", wantStart: "2024-04-01", wantEnd: "2024-07-01"},
		{ref: "2024-12-31", wantStart: "2024-07-01", wantEnd: "2024-10-01"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			iv := PreviousQuarter(date(tt.ref))
			if iv.Start.String() != tt.wantStart || iv.End.String() != tt.wantEnd {
				t.Errorf("PreviousQuarter(%s) = %s, want [%s, %s)", tt.ref, iv, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestInterval_Contains(t *testing.T) {
	iv := MonthInterval(2024, 12)
	if !iv.Contains(date("2024-12-01")) {
		t.Error("Expected interval to contain its start")
	}
	if !iv.Contains(date("2024-12-31")) {
		t.Error("Expected interval to contain the last day of the month")
	}
	if iv.Contains(date("2025-01-01")) {
		t.Error("Expected interval to exclude its end")
	}
}
