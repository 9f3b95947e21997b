package render

import (
	"encoding/json"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/ledger"
	"github.com/shopspring/decimal"
)

func testReport() *ledger.ReportStruct {
	return &ledger.ReportStruct{
		Kind:  ledger.ReportOutstanding,
		Title: "Outstanding items 2024",
		Attrs: []string{"id", "date", "partner_name", "debit_stack", "comment"},
		Rows: []*domain.Transaction{
			{
				ID:         "t1",
				Date:       civil.Date{Year: 2024, Month: 3, Day: 1},
				Partner:    "p1",
				DebitStack: decimal.RequireFromString("-30"),
				Comment:    "invoice, march",
			},
		},
		PartnerNames: map[string]string{"p1": "Acme"},
	}
}

func TestWrite_CSV(t *testing.T) {
	out, err := Bytes(FormatCSV, testReport())
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	want := "id,date,partner_name,debit_stack,comment\nt1,2024-03-01,Acme,-30.00,\"invoice, march\"\n"
	if string(out) != want {
		t.Errorf("CSV = %q, want %q", out, want)
	}
}

func TestWrite_JSON(t *testing.T) {
	out, err := Bytes(FormatJSON, testReport())
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	var got struct {
		Kind    string              `json:"kind"`
		Columns []string            `json:"columns"`
		Rows    []map[string]string `json:"rows"`
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Kind != "outstanding" || len(got.Rows) != 1 {
		t.Fatalf("unexpected report: %+v", got)
	}
	if got.Rows[0]["debit_stack"] != "-30.00" || got.Rows[0]["partner_name"] != "Acme" {
		t.Errorf("row = %v", got.Rows[0])
	}
}

func TestWrite_Text(t *testing.T) {
	out, err := Bytes(FormatText, testReport())
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "Outstanding items 2024\n") {
		t.Errorf("missing title: %q", s)
	}
	if !strings.Contains(s, "-30.00") {
		t.Errorf("missing stack value: %q", s)
	}

	empty := testReport()
	empty.Rows = nil
	out, _ = Bytes(FormatText, empty)
	if !strings.Contains(string(out), "No rows.") {
		t.Errorf("Expected empty marker, got %q", out)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "CSV", want: FormatCSV},
		{in: "json", want: FormatJSON},
		{in: "", want: FormatText},
		{in: "xlsx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}
