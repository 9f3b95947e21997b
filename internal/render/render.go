// Package render turns ledger reports into CSV, JSON or plain text.
package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/ledger"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat maps a name to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatJSON, FormatText:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("ParseFormat: unknown format %q", name)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}

// Extension returns the file extension of f, without the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Write renders r to w in format f.
func Write(w io.Writer, f Format, r *ledger.ReportStruct) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatText:
		return writeText(w, r)
	}
	return fmt.Errorf("Write: unknown format %q", f)
}

// Bytes renders r into memory.
func Bytes(f Format, r *ledger.ReportStruct) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCSV(w io.Writer, r *ledger.ReportStruct) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Attrs); err != nil {
		return fmt.Errorf("writeCSV: header: %w", err)
	}
	for _, row := range r.Rows {
		record := make([]string, len(r.Attrs))
		for i, attr := range r.Attrs {
			record[i] = r.Value(row, attr)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writeCSV: row %s: %w", row.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writeCSV: flush: %w", err)
	}
	return nil
}

// jsonReport is the wire shape of a report: rows are column -> value objects.
type jsonReport struct {
	Kind    ledger.ReportKind   `json:"kind"`
	Title   string              `json:"title"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// JSONValue returns the JSON wire shape of r.
func JSONValue(r *ledger.ReportStruct) any {
	out := jsonReport{
		Kind:    r.Kind,
		Title:   r.Title,
		Columns: r.Attrs,
		Rows:    make([]map[string]string, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		out.Rows = append(out.Rows, rowValue(r, row))
	}
	return out
}

// TransactionValue returns every column of tx as a column -> value object.
func TransactionValue(tx *domain.Transaction) map[string]string {
	return rowValue(&ledger.ReportStruct{Attrs: ledger.AllColumns}, tx)
}

func rowValue(r *ledger.ReportStruct, row *domain.Transaction) map[string]string {
	obj := make(map[string]string, len(r.Attrs))
	for _, attr := range r.Attrs {
		obj[attr] = r.Value(row, attr)
	}
	return obj
}

func writeJSON(w io.Writer, r *ledger.ReportStruct) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(JSONValue(r)); err != nil {
		return fmt.Errorf("writeJSON: %w", err)
	}
	return nil
}

func writeText(w io.Writer, r *ledger.ReportStruct) error {
	if r.Title != "" {
		if _, err := fmt.Fprintln(w, r.Title); err != nil {
			return fmt.Errorf("writeText: %w", err)
		}
	}
	if len(r.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No rows.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(r.Attrs, "\t"))
	for _, row := range r.Rows {
		values := make([]string, len(r.Attrs))
		for i, attr := range r.Attrs {
			values[i] = r.Value(row, attr)
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writeText: %w", err)
	}
	return nil
}
