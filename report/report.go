// Package report renders ranked results into tables and exports.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"getmyhouse/models"
)

// EncodingError reports a value that cannot be represented in the
// export format. It is surfaced to the caller, never swallowed.
type EncodingError struct {
	Field string
	Value string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode field %s: %q", e.Field, e.Value)
}

// Headers of the rendered table, one column per query-mirrored
// attribute plus agency, score, and the verified source link.
var Headers = []string{
	"Rank", "Location", "Type", "Typology", "Price (EUR)", "WCs",
	"State", "Transport (min)", "Distance (km)", "Agency", "Match Score", "Link",
}

type Table struct {
	Headers []string
	Rows    [][]string
}

// Render is a pure transformation of ranked results into display rows.
func Render(results []models.ScoredListing) Table {
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		l := r.Listing
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			orNA(l.Location),
			orNA(l.PropertyType),
			orNA(l.Typology),
			fmt.Sprintf("%d", l.Price),
			fmt.Sprintf("%d", l.WCs),
			orNA(l.UsageState),
			fmt.Sprintf("%d", l.TransportMinutes),
			fmt.Sprintf("%.1f", l.DistanceKm),
			orNA(l.Agency),
			fmt.Sprintf("%.0f%%", r.Score*100),
			orNA(l.URL),
		})
	}
	return Table{Headers: Headers, Rows: rows}
}

// ExportCSV serializes results into a spreadsheet-compatible CSV.
func ExportCSV(results []models.ScoredListing) ([]byte, error) {
	table := Render(results)
	if err := validate(table); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Headers); err != nil {
		return nil, err
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func validate(table Table) error {
	for _, row := range table.Rows {
		for col, cell := range row {
			if !utf8.ValidString(cell) {
				return &EncodingError{Field: table.Headers[col], Value: cell}
			}
		}
	}
	return nil
}

// String renders the table as aligned plain text for terminal output.
func (t Table) String() string {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			fmt.Fprintf(&b, "%-*s", widths[i]+2, cell)
		}
		b.WriteByte('\n')
	}
	writeRow(t.Headers)
	for _, row := range t.Rows {
		writeRow(row)
	}
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
