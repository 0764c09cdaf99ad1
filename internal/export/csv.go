// Package export writes filtered record sets as CSV or PDF.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/TobiSchelling/vizboard/internal/dataset"
)

// Columns returns the export header for records: the typed fields in
// canonical order followed by every passthrough field name, sorted.
func Columns(records []dataset.Record) []string {
	cols := make([]string, 0, len(dataset.KnownFields))
	for _, f := range dataset.KnownFields {
		cols = append(cols, string(f))
	}

	seen := make(map[string]bool)
	var extra []string
	for _, r := range records {
		for k := range r.Extra {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	slices.Sort(extra)
	return append(cols, extra...)
}

// WriteCSV writes records with a header row. Missing values are empty cells.
func WriteCSV(w io.Writer, records []dataset.Record) error {
	cols := Columns(records)
	cw := csv.NewWriter(w)

	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	row := make([]string, len(cols))
	for i, r := range records {
		for j, c := range cols {
			row[j] = r.Get(dataset.Field(c))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
