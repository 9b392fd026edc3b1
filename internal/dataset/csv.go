// Package dataset loads the historical price CSV into source rows.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Row is one entry of the dataset. Values are kept as the source strings so
// that downstream text assembly is byte-stable; numeric fields are only
// validated, never reformatted.
type Row struct {
	Date            string
	Open            string
	High            string
	Low             string
	Close           string
	AdjClose        string
	Volume          string
	MarketCap       string
	CorporateAction string
}

var requiredColumns = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// Load reads a CSV file with at least the Date/Open/High/Low/Close/Volume
// columns and optionally Adj Close, Market Cap and Split/Dividend.
func Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV data from r. The first record must be a header row.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("dataset is missing required column %q", name)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		row := Row{
			Date:            field("Date"),
			Open:            field("Open"),
			High:            field("High"),
			Low:             field("Low"),
			Close:           field("Close"),
			AdjClose:        field("Adj Close"),
			Volume:          field("Volume"),
			MarketCap:       field("Market Cap"),
			CorporateAction: field("Split/Dividend"),
		}
		if err := validateNumerics(row, line); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// validateNumerics checks that numeric fields, when present, parse as
// non-negative numbers. Dates are validated later by the record builder so
// that a bad date surfaces as a malformed-row failure at ingest time.
func validateNumerics(row Row, line int) error {
	prices := map[string]string{
		"Open":      row.Open,
		"High":      row.High,
		"Low":       row.Low,
		"Close":     row.Close,
		"Adj Close": row.AdjClose,
	}
	for name, v := range prices {
		if v == "" {
			continue
		}
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("line %d: column %s: %q is not numeric", line, name, v)
		}
		if p < 0 {
			return fmt.Errorf("line %d: column %s: negative value %q", line, name, v)
		}
	}
	if row.Volume != "" {
		n, err := strconv.ParseInt(row.Volume, 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: column Volume: %q is not an integer", line, row.Volume)
		}
		if n < 0 {
			return fmt.Errorf("line %d: column Volume: negative value %q", line, row.Volume)
		}
	}
	return nil
}
