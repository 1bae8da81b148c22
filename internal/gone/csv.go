package gone

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxCSVBytes caps uploaded import files
const MaxCSVBytes = 5 << 20

// ImportRow is one line of an import file
type ImportRow struct {
	Line    int    `json:"line"`
	Pattern string `json:"pattern"`
	IsRegex bool   `json:"isRegex"`
}

// RowFailure describes a rejected import row
type RowFailure struct {
	Line    int    `json:"line"`
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
}

// ImportResult summarises an import
type ImportResult struct {
	SuccessCount int          `json:"successCount"`
	ErrorCount   int          `json:"errorCount"`
	Skipped      int          `json:"skipped"`
	Failures     []RowFailure `json:"failures,omitempty"`
}

// ParseFlag interprets the is_regex column: only "1" means regex
func ParseFlag(s string) bool {
	return strings.TrimSpace(s) == "1"
}

// ParseCSV reads "url_pattern,is_regex_flag" lines.
// Blank lines are dropped by the reader; rows with an empty first
// field are returned and skipped by ImportBatch.
func ParseCSV(r io.Reader) ([]ImportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows []ImportRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed CSV: %w", ErrValidation, err)
		}
		if len(rec) == 0 {
			continue
		}
		line, _ := cr.FieldPos(0)
		row := ImportRow{Line: line, Pattern: strings.TrimSpace(rec[0])}
		if len(rec) > 1 {
			row.IsRegex = ParseFlag(rec[1])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
