package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseError describes a cell or row that could not be interpreted.
type ParseError struct {
	Row    int    // 1-based data row; 0 when the failure is not row specific
	Column string // column name; empty when unknown
	Value  string // offending raw value, if any
	Reason string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ", column %q", e.Column)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	if e.Value != "" {
		fmt.Fprintf(&b, " (value %q)", e.Value)
	}
	return b.String()
}

// nullTokens are the cell spellings treated as missing values, matching the
// common CSV conventions the original upload path accepted.
var nullTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
}

func isNullToken(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}

// FromCSV decodes a headered CSV stream into a Table. Empty and NA-style
// cells become nulls. Structural problems are reported as a *ParseError
// naming the failing data row.
func FromCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{Reason: "empty input, expected a header row"}
	} else if err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}

	columns := make([]Column, len(header))
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &ParseError{Column: fmt.Sprintf("#%d", i+1), Reason: "empty column name in header"}
		}
		if seen[name] {
			return nil, &ParseError{Column: name, Reason: "duplicate column name in header"}
		}
		seen[name] = true
		columns[i] = Column{Name: name}
	}

	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, &ParseError{Row: row, Reason: err.Error()}
		}
		for i, cell := range rec {
			if isNullToken(cell) {
				columns[i].Values = append(columns[i].Values, Null())
			} else {
				columns[i].Values = append(columns[i].Values, String(cell))
			}
		}
	}

	return New(columns...)
}
