package table_test

import (
	"strings"
	"testing"

	"github.com/trustlens/trustlens/table"
)

func TestFromCSV(t *testing.T) {
	in := strings.NewReader("id,value,updated_at\n1,10,2025-09-01\n2,,2025-09-08\n3,NaN,2025-09-09\n")
	tbl, err := table.FromCSV(in)
	if err != nil {
		t.Fatal(err)
	}
	if got, exp := tbl.NumRows(), 3; got != exp {
		t.Fatalf("unexpected row count: got %d exp %d", got, exp)
	}
	c, ok := tbl.Column("value")
	if !ok {
		t.Fatal("expected value column")
	}
	// "" and "NaN" are both null spellings
	if got, exp := c.NullCount(), 2; got != exp {
		t.Errorf("unexpected null count: got %d exp %d", got, exp)
	}
	if got, exp := c.Values[0].Text, "10"; got != exp {
		t.Errorf("unexpected cell: got %q exp %q", got, exp)
	}
}

func TestFromCSV_NullTokens(t *testing.T) {
	in := strings.NewReader("v\nna\nN/A\nNULL\n nan \nok\n")
	tbl, err := table.FromCSV(in)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := tbl.Column("v")
	if got, exp := c.NullCount(), 4; got != exp {
		t.Errorf("unexpected null count: got %d exp %d", got, exp)
	}
}

func TestFromCSV_Errors(t *testing.T) {
	testCases := []struct {
		name string
		in   string
	}{
		{name: "empty input", in: ""},
		{name: "empty header name", in: "id,,value\n1,2,3\n"},
		{name: "duplicate header name", in: "id,id\n1,2\n"},
		{name: "ragged row", in: "id,value\n1\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := table.FromCSV(strings.NewReader(tc.in))
			if err == nil {
				t.Fatal("expected error")
			}
			if _, ok := err.(*table.ParseError); !ok {
				t.Fatalf("expected *ParseError, got %T", err)
			}
		})
	}
}

func TestFromCSV_RaggedRowNumber(t *testing.T) {
	_, err := table.FromCSV(strings.NewReader("id,value\n1,2\n3\n"))
	pe, ok := err.(*table.ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if got, exp := pe.Row, 2; got != exp {
		t.Errorf("unexpected failing row: got %d exp %d", got, exp)
	}
}
