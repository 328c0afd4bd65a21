// Package metrics computes the data-quality signals TrustLens reports for an
// ingested table: overall null rate and minutes since the last update.
package metrics

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/trustlens/trustlens/table"
)

// UpdatedAtColumn is the column consulted for freshness. It is bookkeeping
// for the dataset and is excluded from the null-rate cell universe.
const UpdatedAtColumn = "updated_at"

// timeLayouts are tried in order when parsing updated_at values.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Result holds the computed signals. A nil field means the signal could not
// be derived from the table; that is an expected state, not an error.
type Result struct {
	NullRate               *float64 `json:"null_rate"`
	MinutesSinceLastUpdate *int     `json:"minutes_since_last_update"`
}

// Evaluator derives Results against an injected clock so freshness is
// testable with a fixed time.
type Evaluator struct {
	clock clock.Clock
}

// NewEvaluator returns an Evaluator on c, or on the wall clock if c is nil.
func NewEvaluator(c clock.Clock) *Evaluator {
	if c == nil {
		c = clock.New()
	}
	return &Evaluator{clock: c}
}

// Evaluate computes a Result for t. It is a pure function of t and the
// evaluator's clock.
//
// The null rate is nullCells/totalCells over the data columns, rounded to 3
// decimals, and is absent when there are no data cells. Freshness is the
// whole minutes between now and the most recent updated_at value, never
// negative, and is absent when the column is missing or holds only nulls.
// An unparseable updated_at value fails with a *table.ParseError so callers
// can distinguish bad data from an absent column.
func (e *Evaluator) Evaluate(t *table.Table) (Result, error) {
	var res Result

	cells, nulls := 0, 0
	for _, c := range t.Columns() {
		if c.Name == UpdatedAtColumn {
			continue
		}
		cells += len(c.Values)
		nulls += c.NullCount()
	}
	if cells > 0 {
		rate := round3(float64(nulls) / float64(cells))
		res.NullRate = &rate
	}

	col, ok := t.Column(UpdatedAtColumn)
	if !ok {
		return res, nil
	}
	var last time.Time
	seen := false
	for i, v := range col.Values {
		if v.Null {
			continue
		}
		ts, err := parseTime(v.Text)
		if err != nil {
			return Result{}, &table.ParseError{
				Row:    i + 1,
				Column: UpdatedAtColumn,
				Value:  v.Text,
				Reason: "unparseable timestamp",
			}
		}
		if !seen || ts.After(last) {
			last = ts
			seen = true
		}
	}
	if !seen {
		return res, nil
	}

	mins := int(e.clock.Now().UTC().Sub(last).Minutes())
	if mins < 0 {
		mins = 0
	}
	res.MinutesSinceLastUpdate = &mins
	return res, nil
}

func parseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var ts time.Time
		if ts, err = time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
