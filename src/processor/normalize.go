package processor

import (
	"fmt"
	"math"

	"EnadeInsights/src/table"

	"gonum.org/v1/gonum/floats"
)

// Normalize rescales a numeric column to [0, 1] with min-max scaling. A
// column whose observed values are all equal maps to 0.
type Normalize struct {
	Column string
}

func (s Normalize) Name() string { return fmt.Sprintf("normalize(%s)", s.Column) }

func (s Normalize) Apply(t *table.Table) (*table.Table, error) {
	if err := missingColumns(t, s.Column); err != nil {
		return nil, err
	}
	k, _ := t.Kind(s.Column)
	if !k.Numeric() {
		return nil, &UnsupportedOperatorError{Operator: "normalize", Column: s.Column, Kind: k}
	}
	xs, _ := t.Floats(s.Column)
	out := table.Column{Name: s.Column, Kind: table.Float, Values: make([]any, len(xs))}

	obs := observed(xs)
	if len(obs) == 0 {
		return t.WithColumn(out)
	}
	lo, hi := floats.Min(obs), floats.Max(obs)
	span := hi - lo
	for i, x := range xs {
		switch {
		case math.IsNaN(x):
		case span == 0:
			out.Values[i] = 0.0
		default:
			out.Values[i] = (x - lo) / span
		}
	}
	return t.WithColumn(out)
}
