package processor

import (
	"fmt"
	"math"

	"EnadeInsights/src/table"
	"EnadeInsights/src/utils"
)

// Impute fills the missing cells of one column.
type Impute struct {
	Column   string
	Strategy Strategy
	// Fill is the value used by the Constant strategy.
	Fill any
}

func (s Impute) Name() string { return fmt.Sprintf("impute(%s,%s)", s.Column, s.Strategy) }

func (s Impute) Apply(t *table.Table) (*table.Table, error) {
	if err := missingColumns(t, s.Column); err != nil {
		return nil, err
	}
	c, _ := t.Column(s.Column)

	switch s.Strategy {
	case Mean, Median:
		if !c.Kind.Numeric() {
			return nil, &UnsupportedOperatorError{Operator: s.Strategy.String(), Column: s.Column, Kind: c.Kind}
		}
		xs, _ := t.Floats(s.Column)
		obs := observed(xs)
		if len(obs) == 0 {
			return t.Copy(), nil
		}
		v := mean(obs)
		if s.Strategy == Median {
			v = median(obs)
		}
		return t.WithColumn(fillNumeric(c, xs, func(int) float64 { return v }))
	case Mode:
		v := mode(c.Values)
		if v == nil {
			return t.Copy(), nil
		}
		return t.WithColumn(fill(c, v))
	case Constant:
		if s.Fill == nil {
			return nil, &ConfigurationError{Op: "impute", Reason: "constant strategy requires a fill value"}
		}
		v, err := convertValue(s.Fill, c.Kind)
		if err != nil || v == nil || (c.Kind == table.Integer && !wholeNumber(s.Fill)) {
			return nil, &TypeConversionError{Column: s.Column, Row: -1, Value: s.Fill, Target: c.Kind}
		}
		return t.WithColumn(fill(c, v))
	}
	return nil, &ConfigurationError{Op: "impute", Reason: fmt.Sprintf("unknown strategy %s", s.Strategy)}
}

// ImputeByGroup fills missing values of Target with the mean of Target
// within the row's GroupBy group, falling back to the global mean when the
// group has no observed value.
type ImputeByGroup struct {
	Target  string
	GroupBy string
}

func (s ImputeByGroup) Name() string {
	return fmt.Sprintf("impute_by_group(%s,%s)", s.Target, s.GroupBy)
}

func (s ImputeByGroup) Apply(t *table.Table) (*table.Table, error) {
	if err := missingColumns(t, s.Target, s.GroupBy); err != nil {
		return nil, err
	}
	c, _ := t.Column(s.Target)
	if !c.Kind.Numeric() {
		return nil, &UnsupportedOperatorError{Operator: "group mean", Column: s.Target, Kind: c.Kind}
	}
	xs, _ := t.Floats(s.Target)
	if len(observed(xs)) == len(xs) {
		return t.Copy(), nil
	}
	global := mean(observed(xs))
	if math.IsNaN(global) {
		return nil, &MissingDataError{Column: s.Target}
	}

	byRow := make([]float64, len(xs))
	for _, g := range partition(t, s.GroupBy) {
		m := mean(observed(pick(xs, g.rows)))
		if math.IsNaN(m) {
			m = global
		}
		for _, r := range g.rows {
			byRow[r] = m
		}
	}
	return t.WithColumn(fillNumeric(c, xs, func(row int) float64 { return byRow[row] }))
}

// wholeNumber reports whether v carries no fractional part. Values that are
// not numbers are left to the conversion.
func wholeNumber(v any) bool {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case string:
		p, err := utils.ParseDecimal(x)
		if err != nil {
			return true
		}
		f = p
	default:
		return true
	}
	return f == math.Trunc(f)
}

// fillNumeric fills the gaps of a numeric column with with(row). Integer
// columns are promoted to Float; Duration columns stay Duration.
func fillNumeric(c table.Column, xs []float64, with func(row int) float64) table.Column {
	kind := c.Kind
	if kind == table.Integer {
		kind = table.Float
	}
	out := table.Column{Name: c.Name, Kind: kind, Values: make([]any, len(xs))}
	for i, x := range xs {
		if math.IsNaN(x) {
			x = with(i)
		}
		if kind == table.Duration {
			out.Values[i] = seconds(x)
			continue
		}
		out.Values[i] = x
	}
	return out
}

// fill replaces the missing cells of c with v.
func fill(c table.Column, v any) table.Column {
	out := table.Column{Name: c.Name, Kind: c.Kind, Values: make([]any, len(c.Values))}
	for i, x := range c.Values {
		if x == nil {
			x = v
		}
		out.Values[i] = x
	}
	return out
}

// mode returns the most frequent observed value; ties go to the smallest
// value in the column's natural order. nil when nothing is observed.
func mode(values []any) any {
	counts := make(map[string]int)
	first := make(map[string]any)
	for _, v := range values {
		if v == nil {
			continue
		}
		k := table.Format(v)
		if _, ok := first[k]; !ok {
			first[k] = v
		}
		counts[k]++
	}
	var best any
	bestN := 0
	for k, n := range counts {
		v := first[k]
		if n > bestN || (n == bestN && table.Compare(v, best) < 0) {
			best, bestN = v, n
		}
	}
	return best
}
