package processor

import (
	"fmt"
	"strings"
	"time"

	"EnadeInsights/src/table"
)

// Filter keeps the rows whose Column value satisfies Operator against
// Value. Missing cells never match.
type Filter struct {
	Column   string
	Operator Operator
	Value    any
}

func (s Filter) Name() string {
	return fmt.Sprintf("filter(%s %s %v)", s.Column, s.Operator, s.Value)
}

func (s Filter) Apply(t *table.Table) (*table.Table, error) {
	if err := missingColumns(t, s.Column); err != nil {
		return nil, err
	}
	if s.Operator < Eq || s.Operator > GreaterEq {
		return nil, &ConfigurationError{Op: "filter", Reason: fmt.Sprintf("unknown operator %s", s.Operator)}
	}
	k, _ := t.Kind(s.Column)
	if s.Operator.ordering() && !k.Ordered() {
		return nil, &UnsupportedOperatorError{Operator: s.Operator.String(), Column: s.Column, Kind: k}
	}
	rhs, err := operand(s.Value, k)
	if err != nil {
		return nil, &TypeConversionError{Column: s.Column, Row: -1, Value: s.Value, Target: k}
	}

	var cmp func(v any) int
	switch want := rhs.(type) {
	case float64:
		cmp = func(v any) int {
			f, _ := toFloat(v)
			return table.Compare(f, want)
		}
	case string:
		cmp = func(v any) int { return strings.Compare(v.(string), want) }
	case time.Time:
		cmp = func(v any) int { return v.(time.Time).Compare(want) }
	}

	out, err := t.Filter(s.Column, func(v any) bool { return s.Operator.holds(cmp(v)) })
	if err != nil {
		return nil, err
	}
	return out, nil
}
