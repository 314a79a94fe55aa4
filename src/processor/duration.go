package processor

import (
	"fmt"
	"time"

	"EnadeInsights/src/table"
)

// AddDuration derives Result = End - Start.
//
//	Integer  - Integer  -> Integer
//	Integer/Float mixes -> Float
//	Datetime - Datetime -> Duration
//	Duration - Duration -> Duration
//
// A missing operand gives a missing result. An existing Result column is
// replaced in place.
type AddDuration struct {
	Result string
	Start  string
	End    string
}

func (s AddDuration) Name() string {
	return fmt.Sprintf("add_duration(%s=%s-%s)", s.Result, s.End, s.Start)
}

func (s AddDuration) Apply(t *table.Table) (*table.Table, error) {
	if err := missingColumns(t, s.Start, s.End); err != nil {
		return nil, err
	}
	start, _ := t.Column(s.Start)
	end, _ := t.Column(s.End)

	kind, sub, err := subtraction(start.Kind, end.Kind)
	if err != nil {
		return nil, &UnsupportedOperatorError{
			Operator: fmt.Sprintf("%s - %s", end.Kind, start.Kind),
			Column:   s.Result,
			Kind:     end.Kind,
		}
	}
	out := table.Column{Name: s.Result, Kind: kind, Values: make([]any, len(start.Values))}
	for i := range out.Values {
		if start.Values[i] == nil || end.Values[i] == nil {
			continue
		}
		out.Values[i] = sub(end.Values[i], start.Values[i])
	}
	return t.WithColumn(out)
}

func subtraction(start, end table.Kind) (table.Kind, func(a, b any) any, error) {
	switch {
	case start == table.Integer && end == table.Integer:
		return table.Integer, func(a, b any) any { return a.(int) - b.(int) }, nil
	case isPlainNumber(start) && isPlainNumber(end):
		return table.Float, func(a, b any) any {
			x, _ := toFloat(a)
			y, _ := toFloat(b)
			return x - y
		}, nil
	case start == table.Datetime && end == table.Datetime:
		return table.Duration, func(a, b any) any { return a.(time.Time).Sub(b.(time.Time)) }, nil
	case start == table.Duration && end == table.Duration:
		return table.Duration, func(a, b any) any { return a.(time.Duration) - b.(time.Duration) }, nil
	}
	return 0, nil, fmt.Errorf("cannot subtract %s from %s", start, end)
}

func isPlainNumber(k table.Kind) bool {
	return k == table.Integer || k == table.Float
}
