package processor

import (
	"fmt"
	"strings"
)

// Strategy selects how HandleMissingValues fills gaps.
type Strategy int

const (
	Mean Strategy = iota
	Median
	Mode
	Constant
)

var strategyNames = []string{"mean", "median", "mode", "constant"}

func (s Strategy) String() string {
	if int(s) >= 0 && int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps a configuration tag to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	for i, name := range strategyNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Strategy(i), nil
		}
	}
	return 0, &ConfigurationError{Op: "impute", Reason: fmt.Sprintf("unknown strategy %q", s)}
}

// Operator is a row filter comparison.
type Operator int

const (
	Eq Operator = iota
	Neq
	Less
	LessEq
	Greater
	GreaterEq
)

var operatorSymbols = []string{"==", "!=", "<", "<=", ">", ">="}

func (o Operator) String() string {
	if int(o) >= 0 && int(o) < len(operatorSymbols) {
		return operatorSymbols[o]
	}
	return fmt.Sprintf("operator(%d)", int(o))
}

// ParseOperator maps a comparison symbol to an Operator.
func ParseOperator(s string) (Operator, error) {
	for i, sym := range operatorSymbols {
		if strings.TrimSpace(s) == sym {
			return Operator(i), nil
		}
	}
	return 0, &ConfigurationError{Op: "filter", Reason: fmt.Sprintf("unknown operator %q", s)}
}

// ordering reports whether the operator needs an order on values rather
// than just equality.
func (o Operator) ordering() bool {
	return o != Eq && o != Neq
}

// holds evaluates the operator on the result of a three-way comparison.
func (o Operator) holds(c int) bool {
	switch o {
	case Eq:
		return c == 0
	case Neq:
		return c != 0
	case Less:
		return c < 0
	case LessEq:
		return c <= 0
	case Greater:
		return c > 0
	case GreaterEq:
		return c >= 0
	}
	return false
}
