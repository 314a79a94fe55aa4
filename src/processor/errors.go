package processor

import (
	"fmt"
	"strings"

	"EnadeInsights/src/table"
	"EnadeInsights/src/utils"
)

// MissingColumnError reports referenced columns that are not in the table.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column(s): %s", strings.Join(e.Columns, ", "))
}

// ConfigurationError reports an invalid argument: unknown strategy or
// operator, a constant fill without a value, a bad threshold.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Op == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Op, e.Reason)
}

// TypeConversionError reports a value that cannot be represented in the
// target kind. Row is -1 for values that do not come from a cell.
type TypeConversionError struct {
	Column string
	Row    int
	Value  any
	Target table.Kind
}

func (e *TypeConversionError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("cannot convert %q to %s", table.Format(e.Value), e.Target))
	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column %s", e.Column))
	}
	if e.Row >= 0 {
		parts = append(parts, fmt.Sprintf("at row %d", e.Row))
	}
	return strings.Join(parts, " - ")
}

// UnsupportedOperatorError reports an operation that does not apply to the
// kind of the column it was asked to run on.
type UnsupportedOperatorError struct {
	Operator string
	Column   string
	Kind     table.Kind
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("operator %s is not supported on column %s (%s)", e.Operator, e.Column, e.Kind)
}

// MissingDataError reports a column that has no observed value from which a
// statistic could be computed.
type MissingDataError struct {
	Column string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("column %s has no observed values", e.Column)
}

func missingColumns(t *table.Table, names ...string) error {
	var missing []string
	for _, n := range names {
		if !t.Has(n) && !utils.Contains(missing, n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Columns: missing}
	}
	return nil
}
