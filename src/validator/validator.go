// Package validator checks a loaded dataset against its declared contract:
// the columns that must exist and the kind each typed column must have.
package validator

import (
	"fmt"
	"sort"

	"EnadeInsights/src/processor"
	"EnadeInsights/src/table"
	"EnadeInsights/src/utils"
)

// Validate returns t with every typed column converted to its declared kind.
// All absent columns are reported together in one *processor.MissingColumnError.
func Validate(t *table.Table, required []string, types map[string]string) (*table.Table, error) {
	var missing []string
	for _, name := range required {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	for _, name := range sortedKeys(types) {
		if !t.Has(name) && !utils.Contains(missing, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &processor.MissingColumnError{Columns: missing}
	}

	steps := make(processor.Pipeline, 0, len(types))
	for _, name := range sortedKeys(types) {
		k, err := table.ParseKind(types[name])
		if err != nil {
			return nil, &processor.ConfigurationError{
				Op:     "validate",
				Reason: fmt.Sprintf("column %s: %v", name, err),
			}
		}
		steps = append(steps, processor.Convert{Column: name, Target: k})
	}
	return steps.Run(t, nil)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
