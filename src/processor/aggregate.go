package processor

import (
	"math"

	"EnadeInsights/src/table"
)

// RobustGroupAggregation summarises aggCol per groupBy group:
//
//  1. groups with fewer than minSampleSize rows are dropped
//  2. aggCol outliers are trimmed inside each remaining group
//  3. the trimmed values are averaged
//
// The result has one row per remaining group, ordered by key, with the
// group column in its own kind and the mean as Float. When no group passes
// the threshold the result is an empty table with the same two columns.
func RobustGroupAggregation(t *table.Table, groupBy, aggCol string, minSampleSize int, log Logger) (*table.Table, error) {
	if log == nil {
		log = nopLogger{}
	}
	if err := missingColumns(t, groupBy, aggCol); err != nil {
		return nil, err
	}
	if minSampleSize < 0 {
		return nil, &ConfigurationError{Op: "aggregate", Reason: "minimum sample size must not be negative"}
	}
	k, _ := t.Kind(aggCol)
	if !k.Numeric() {
		return nil, &UnsupportedOperatorError{Operator: "mean", Column: aggCol, Kind: k}
	}
	gk, _ := t.Kind(groupBy)
	xs, _ := t.Floats(aggCol)

	keys := table.Column{Name: groupBy, Kind: gk, Values: []any{}}
	means := table.Column{Name: aggCol, Kind: table.Float, Values: []any{}}
	for _, g := range partition(t, groupBy) {
		if len(g.rows) < minSampleSize {
			continue
		}
		trimmed := observed(pick(xs, inFences(xs, g.rows)))
		var v any
		if m := mean(trimmed); !math.IsNaN(m) {
			v = m
		}
		keys.Values = append(keys.Values, g.key)
		means.Values = append(means.Values, v)
	}
	if len(keys.Values) == 0 {
		log.Warning("no group reaches the minimum sample size",
			"group_by", groupBy, "column", aggCol, "min_sample_size", minSampleSize)
	}
	if groupBy == aggCol {
		means.Name = aggCol + "_mean"
	}
	return table.New(keys, means)
}
