package processor

import (
	"fmt"
	"math"
	"sort"

	"EnadeInsights/src/table"
)

// RemoveOutliers drops rows whose Column value falls outside the Tukey
// fences computed within the row's GroupBy group. Rows with a missing value
// are kept.
type RemoveOutliers struct {
	Column  string
	GroupBy string
}

func (s RemoveOutliers) Name() string {
	return fmt.Sprintf("remove_outliers(%s,%s)", s.Column, s.GroupBy)
}

func (s RemoveOutliers) Apply(t *table.Table) (*table.Table, error) {
	if err := missingColumns(t, s.Column, s.GroupBy); err != nil {
		return nil, err
	}
	k, _ := t.Kind(s.Column)
	if !k.Numeric() {
		return nil, &UnsupportedOperatorError{Operator: "remove_outliers", Column: s.Column, Kind: k}
	}
	xs, _ := t.Floats(s.Column)

	keep := make([]int, 0, len(xs))
	for _, g := range partition(t, s.GroupBy) {
		keep = append(keep, inFences(xs, g.rows)...)
	}
	sort.Ints(keep)
	return t.Subset(keep)
}

// inFences returns the rows of a group whose value lies within the group's
// fences, plus the rows whose value is missing.
func inFences(xs []float64, rows []int) []int {
	obs := observed(pick(xs, rows))
	if len(obs) == 0 {
		return rows
	}
	lo, hi := fences(obs)
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		if x := xs[r]; math.IsNaN(x) || (x >= lo && x <= hi) {
			out = append(out, r)
		}
	}
	return out
}
