package processor

import (
	"math"
	"sort"

	"EnadeInsights/src/table"

	"gonum.org/v1/gonum/stat"
)

// outlierFactor scales the interquartile range into the Tukey fences.
const outlierFactor = 1.5

// observed returns the non-missing values of xs.
func observed(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

func sorted(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

// quantile interpolates linearly between the closest order statistics at
// position q*(n-1) of the sorted sample.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func median(xs []float64) float64 {
	return quantile(sorted(xs), 0.5)
}

// fences returns the inclusive bounds [Q1-1.5*IQR, Q3+1.5*IQR] of xs.
func fences(xs []float64) (lo, hi float64) {
	s := sorted(xs)
	q1, q3 := quantile(s, 0.25), quantile(s, 0.75)
	iqr := q3 - q1
	return q1 - outlierFactor*iqr, q3 + outlierFactor*iqr
}

// group is a set of row positions sharing one key. A nil key is the group
// of rows whose key is missing.
type group struct {
	key  any
	rows []int
}

// partition splits the rows of t by the values of column. Groups come out
// ordered by key with the missing-key group last.
func partition(t *table.Table, column string) []group {
	c, _ := t.Column(column)
	index := make(map[string]int)
	var groups []group
	var missing []int
	for i, v := range c.Values {
		if v == nil {
			missing = append(missing, i)
			continue
		}
		k := table.Format(v)
		pos, ok := index[k]
		if !ok {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, group{key: v})
		}
		groups[pos].rows = append(groups[pos].rows, i)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return table.Compare(groups[i].key, groups[j].key) < 0
	})
	if len(missing) > 0 {
		groups = append(groups, group{rows: missing})
	}
	return groups
}

// pick returns xs at the given positions.
func pick(xs []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = xs[r]
	}
	return out
}
