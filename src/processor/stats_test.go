package processor

import (
	"math"
	"testing"

	"EnadeInsights/src/table"

	"github.com/stretchr/testify/assert"
)

func TestQuantileInterpolates(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5, 100}
	assert.InDelta(t, 2.25, quantile(s, 0.25), 1e-9)
	assert.InDelta(t, 4.75, quantile(s, 0.75), 1e-9)
	assert.InDelta(t, 3.5, quantile(s, 0.5), 1e-9)
	assert.Equal(t, 7.0, quantile([]float64{7}, 0.25))
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}

func TestFences(t *testing.T) {
	lo, hi := fences([]float64{100, 1, 2, 3, 4, 5})
	assert.InDelta(t, -1.5, lo, 1e-9)
	assert.InDelta(t, 8.5, hi, 1e-9)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 3.0, median([]float64{5, 3, 1}))
}

func TestPartitionOrdersKeys(t *testing.T) {
	tb := table.MustNew(table.NewColumn("g", table.Text, "b", nil, "a", "b", nil, "c"))

	groups := partition(tb, "g")
	keys := make([]any, len(groups))
	for i, g := range groups {
		keys[i] = g.key
	}
	assert.Equal(t, []any{"a", "b", "c", nil}, keys)
	assert.Equal(t, []int{0, 3}, groups[1].rows)
	assert.Equal(t, []int{1, 4}, groups[3].rows)
}

func TestPartitionNumericKeys(t *testing.T) {
	tb := table.MustNew(table.NewColumn("g", table.Integer, 10, 9, 100))

	groups := partition(tb, "g")
	assert.Equal(t, 9, groups[0].key)
	assert.Equal(t, 10, groups[1].key)
	assert.Equal(t, 100, groups[2].key)
}

func TestMode(t *testing.T) {
	assert.Equal(t, "a", mode([]any{"b", "a", "a", "b", nil}))
	assert.Equal(t, 3, mode([]any{1, 3, 3, nil}))
	assert.Nil(t, mode([]any{nil, nil}))
}
