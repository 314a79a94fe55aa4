package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"EnadeInsights/src/config"
	"EnadeInsights/src/processor"
	"EnadeInsights/src/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grades() *table.Table {
	return table.MustNew(
		table.NewColumn("grupo", table.Integer, 1, 1, 1, 1, 1, 2, 2, 2, 3),
		table.NewColumn("nota", table.Float, 10.0, 11.0, 12.0, 13.0, 100.0, 20.0, 22.0, 24.0, 90.0),
	)
}

func TestBuildTrimsAndOrders(t *testing.T) {
	out, err := Build(grades(), config.Report{GroupBy: "grupo", Column: "nota", MinSampleSize: 3, Order: "desc"}, nil, nil)
	require.NoError(t, err)

	g, _ := out.Column("grupo")
	n, _ := out.Column("nota")
	assert.Equal(t, []any{2, 1}, g.Values)
	assert.Equal(t, []any{22.0, 11.5}, n.Values)
}

func TestBuildTopAndLabels(t *testing.T) {
	labels := map[string]string{"1": "Direito", "3": "Medicina"}
	out, err := Build(grades(), config.Report{GroupBy: "grupo", Column: "nota", Top: 2, Order: "asc"}, labels, nil)
	require.NoError(t, err)

	g, _ := out.Column("grupo")
	assert.Equal(t, table.Categorical, g.Kind)
	// ascending: 1 (11.5), 2 (22), 3 (90); group 2 has no label
	assert.Equal(t, []any{"Direito", nil}, g.Values)
}

func TestBuildNoGroupSurvives(t *testing.T) {
	out, err := Build(grades(), config.Report{GroupBy: "grupo", Column: "nota", MinSampleSize: 100}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Nrow())
	assert.Equal(t, []string{"grupo", "nota"}, out.Names())
}

func TestOrderByMissingLast(t *testing.T) {
	tb := table.MustNew(
		table.NewColumn("k", table.Text, "a", "b", "c"),
		table.NewColumn("v", table.Float, nil, 1.0, 2.0),
	)
	for _, desc := range []bool{true, false} {
		out, err := orderBy(tb, "v", desc)
		require.NoError(t, err)
		assert.Equal(t, "a", out.Value("k", 2))
	}
}

func TestGenerateIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	dc := &config.DataConfig{
		Labels: map[string]map[string]string{"areas": {"1": "Direito", "2": "Medicina"}},
		Reports: []config.Report{
			{Name: "por_grupo", GroupBy: "grupo", Column: "nota", MinSampleSize: 2, Labels: "areas"},
			{Name: "quebrado", GroupBy: "curso", Column: "nota"},
		},
	}

	results, failed := Generate(grades(), dc, dir, nil)
	require.Len(t, results, 1)
	assert.Equal(t, "por_grupo", results[0].Name)
	assert.FileExists(t, filepath.Join(dir, "por_grupo.csv"))
	assert.FileExists(t, filepath.Join(dir, "por_grupo.xlsx"))

	raw, err := os.ReadFile(results[0].CSV)
	require.NoError(t, err)
	assert.Equal(t, "grupo,nota\nDireito,11.5\nMedicina,22\n", string(raw))

	require.Contains(t, failed, "quebrado")
	var missing *processor.MissingColumnError
	assert.True(t, errors.As(failed["quebrado"], &missing))
}
