package processor

import (
	"encoding/json"
	"testing"

	"EnadeInsights/src/config"
	"EnadeInsights/src/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataConfig(t *testing.T, doc string) *config.DataConfig {
	t.Helper()
	var dc config.DataConfig
	require.NoError(t, json.Unmarshal([]byte(doc), &dc))
	return &dc
}

func TestBuildPipeline(t *testing.T) {
	dc := dataConfig(t, `{
		"labels": {"modalidade": {"0": "EaD", "1": "Presencial"}},
		"transform": [
			{"kind": "filter", "options": {"column": "nota", "operator": ">", "value": 0}},
			{"kind": "impute", "options": {"column": "nota", "strategy": "constant", "value": 1}},
			{"kind": "impute_by_group", "options": {"column": "nota", "group_by": "mod"}},
			{"kind": "convert", "options": {"column": "ano", "type": "integer"}},
			{"kind": "add_duration", "options": {"result": "anos", "start": "ano", "end": "enade"}},
			{"kind": "remove_outliers", "options": {"column": "nota", "group_by": "mod"}},
			{"kind": "map", "options": {"columns": {"mod": "modalidade"}}},
			{"kind": "normalize", "options": {"column": "nota"}},
			{"kind": "rename", "options": {"mapping": {"nota": "NOTA"}}}
		]
	}`)
	p, err := BuildPipeline(dc)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"filter(nota > 0)",
		"impute(nota,constant)",
		"impute_by_group(nota,mod)",
		"convert(ano,integer)",
		"add_duration(anos=enade-ano)",
		"remove_outliers(nota,mod)",
		"map(mod)",
		"normalize(nota)",
		"rename(1)",
	}, p.Names())

	in := table.MustNew(
		table.NewColumn("nota", table.Float, 50.0, 0.0, nil, 70.0, 60.0),
		table.NewColumn("mod", table.Integer, 1, 1, 0, 0, 1),
		table.NewColumn("ano", table.Text, "2017", "2018", "2016", "2019", "2015"),
		table.NewColumn("enade", table.Integer, 2021, 2021, 2021, 2021, 2021),
	)
	out, err := p.Run(in, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"NOTA", "mod", "ano", "enade", "anos"}, out.Names())
	assert.Equal(t, 3, out.Nrow())
	c, _ := out.Column("mod")
	assert.Equal(t, []any{"Presencial", "EaD", "Presencial"}, c.Values)
	c, _ = out.Column("anos")
	assert.Equal(t, []any{4, 2, 6}, c.Values)
	c, _ = out.Column("NOTA")
	assert.Equal(t, []any{0.0, 1.0, 0.5}, c.Values)
}

func TestBuildPipelineErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", `{"transform": [{"kind": "explode"}]}`},
		{"unknown operator", `{"transform": [{"kind": "filter", "options": {"column": "a", "operator": "~", "value": 1}}]}`},
		{"filter without value", `{"transform": [{"kind": "filter", "options": {"column": "a", "operator": "=="}}]}`},
		{"unknown strategy", `{"transform": [{"kind": "impute", "options": {"column": "a", "strategy": "guess"}}]}`},
		{"missing column option", `{"transform": [{"kind": "normalize"}]}`},
		{"unknown label table", `{"transform": [{"kind": "map", "options": {"columns": {"a": "nope"}}}]}`},
		{"bad kind", `{"transform": [{"kind": "convert", "options": {"column": "a", "type": "blob"}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPipeline(dataConfig(t, tt.doc))
			var ce *ConfigurationError
			assert.ErrorAs(t, err, &ce)
		})
	}
}
