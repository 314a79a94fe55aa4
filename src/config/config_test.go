package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigs(t *testing.T, cfg, dcfg string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(cfg), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dataconfig.json"), []byte(dcfg), 0644))
	return dir
}

func TestLoadBundledConfig(t *testing.T) {
	cfg, dcfg, err := Load("../../config", "config.json", "dataconfig.json")
	require.NoError(t, err)

	assert.Equal(t, ";", cfg.Delimiter)
	assert.Equal(t, 30*time.Minute, time.Duration(cfg.Email.CheckInterval))
	assert.Equal(t, filepath.Join("data", "2021.txt"), cfg.InputPath())
	assert.NotEmpty(t, dcfg.Transform)
	assert.Equal(t, "filter", dcfg.Transform[0].Kind)
	assert.Equal(t, ">", dcfg.Transform[0].Options.String("operator", ""))

	labels, ok := dcfg.GetLabels("modalidade")
	require.True(t, ok)
	assert.Equal(t, "Presencial", labels["1"])
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := writeConfigs(t, `{"input_file": "a.csv"}`, `{}`)

	cfg, dcfg, err := Load(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)
	assert.Equal(t, ",", cfg.Delimiter)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "app.log", cfg.LogName)
	assert.Contains(t, cfg.NaNValues, "NA")
	assert.Empty(t, dcfg.Reports)
}

func TestLoadReportsParseErrors(t *testing.T) {
	dir := writeConfigs(t, `{`, `{"reports": 3}`)

	_, _, err := Load(dir, "config.json", "dataconfig.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse Config")
	assert.Contains(t, err.Error(), "parse DataConfig")
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(t.TempDir(), "config.json", "dataconfig.json")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dc := DataConfig{
		Labels: map[string]map[string]string{"m": {"1": "x"}},
		Reports: []Report{
			{Name: "a", GroupBy: "g", Column: "c", Labels: "m"},
			{Name: "a", GroupBy: "g", Column: "c"},
			{Name: "b", GroupBy: "g", MinSampleSize: -1, Labels: "nope", Order: "up"},
		},
		Charts: []Chart{
			{Name: "c1", Type: "bar", Source: "a"},
			{Name: "c2", Type: "bar", Source: "zzz"},
		},
		Transform: []Transform{{}},
	}
	err := dc.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`duplicate name "a"`,
		"group_by and column are required",
		"min_sample_size",
		`unknown label table "nope"`,
		"order must be asc or desc",
		`unknown source "zzz"`,
		"kind is required",
	} {
		assert.Contains(t, err.Error(), want)
	}

	ok := DataConfig{Reports: []Report{{Name: "a", GroupBy: "g", Column: "c"}}, Charts: []Chart{{Name: "x", Type: "bar", Source: "processed"}}}
	assert.NoError(t, ok.Validate())
}

func TestSetLabels(t *testing.T) {
	var dc DataConfig
	dc.SetLabels("m", map[string]string{"0": "EaD"})
	l, ok := dc.GetLabels("m")
	require.True(t, ok)
	assert.Equal(t, "EaD", l["0"])
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, time.Duration(d))

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
}

func TestOptions(t *testing.T) {
	var tr Transform
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"x","options":{
		"s":"v","b":true,"n":3,"m":{"a":"1","b":2},"l":["x",1,"y"]}}`), &tr))

	o := tr.Options
	assert.Equal(t, "v", o.String("s", ""))
	assert.Equal(t, "d", o.String("missing", "d"))
	assert.True(t, o.Bool("b", false))
	assert.Equal(t, 3, o.Int("n", 0))
	assert.Equal(t, 7, o.Int("s", 7))
	assert.Equal(t, map[string]string{"a": "1"}, o.StringMap("m"))
	assert.Equal(t, []string{"x", "y"}, o.StringSlice("l"))
	assert.Nil(t, o.Any("zzz"))

	var empty Transform
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"x"}`), &empty))
	assert.Equal(t, "", empty.Options.String("s", ""))
}
