package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"EnadeInsights/src/chart"
	"EnadeInsights/src/config"
	"EnadeInsights/src/processor"
	"EnadeInsights/src/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const microdata = `NU_ANO;CO_GRUPO;CO_MODALIDADE;NT_GER;ENEM_NT_MT
2021;1;1;50.5;600
2021;1;1;60.5;
2021;2;0;70;500
2021;2;0;0;550
2021;2;0;80;NA
`

func fixture(t *testing.T) (*config.Config, *config.DataConfig, *storage.Logger) {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		DataDir:   filepath.Join(dir, "data"),
		OutputDir: filepath.Join(dir, "output"),
		InputFile: "2021.txt",
		Delimiter: ";",
		NaNValues: []string{"", "NA"},
	}
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0755))
	require.NoError(t, os.WriteFile(cfg.InputPath(), []byte(microdata), 0644))

	dc := &config.DataConfig{
		Required: []string{"NU_ANO", "CO_GRUPO", "NT_GER"},
		Types:    map[string]string{"NT_GER": "float", "CO_MODALIDADE": "integer"},
		Labels:   map[string]map[string]string{"modalidade": {"0": "EaD", "1": "Presencial"}},
		Transform: []config.Transform{
			{Kind: "filter", Options: config.Options{"column": "NT_GER", "operator": ">", "value": 0}},
			{Kind: "impute", Options: config.Options{"column": "ENEM_NT_MT", "strategy": "median"}},
		},
		Rename: map[string]string{"NT_GER": "NOTA", "CO_MODALIDADE": "MOD"},
		Reports: []config.Report{
			{Name: "por_mod", GroupBy: "MOD", Column: "NOTA", MinSampleSize: 2, Labels: "modalidade"},
			{Name: "bad", GroupBy: "CO_IES", Column: "NOTA"},
		},
		Charts: []config.Chart{
			{Name: "hist", Type: "histogram", Source: "processed", X: "NOTA", Bins: 4},
			{Name: "bar", Type: "bar", Source: "por_mod", X: "MOD", Y: "NOTA"},
			{Name: "ghost", Type: "bar", Source: "bad", X: "a", Y: "b"},
		},
	}

	logger, err := storage.NewLogger(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	logger.SetConsole(io.Discard)
	t.Cleanup(func() { logger.Close() })
	return cfg, dc, logger
}

func TestRunEndToEnd(t *testing.T) {
	cfg, dc, logger := fixture(t)

	s, err := NewRunner(cfg, dc, logger).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, 5, s.Columns)
	assert.Len(t, s.Steps, 3)
	assert.FileExists(t, s.Processed)

	require.Len(t, s.Reports, 1)
	raw, err := os.ReadFile(s.Reports[0].CSV)
	require.NoError(t, err)
	assert.Equal(t, "MOD,NOTA\nEaD,75\nPresencial,55.5\n", string(raw))
	assert.Contains(t, s.ReportErrors, "bad")

	assert.Equal(t, []string{
		filepath.Join(cfg.OutputDir, "charts", "hist.xlsx"),
		filepath.Join(cfg.OutputDir, "charts", "bar.xlsx"),
	}, s.Charts)
	assert.Contains(t, s.ChartErrors, "ghost")

	lines := s.Lines()
	assert.Contains(t, lines, "processed: 4 rows x 5 columns")
	assert.Contains(t, lines, "report por_mod: 2 groups")
	assert.Equal(t, []string{s.Reports[0].CSV}, s.Attachments())
}

func TestRunImputesAfterFilter(t *testing.T) {
	cfg, dc, logger := fixture(t)

	_, err := NewRunner(cfg, dc, logger).Run(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(cfg.OutputDir, "processed.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"NU_ANO,CO_GRUPO,MOD,NOTA,ENEM_NT_MT\n"+
			"2021,1,1,50.5,600\n"+
			"2021,1,1,60.5,550\n"+
			"2021,2,0,70,500\n"+
			"2021,2,0,80,550\n",
		string(raw))
}

func TestRunMissingColumns(t *testing.T) {
	cfg, dc, logger := fixture(t)
	dc.Required = append(dc.Required, "CO_IES", "CO_CURSO")

	_, err := NewRunner(cfg, dc, logger).Run(context.Background())
	var missing *processor.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"CO_IES", "CO_CURSO"}, missing.Columns)
}

func TestRunMissingInput(t *testing.T) {
	cfg, dc, logger := fixture(t)
	cfg.InputFile = "2019.txt"

	_, err := NewRunner(cfg, dc, logger).Run(context.Background())
	assert.Error(t, err)
}

func TestRunPushesSummary(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	cfg, dc, logger := fixture(t)
	cfg.DingTalk.Webhook = srv.URL

	_, err := NewRunner(cfg, dc, logger).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": ',', ";": ';', `\t`: '\t', "tab": '\t', "|": '|'} {
		got, err := parseDelimiter(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := parseDelimiter(";;")
	assert.Error(t, err)
}

func TestBundledConfigIsRunnable(t *testing.T) {
	_, dc, err := config.Load("../../config", "config.json", "dataconfig.json")
	require.NoError(t, err)

	steps, err := processor.BuildPipeline(dc)
	require.NoError(t, err)
	assert.Len(t, steps, len(dc.Transform))

	for _, c := range dc.Charts {
		_, err := chart.NewPlotter(c)
		assert.NoError(t, err, c.Name)
	}
}
