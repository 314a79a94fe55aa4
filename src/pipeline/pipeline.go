// Package pipeline runs one full pass over the dataset: load, validate,
// transform, rename, persist, report, chart and notify.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"EnadeInsights/src/chart"
	"EnadeInsights/src/config"
	"EnadeInsights/src/datapush"
	"EnadeInsights/src/datasource/email"
	"EnadeInsights/src/datasource/file"
	"EnadeInsights/src/processor"
	"EnadeInsights/src/report"
	"EnadeInsights/src/storage"
	"EnadeInsights/src/table"
	"EnadeInsights/src/validator"
)

const (
	ProcessedName = "processed"
	chartDir      = "charts"
)

// Summary 单次运行的结果
type Summary struct {
	Input        string
	Rows         int
	Columns      int
	Steps        []string
	Processed    string
	Reports      []report.Result
	ReportErrors map[string]error
	Charts       []string
	ChartErrors  map[string]error
	Elapsed      time.Duration
}

// Lines renders the summary for notifications, failures last.
func (s *Summary) Lines() []string {
	lines := []string{
		fmt.Sprintf("input: %s", filepath.Base(s.Input)),
		fmt.Sprintf("processed: %d rows x %d columns", s.Rows, s.Columns),
		fmt.Sprintf("steps: %s", strings.Join(s.Steps, " -> ")),
	}
	for _, r := range s.Reports {
		lines = append(lines, fmt.Sprintf("report %s: %d groups", r.Name, r.Table.Nrow()))
	}
	lines = append(lines, fmt.Sprintf("charts: %d", len(s.Charts)))
	for _, name := range sortedKeys(s.ReportErrors) {
		lines = append(lines, fmt.Sprintf("report %s failed: %v", name, s.ReportErrors[name]))
	}
	for _, name := range sortedKeys(s.ChartErrors) {
		lines = append(lines, fmt.Sprintf("chart %s failed: %v", name, s.ChartErrors[name]))
	}
	lines = append(lines, fmt.Sprintf("elapsed: %v", s.Elapsed.Round(time.Millisecond)))
	return lines
}

// Attachments lists the report CSV files.
func (s *Summary) Attachments() []string {
	out := make([]string, 0, len(s.Reports))
	for _, r := range s.Reports {
		out = append(out, r.CSV)
	}
	return out
}

// Runner 串行执行流水线，定时任务与文件监听共用同一个 Runner
type Runner struct {
	cfg    *config.Config
	dc     *config.DataConfig
	logger *storage.Logger
	pusher *datapush.Pusher
	mu     sync.Mutex
}

func NewRunner(cfg *config.Config, dc *config.DataConfig, logger *storage.Logger) *Runner {
	r := &Runner{cfg: cfg, dc: dc, logger: logger}
	if cfg.DingTalk.Webhook != "" {
		r.pusher = datapush.NewPusher(cfg.DingTalk.Webhook, cfg.DingTalk.Title)
	}
	return r
}

// Run processes the configured input file.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	return r.RunFile(ctx, r.cfg.InputPath())
}

// RunFile processes the dataset at path. Report and chart failures are
// recorded in the summary; every other failure aborts the run.
func (r *Runner) RunFile(ctx context.Context, path string) (*Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	if r.cfg.LogMaxSize != "" {
		if err := r.logger.CheckRotate(r.cfg.LogMaxSize); err != nil {
			r.logger.Warning("log rotation failed", "error", err)
		}
	}
	r.logger.Info("pipeline started", "input", path)

	processed, steps, err := r.process(path)
	if err != nil {
		r.logger.Error("pipeline failed", "input", path, "error", err)
		return nil, err
	}

	s := &Summary{
		Input:     path,
		Rows:      processed.Nrow(),
		Columns:   processed.Ncol(),
		Steps:     steps,
		Processed: filepath.Join(r.cfg.OutputDir, ProcessedName+".csv"),
	}
	if err := file.SaveCSV(processed, s.Processed); err != nil {
		return nil, fmt.Errorf("save processed data: %w", err)
	}

	s.Reports, s.ReportErrors = report.Generate(processed, r.dc, r.cfg.OutputDir, r.logger)
	for _, name := range sortedKeys(s.ReportErrors) {
		r.logger.Error("report failed", "report", name, "error", s.ReportErrors[name])
	}

	s.Charts, s.ChartErrors = r.charts(s)
	for _, name := range sortedKeys(s.ChartErrors) {
		r.logger.Error("chart failed", "chart", name, "error", s.ChartErrors[name])
	}

	s.Elapsed = time.Since(start)
	r.logger.Info("pipeline finished", "rows", s.Rows, "reports", len(s.Reports),
		"charts", len(s.Charts), "elapsed", s.Elapsed)

	r.notify(ctx, s)
	return s, nil
}

// process loads, validates, transforms and renames the dataset.
func (r *Runner) process(path string) (*table.Table, []string, error) {
	opts, err := r.loadOptions()
	if err != nil {
		return nil, nil, err
	}
	raw, err := file.LoadTable(path, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("load: %w", err)
	}
	r.logger.Info("dataset loaded", "rows", raw.Nrow(), "columns", raw.Ncol())

	valid, err := validator.Validate(raw, r.dc.Required, r.dc.Types)
	if err != nil {
		return nil, nil, fmt.Errorf("validate: %w", err)
	}

	steps, err := processor.BuildPipeline(r.dc)
	if err != nil {
		return nil, nil, err
	}
	p := processor.New(valid, processor.WithLogger(r.logger)).Apply(steps...)
	if len(r.dc.Rename) > 0 {
		p = p.RenameColumns(r.dc.Rename)
	}
	out, err := p.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("transform: %w", err)
	}
	return out, p.Steps().Names(), nil
}

func (r *Runner) loadOptions() (file.LoadOptions, error) {
	delim, err := parseDelimiter(r.cfg.Delimiter)
	if err != nil {
		return file.LoadOptions{}, err
	}
	return file.LoadOptions{
		Delimiter: delim,
		Encoding:  r.cfg.Encoding,
		NaNValues: r.cfg.NaNValues,
		SheetName: r.cfg.SheetName,
	}, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	d, _ := utf8.DecodeRuneInString(s)
	return d, nil
}

// charts renders every configured chart from the files written by this run.
func (r *Runner) charts(s *Summary) ([]string, map[string]error) {
	sources := map[string]string{ProcessedName: s.Processed}
	for _, rep := range s.Reports {
		sources[rep.Name] = rep.CSV
	}

	var written []string
	failed := make(map[string]error)
	for _, c := range r.dc.Charts {
		src := c.Source
		if src == "" {
			src = ProcessedName
		}
		path, ok := sources[src]
		if !ok {
			failed[c.Name] = fmt.Errorf("source %q was not produced", src)
			continue
		}
		p, err := chart.NewPlotter(c)
		if err != nil {
			failed[c.Name] = err
			continue
		}
		data, err := file.LoadTable(path, file.LoadOptions{NaNValues: []string{""}})
		if err != nil {
			failed[c.Name] = err
			continue
		}
		out := filepath.Join(r.cfg.OutputDir, chartDir, c.Name+".xlsx")
		if err := p.Plot(data, out); err != nil {
			failed[c.Name] = err
			continue
		}
		written = append(written, out)
	}
	return written, failed
}

func (r *Runner) notify(ctx context.Context, s *Summary) {
	var errs []error
	if r.cfg.SendEmail.Enabled {
		body := strings.Join(s.Lines(), "\n")
		if err := email.SendReport(r.cfg, body, s.Attachments()); err != nil {
			errs = append(errs, err)
		}
	}
	if r.pusher != nil {
		if err := r.pusher.Push(ctx, s.Lines()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		r.logger.Warning("notification failed", "error", err)
	}
}

func sortedKeys(m map[string]error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
