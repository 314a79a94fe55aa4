// Package chart renders report tables as native Excel charts. Every chart
// is a workbook whose "data" sheet holds the plotted values and the chart
// object itself.
package chart

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"EnadeInsights/src/config"
	"EnadeInsights/src/datasource/file"
	"EnadeInsights/src/table"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Type 图表类型
type Type int

const (
	Bar Type = iota
	Line
	Scatter
	Histogram
)

const (
	dataSheet   = "data"
	defaultBins = 10
)

var typeNames = map[Type]string{
	Bar:       "bar",
	Line:      "line",
	Scatter:   "scatter",
	Histogram: "histogram",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("chart(%d)", int(t))
}

// ParseType 解析配置中的图表类型
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown chart type %q", s)
}

// Plotter renders one table into a chart workbook at path.
type Plotter interface {
	Plot(t *table.Table, path string) error
}

// NewPlotter builds the plotter described by c.
func NewPlotter(c config.Chart) (Plotter, error) {
	typ, err := ParseType(c.Type)
	if err != nil {
		return nil, err
	}
	if c.X == "" {
		return nil, fmt.Errorf("chart %s: x column is required", c.Name)
	}
	if typ != Histogram && c.Y == "" {
		return nil, fmt.Errorf("chart %s: y column is required for %s", c.Name, typ)
	}
	base := plotter{typ: typ, cfg: c}
	switch typ {
	case Histogram:
		bins := c.Bins
		if bins <= 0 {
			bins = defaultBins
		}
		return &histogramPlotter{plotter: base, bins: bins}, nil
	case Scatter:
		return &scatterPlotter{plotter: base}, nil
	default:
		return &categoryPlotter{plotter: base}, nil
	}
}

type plotter struct {
	typ Type
	cfg config.Chart
}

// categoryPlotter draws bar and line charts: one point per row, X as the
// category label.
type categoryPlotter struct{ plotter }

func (p *categoryPlotter) Plot(t *table.Table, path string) error {
	if err := requireNumeric(t, p.cfg.Y); err != nil {
		return err
	}
	if !t.Has(p.cfg.X) {
		return fmt.Errorf("unknown column %q", p.cfg.X)
	}
	data, err := t.Select(p.cfg.X, p.cfg.Y)
	if err != nil {
		return err
	}
	return p.render(data, path)
}

// scatterPlotter draws X against Y, dropping rows where either is missing.
type scatterPlotter struct{ plotter }

func (p *scatterPlotter) Plot(t *table.Table, path string) error {
	for _, col := range []string{p.cfg.X, p.cfg.Y} {
		if err := requireNumeric(t, col); err != nil {
			return err
		}
	}
	xs, _ := t.Floats(p.cfg.X)
	ys, _ := t.Floats(p.cfg.Y)
	var rows []int
	for i := range xs {
		if !math.IsNaN(xs[i]) && !math.IsNaN(ys[i]) {
			rows = append(rows, i)
		}
	}
	kept, err := t.Subset(rows)
	if err != nil {
		return err
	}
	data, err := kept.Select(p.cfg.X, p.cfg.Y)
	if err != nil {
		return err
	}
	return p.render(data, path)
}

// histogramPlotter counts the observed values of X into equal-width bins.
type histogramPlotter struct {
	plotter
	bins int
}

func (p *histogramPlotter) Plot(t *table.Table, path string) error {
	if err := requireNumeric(t, p.cfg.X); err != nil {
		return err
	}
	xs, _ := t.Floats(p.cfg.X)
	data, err := binTable(xs, p.bins)
	if err != nil {
		return fmt.Errorf("chart %s: %w", p.cfg.Name, err)
	}
	return p.render(data, path)
}

// binTable builds a (bin, count) table. The upper edge of the last bin is
// nudged up so the maximum falls inside it.
func binTable(xs []float64, bins int) (*table.Table, error) {
	obs := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			obs = append(obs, x)
		}
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("no observed values")
	}
	sort.Float64s(obs)

	lo, hi := obs[0], obs[len(obs)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, obs, nil)

	labels := make([]any, bins)
	values := make([]any, bins)
	for i := range counts {
		labels[i] = fmt.Sprintf("[%s, %s)", table.Format(round(dividers[i])), table.Format(round(dividers[i+1])))
		values[i] = int(counts[i])
	}
	return table.New(
		table.NewColumn("bin", table.Text, labels...),
		table.NewColumn("count", table.Integer, values...),
	)
}

func round(x float64) float64 {
	return math.Round(x*100) / 100
}

func requireNumeric(t *table.Table, col string) error {
	k, ok := t.Kind(col)
	if !ok {
		return fmt.Errorf("unknown column %q", col)
	}
	if !k.Numeric() {
		return fmt.Errorf("column %q is %s, not numeric", col, k)
	}
	return nil
}

// render 写入数据表并在其旁边插入图表
func (p plotter) render(data *table.Table, path string) error {
	if data.Nrow() == 0 {
		return fmt.Errorf("chart %s: no rows to plot", p.cfg.Name)
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return err
	}
	if err := file.WriteSheet(f, dataSheet, data); err != nil {
		return err
	}
	if err := f.AddChart(dataSheet, "D2", p.chart(data)); err != nil {
		return fmt.Errorf("chart %s: %w", p.cfg.Name, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存图表文件失败: %w", err)
	}
	return nil
}

func (p plotter) chart(data *table.Table) *excelize.Chart {
	last := data.Nrow() + 1
	names := data.Names()
	c := &excelize.Chart{
		Type: p.excelType(),
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", dataSheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", dataSheet, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", dataSheet, last),
		}},
		Title:     []excelize.RichTextRun{{Text: p.title(names)}},
		Legend:    excelize.ChartLegend{Position: "none"},
		XAxis:     excelize.ChartAxis{Title: axisTitle(p.cfg.XLabel, names[0])},
		YAxis:     excelize.ChartAxis{Title: axisTitle(p.cfg.YLabel, names[1]), MajorGridLines: true},
		Dimension: excelize.ChartDimension{Width: 720, Height: 400},
	}
	if p.typ == Histogram {
		gap := uint(0)
		c.GapWidth = &gap
	}
	return c
}

func (p plotter) excelType() excelize.ChartType {
	switch p.typ {
	case Line:
		return excelize.Line
	case Scatter:
		return excelize.Scatter
	default:
		return excelize.Col
	}
}

func (p plotter) title(names []string) string {
	if p.cfg.Title != "" {
		return p.cfg.Title
	}
	if p.typ == Histogram {
		return "Distribution of " + p.cfg.X
	}
	return fmt.Sprintf("%s by %s", names[1], names[0])
}

func axisTitle(label, fallback string) []excelize.RichTextRun {
	if label == "" {
		label = fallback
	}
	return []excelize.RichTextRun{{Text: label}}
}
