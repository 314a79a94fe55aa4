// Package report turns the processed dataset into the configured group
// summaries and persists each one as CSV and XLSX.
package report

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"

	"EnadeInsights/src/config"
	"EnadeInsights/src/datasource/file"
	"EnadeInsights/src/processor"
	"EnadeInsights/src/table"
)

// Result 单个报告的输出
type Result struct {
	Name  string
	Table *table.Table
	CSV   string
	XLSX  string
}

// Build 计算单个报告: 稳健分组均值 -> 标签映射 -> 排序 -> 截取前N
func Build(t *table.Table, r config.Report, labels map[string]string, log processor.Logger) (*table.Table, error) {
	out, err := processor.RobustGroupAggregation(t, r.GroupBy, r.Column, r.MinSampleSize, log)
	if err != nil {
		return nil, err
	}
	if labels != nil {
		out, err = processor.MapColumns{Mappings: map[string]map[string]string{r.GroupBy: labels}}.Apply(out)
		if err != nil {
			return nil, err
		}
	}

	valueCol := out.Names()[1]
	if r.Order != "" {
		out, err = orderBy(out, valueCol, r.Order == "desc")
		if err != nil {
			return nil, err
		}
	}
	if r.Top > 0 && out.Nrow() > r.Top {
		rows := make([]int, r.Top)
		for i := range rows {
			rows[i] = i
		}
		if out, err = out.Subset(rows); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// orderBy sorts rows by a numeric column. Missing values go last in both
// directions; ties keep their key order.
func orderBy(t *table.Table, col string, desc bool) (*table.Table, error) {
	xs, err := t.Floats(col)
	if err != nil {
		return nil, err
	}
	rows := make([]int, len(xs))
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := xs[rows[i]], xs[rows[j]]
		switch {
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case desc:
			return a > b
		default:
			return a < b
		}
	})
	return t.Subset(rows)
}

// Write 保存报告为 <dir>/<name>.csv 和 <dir>/<name>.xlsx
func Write(t *table.Table, dir, name string) (Result, error) {
	res := Result{
		Name:  name,
		Table: t,
		CSV:   filepath.Join(dir, name+".csv"),
		XLSX:  filepath.Join(dir, name+".xlsx"),
	}
	if err := file.SaveCSV(t, res.CSV); err != nil {
		return res, err
	}
	if err := file.SaveXLSX(t, res.XLSX, name); err != nil {
		return res, err
	}
	return res, nil
}

// Generate 生成所有配置的报告。单个报告失败不影响其余报告，
// 失败信息按报告名返回。
func Generate(t *table.Table, dc *config.DataConfig, dir string, log processor.Logger) ([]Result, map[string]error) {
	var results []Result
	failed := make(map[string]error)
	for _, r := range dc.Reports {
		var labels map[string]string
		if r.Labels != "" {
			l, ok := dc.GetLabels(r.Labels)
			if !ok {
				failed[r.Name] = fmt.Errorf("unknown label table %q", r.Labels)
				continue
			}
			labels = l
		}

		out, err := Build(t, r, labels, log)
		if err != nil {
			failed[r.Name] = err
			continue
		}
		res, err := Write(out, dir, r.Name)
		if err != nil {
			failed[r.Name] = err
			continue
		}
		results = append(results, res)
	}
	return results, failed
}
