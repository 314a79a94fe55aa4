// data.go
package processor

import (
	"fmt"

	"EnadeInsights/src/table"
)

// DataProcessor is a fluent wrapper around a Pipeline. Each call applies one
// step to the processor's own copy of the table. The first failing step is
// recorded and every later call becomes a no-op; Err and Build report it.
//
// A DataProcessor is not safe for concurrent use.
type DataProcessor struct {
	t     *table.Table
	steps Pipeline
	err   error
	log   Logger
}

// Option configures a DataProcessor.
type Option func(*DataProcessor)

// WithLogger routes engine diagnostics to l.
func WithLogger(l Logger) Option {
	return func(p *DataProcessor) {
		if l != nil {
			p.log = l
		}
	}
}

// New 创建数据处理器
// 参数:
//
//	t: 输入表，处理器持有其深拷贝
//	opts: 可选配置
func New(t *table.Table, opts ...Option) *DataProcessor {
	p := &DataProcessor{t: t.Copy(), log: nopLogger{}}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Apply runs steps in order against the current table.
func (p *DataProcessor) Apply(steps ...Step) *DataProcessor {
	for _, s := range steps {
		if p.err != nil {
			return p
		}
		out, err := s.Apply(p.t)
		if err != nil {
			p.err = fmt.Errorf("%s: %w", s.Name(), err)
			p.log.Warning("step failed", "step", s.Name(), "error", err)
			return p
		}
		p.log.Debug("step applied", "step", s.Name(), "rows", out.Nrow())
		p.t = out
		p.steps = append(p.steps, s)
	}
	return p
}

// HandleMissingValues fills gaps in column. fill is required by the
// Constant strategy and ignored otherwise.
func (p *DataProcessor) HandleMissingValues(column string, strategy Strategy, fill ...any) *DataProcessor {
	s := Impute{Column: column, Strategy: strategy}
	if len(fill) > 0 {
		s.Fill = fill[0]
	}
	return p.Apply(s)
}

func (p *DataProcessor) ImputeByGroupMean(target, groupBy string) *DataProcessor {
	return p.Apply(ImputeByGroup{Target: target, GroupBy: groupBy})
}

func (p *DataProcessor) NormalizeColumn(column string) *DataProcessor {
	return p.Apply(Normalize{Column: column})
}

func (p *DataProcessor) FilterRows(column string, op Operator, value any) *DataProcessor {
	return p.Apply(Filter{Column: column, Operator: op, Value: value})
}

func (p *DataProcessor) RenameColumns(mapping map[string]string) *DataProcessor {
	return p.Apply(Rename{Mapping: mapping})
}

func (p *DataProcessor) ConvertType(column string, kind table.Kind) *DataProcessor {
	return p.Apply(Convert{Column: column, Target: kind})
}

func (p *DataProcessor) MapColumns(mappings map[string]map[string]string) *DataProcessor {
	return p.Apply(MapColumns{Mappings: mappings})
}

func (p *DataProcessor) AddDurationColumn(result, start, end string) *DataProcessor {
	return p.Apply(AddDuration{Result: result, Start: start, End: end})
}

func (p *DataProcessor) RemoveOutliersByGroup(column, groupBy string) *DataProcessor {
	return p.Apply(RemoveOutliers{Column: column, GroupBy: groupBy})
}

// GetRobustGroupAggregation summarises the current table without changing
// it. See RobustGroupAggregation.
func (p *DataProcessor) GetRobustGroupAggregation(groupBy, aggCol string, minSampleSize int) (*table.Table, error) {
	if p.err != nil {
		return nil, p.err
	}
	return RobustGroupAggregation(p.t, groupBy, aggCol, minSampleSize, p.log)
}

// Err returns the first error recorded by the chain.
func (p *DataProcessor) Err() error { return p.err }

// Steps returns the steps applied so far. Replaying them with Pipeline.Run
// on the original input reproduces the current table.
func (p *DataProcessor) Steps() Pipeline {
	out := make(Pipeline, len(p.steps))
	copy(out, p.steps)
	return out
}

// Build returns an independent snapshot of the current table.
func (p *DataProcessor) Build() (*table.Table, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.t.Copy(), nil
}
