package processor

import (
	"fmt"

	"EnadeInsights/src/table"
)

// Step is one named transformation. Apply never modifies its input and
// returns a new table.
type Step interface {
	Name() string
	Apply(t *table.Table) (*table.Table, error)
}

// Pipeline is an ordered list of steps.
type Pipeline []Step

// Run applies every step in order to a copy of t. The first failing step
// stops the run.
func (p Pipeline) Run(t *table.Table, log Logger) (*table.Table, error) {
	if log == nil {
		log = nopLogger{}
	}
	out := t.Copy()
	for i, s := range p {
		if s == nil {
			continue
		}
		next, err := s.Apply(out)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, s.Name(), err)
		}
		log.Debug("step applied", "step", s.Name(), "rows", next.Nrow(), "cols", next.Ncol())
		out = next
	}
	return out, nil
}

// Names lists the step names in order.
func (p Pipeline) Names() []string {
	out := make([]string, 0, len(p))
	for _, s := range p {
		if s != nil {
			out = append(out, s.Name())
		}
	}
	return out
}

// Logger receives engine diagnostics.
type Logger interface {
	Debug(msg string, args ...any)
	Warning(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warning(string, ...any) {}
