package processor

import (
	"fmt"
	"sort"
	"strings"

	"EnadeInsights/src/table"
)

// Rename renames columns. Names not present are ignored.
type Rename struct {
	Mapping map[string]string
}

func (s Rename) Name() string { return fmt.Sprintf("rename(%d)", len(s.Mapping)) }

func (s Rename) Apply(t *table.Table) (*table.Table, error) {
	out, err := t.Rename(s.Mapping)
	if err != nil {
		return nil, &ConfigurationError{Op: "rename", Reason: err.Error()}
	}
	return out, nil
}

// Convert casts a column to another kind. Any cell that cannot be
// represented fails the whole step.
type Convert struct {
	Column string
	Target table.Kind
}

func (s Convert) Name() string { return fmt.Sprintf("convert(%s,%s)", s.Column, s.Target) }

func (s Convert) Apply(t *table.Table) (*table.Table, error) {
	if err := missingColumns(t, s.Column); err != nil {
		return nil, err
	}
	c, _ := t.Column(s.Column)
	if c.Kind == s.Target {
		return t.Copy(), nil
	}
	out := table.Column{Name: s.Column, Kind: s.Target, Values: make([]any, len(c.Values))}
	for i, v := range c.Values {
		cv, err := convertValue(v, s.Target)
		if err != nil {
			return nil, &TypeConversionError{Column: s.Column, Row: i, Value: v, Target: s.Target}
		}
		out.Values[i] = cv
	}
	return t.WithColumn(out)
}

// MapColumns replaces the values of each listed column through its label
// table. Values without a label become missing. Columns not present are
// skipped. Keys are the text form of the values, e.g. "1", "2.5", "abc".
type MapColumns struct {
	Mappings map[string]map[string]string
}

func (s MapColumns) Name() string {
	cols := s.columns()
	return fmt.Sprintf("map(%s)", strings.Join(cols, ","))
}

func (s MapColumns) columns() []string {
	cols := make([]string, 0, len(s.Mappings))
	for c := range s.Mappings {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func (s MapColumns) Apply(t *table.Table) (*table.Table, error) {
	out := t.Copy()
	for _, name := range s.columns() {
		c, ok := out.Column(name)
		if !ok {
			continue
		}
		labels := s.Mappings[name]
		mapped := table.Column{Name: name, Kind: table.Categorical, Values: make([]any, len(c.Values))}
		for i, v := range c.Values {
			if v == nil {
				continue
			}
			if l, ok := labels[table.Format(v)]; ok {
				mapped.Values[i] = l
			}
		}
		var err error
		if out, err = out.WithColumn(mapped); err != nil {
			return nil, err
		}
	}
	return out, nil
}
