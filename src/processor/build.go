package processor

import (
	"fmt"

	"EnadeInsights/src/config"
	"EnadeInsights/src/table"
)

// BuildPipeline turns the configured transform list into steps. Label
// tables referenced by "map" steps are resolved against dc.Labels.
func BuildPipeline(dc *config.DataConfig) (Pipeline, error) {
	var p Pipeline
	for i, tr := range dc.Transform {
		s, err := buildStep(dc, tr)
		if err != nil {
			return nil, fmt.Errorf("transform[%d] %s: %w", i, tr.Kind, err)
		}
		p = append(p, s)
	}
	return p, nil
}

func buildStep(dc *config.DataConfig, tr config.Transform) (Step, error) {
	o := tr.Options
	req := func(keys ...string) error {
		for _, k := range keys {
			if o.String(k, "") == "" {
				return &ConfigurationError{Op: tr.Kind, Reason: fmt.Sprintf("option %q is required", k)}
			}
		}
		return nil
	}

	switch tr.Kind {
	case "filter":
		if err := req("column", "operator"); err != nil {
			return nil, err
		}
		op, err := ParseOperator(o.String("operator", ""))
		if err != nil {
			return nil, err
		}
		if o.Any("value") == nil {
			return nil, &ConfigurationError{Op: tr.Kind, Reason: `option "value" is required`}
		}
		return Filter{Column: o.String("column", ""), Operator: op, Value: o.Any("value")}, nil
	case "impute":
		if err := req("column", "strategy"); err != nil {
			return nil, err
		}
		st, err := ParseStrategy(o.String("strategy", ""))
		if err != nil {
			return nil, err
		}
		return Impute{Column: o.String("column", ""), Strategy: st, Fill: o.Any("value")}, nil
	case "impute_by_group":
		if err := req("column", "group_by"); err != nil {
			return nil, err
		}
		return ImputeByGroup{Target: o.String("column", ""), GroupBy: o.String("group_by", "")}, nil
	case "normalize":
		if err := req("column"); err != nil {
			return nil, err
		}
		return Normalize{Column: o.String("column", "")}, nil
	case "remove_outliers":
		if err := req("column", "group_by"); err != nil {
			return nil, err
		}
		return RemoveOutliers{Column: o.String("column", ""), GroupBy: o.String("group_by", "")}, nil
	case "map":
		mappings := make(map[string]map[string]string)
		for col, name := range o.StringMap("columns") {
			labels, ok := dc.GetLabels(name)
			if !ok {
				return nil, &ConfigurationError{Op: tr.Kind, Reason: fmt.Sprintf("unknown label table %q", name)}
			}
			mappings[col] = labels
		}
		if len(mappings) == 0 {
			return nil, &ConfigurationError{Op: tr.Kind, Reason: `option "columns" is required`}
		}
		return MapColumns{Mappings: mappings}, nil
	case "add_duration":
		if err := req("result", "start", "end"); err != nil {
			return nil, err
		}
		return AddDuration{Result: o.String("result", ""), Start: o.String("start", ""), End: o.String("end", "")}, nil
	case "rename":
		return Rename{Mapping: o.StringMap("mapping")}, nil
	case "convert":
		if err := req("column", "type"); err != nil {
			return nil, err
		}
		k, err := table.ParseKind(o.String("type", ""))
		if err != nil {
			return nil, &ConfigurationError{Op: tr.Kind, Reason: err.Error()}
		}
		return Convert{Column: o.String("column", ""), Target: k}, nil
	}
	return nil, &ConfigurationError{Op: "transform", Reason: fmt.Sprintf("unknown kind %q", tr.Kind)}
}
