package processor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"EnadeInsights/src/table"
	"EnadeInsights/src/utils"
)

// convertValue casts a Go value to the representation of kind k. Blank
// strings become missing. Float to Integer truncates toward zero.
func convertValue(v any, k table.Kind) (any, error) {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	if v == nil {
		return nil, nil
	}
	switch k {
	case table.Integer:
		switch x := v.(type) {
		case int:
			return x, nil
		case int64:
			return int(x), nil
		case float64:
			return truncate(x)
		case time.Duration:
			return int(x / time.Second), nil
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
				return i, nil
			}
			f, err := utils.ParseDecimal(x)
			if err != nil {
				return nil, err
			}
			return truncate(f)
		}
	case table.Float:
		switch x := v.(type) {
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case float64:
			return x, nil
		case time.Duration:
			return x.Seconds(), nil
		case string:
			return utils.ParseDecimal(x)
		}
	case table.Text, table.Categorical:
		return table.Format(v), nil
	case table.Datetime:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case string:
			return utils.ParseTime(x)
		case int:
			return utils.ExcelSerialToTime(float64(x))
		case float64:
			return utils.ExcelSerialToTime(x)
		}
	case table.Duration:
		switch x := v.(type) {
		case time.Duration:
			return x, nil
		case int:
			return time.Duration(x) * time.Second, nil
		case float64:
			return seconds(x), nil
		case string:
			if d, err := time.ParseDuration(strings.TrimSpace(x)); err == nil {
				return d, nil
			}
			f, err := utils.ParseDecimal(x)
			if err != nil {
				return nil, err
			}
			return seconds(f), nil
		}
	}
	return nil, fmt.Errorf("no conversion from %T to %s", v, k)
}

func truncate(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite value %v", f)
	}
	return int(math.Trunc(f)), nil
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// toFloat reads a numeric Go value as float64. Durations are seconds.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case time.Duration:
		return x.Seconds(), true
	}
	return 0, false
}

// operand coerces a filter comparison value to something comparable with
// the cells of a kind-k column. Numeric kinds compare as float64, text
// kinds as strings and Datetime as time.Time.
func operand(v any, k table.Kind) (any, error) {
	switch k {
	case table.Integer, table.Float:
		if f, ok := toFloat(v); ok {
			if _, isDur := v.(time.Duration); !isDur {
				return f, nil
			}
		}
		if s, ok := v.(string); ok {
			return utils.ParseDecimal(s)
		}
	case table.Duration:
		d, err := convertValue(v, table.Duration)
		if err == nil && d != nil {
			return d.(time.Duration).Seconds(), nil
		}
	case table.Text, table.Categorical:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case table.Datetime:
		if _, isNum := toFloat(v); isNum {
			break
		}
		t, err := convertValue(v, table.Datetime)
		if err == nil && t != nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("no comparison between %T and %s", v, k)
}
