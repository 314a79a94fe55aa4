package table

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/series"
)

// Values are exchanged with callers as plain Go values:
//
//	Integer     int
//	Float       float64
//	Text        string
//	Categorical string
//	Datetime    time.Time
//	Duration    time.Duration
//
// A missing cell is nil.

// encode turns a Go value into the element value stored in the backing
// series of a column of kind k.
func encode(k Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch k {
	case Integer:
		switch x := v.(type) {
		case int:
			return x, nil
		case int64:
			return int(x), nil
		case int32:
			return int(x), nil
		}
	case Float:
		switch x := v.(type) {
		case float64:
			if math.IsNaN(x) {
				return nil, nil
			}
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		}
	case Text, Categorical:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Datetime:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(TimeLayout), nil
		}
	case Duration:
		switch x := v.(type) {
		case time.Duration:
			return x.Seconds(), nil
		case float64:
			if math.IsNaN(x) {
				return nil, nil
			}
			return x, nil
		}
	}
	return nil, fmt.Errorf("value %v (%T) does not fit a %s column", v, v, k)
}

// decode reads a stored element back as the Go value of kind k.
func decode(k Kind, el series.Element) any {
	if el.IsNA() {
		return nil
	}
	switch k {
	case Integer:
		i, err := el.Int()
		if err != nil {
			return nil
		}
		return i
	case Float:
		return el.Float()
	case Duration:
		return time.Duration(el.Float() * float64(time.Second))
	case Datetime:
		t, err := time.Parse(TimeLayout, el.String())
		if err != nil {
			return nil
		}
		return t
	default:
		return el.String()
	}
}

// Format renders a value the way it is written to CSV and used as a lookup
// key by label tables. Missing renders as the empty string.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case time.Time:
		return x.UTC().Format(DisplayLayout)
	case time.Duration:
		return strconv.FormatFloat(x.Seconds(), 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Compare orders two non-missing values of the same kind. It returns -1, 0
// or 1.
func Compare(a, b any) int {
	switch x := a.(type) {
	case int:
		return cmpOrdered(x, b.(int))
	case float64:
		return cmpOrdered(x, b.(float64))
	case string:
		return cmpOrdered(x, b.(string))
	case time.Time:
		return x.Compare(b.(time.Time))
	case time.Duration:
		return cmpOrdered(x, b.(time.Duration))
	}
	return cmpOrdered(Format(a), Format(b))
}

func cmpOrdered[T int | float64 | string | time.Duration](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
