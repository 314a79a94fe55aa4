package table

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/series"
)

// Kind is the logical type of a column.
type Kind int

const (
	Integer Kind = iota
	Float
	Text
	Categorical
	Datetime
	Duration
)

// TimeLayout is the storage layout of Datetime cells. Cells are stored in UTC
// at fixed width, so lexicographic order matches chronological order.
const TimeLayout = "2006-01-02 15:04:05.000000000"

// DisplayLayout renders Datetime values in CSV output and lookup keys.
// Trailing zero fractions are dropped.
const DisplayLayout = "2006-01-02 15:04:05.999999999"

var kindNames = map[Kind]string{
	Integer:     "integer",
	Float:       "float",
	Text:        "text",
	Categorical: "categorical",
	Datetime:    "datetime",
	Duration:    "duration",
}

var kindAliases = map[string]Kind{
	"integer":     Integer,
	"int":         Integer,
	"float":       Float,
	"double":      Float,
	"number":      Float,
	"text":        Text,
	"string":      Text,
	"str":         Text,
	"categorical": Categorical,
	"category":    Categorical,
	"datetime":    Datetime,
	"date":        Datetime,
	"duration":    Duration,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a configuration tag to a Kind.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown column kind %q", s)
}

// Numeric reports whether arithmetic statistics apply to the kind.
func (k Kind) Numeric() bool {
	return k == Integer || k == Float || k == Duration
}

// Ordered reports whether values of the kind have a natural order usable by
// range comparisons.
func (k Kind) Ordered() bool {
	return k != Categorical
}

// SeriesType is the gota storage type backing the kind.
func (k Kind) SeriesType() series.Type {
	switch k {
	case Integer:
		return series.Int
	case Float, Duration:
		return series.Float
	default:
		return series.String
	}
}

func kindOfSeries(t series.Type) Kind {
	switch t {
	case series.Int:
		return Integer
	case series.Float:
		return Float
	default:
		return Text
	}
}
