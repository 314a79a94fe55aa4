package table

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column is a named, typed vector of values used to build or extend a Table.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// NewColumn is shorthand for building a Column literal.
func NewColumn(name string, kind Kind, values ...any) Column {
	return Column{Name: name, Kind: kind, Values: values}
}

// Table is an ordered set of uniquely named, row-aligned columns. Every
// column carries a declared Kind beside its gota storage series.
//
// Tables are values: methods never modify the receiver and always return a
// new Table.
type Table struct {
	df    dataframe.DataFrame
	kinds map[string]Kind
}

// New builds a Table from columns. Column names must be unique and all
// columns must have the same length.
func New(cols ...Column) (*Table, error) {
	seen := make(map[string]bool, len(cols))
	list := make([]series.Series, 0, len(cols))
	kinds := make(map[string]Kind, len(cols))
	for i, c := range cols {
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		if i > 0 && len(c.Values) != len(cols[0].Values) {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, len(c.Values), len(cols[0].Values))
		}
		s, err := c.series()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
		kinds[c.Name] = c.Kind
	}
	return &Table{df: newFrame(list), kinds: kinds}, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(cols ...Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromFrame wraps a gota DataFrame. Kinds are inferred from the storage
// types: int series become Integer, float series Float, everything else Text.
// Declared contracts are applied afterwards by converting columns.
func FromFrame(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("invalid dataframe: %w", df.Err)
	}
	list := make([]series.Series, 0, df.Ncol())
	kinds := make(map[string]Kind, df.Ncol())
	for _, name := range df.Names() {
		s := df.Col(name)
		k := kindOfSeries(s.Type())
		if s.Type() != k.SeriesType() {
			s = restore(s, k)
		}
		list = append(list, s)
		kinds[name] = k
	}
	return &Table{df: newFrame(list), kinds: kinds}, nil
}

func newFrame(list []series.Series) dataframe.DataFrame {
	if len(list) == 0 {
		return dataframe.DataFrame{}
	}
	return dataframe.New(list...)
}

// restore rebuilds s with the storage type of k, keeping missing cells
// missing.
func restore(s series.Series, k Kind) series.Series {
	vals := make([]any, s.Len())
	for i := range vals {
		if el := s.Elem(i); !el.IsNA() {
			vals[i] = el.String()
		}
	}
	return series.New(vals, k.SeriesType(), s.Name)
}

func (c Column) series() (series.Series, error) {
	vals := make([]any, len(c.Values))
	for i, v := range c.Values {
		enc, err := encode(c.Kind, v)
		if err != nil {
			return series.Series{}, fmt.Errorf("column %q row %d: %w", c.Name, i, err)
		}
		vals[i] = enc
	}
	return series.New(vals, c.Kind.SeriesType(), c.Name), nil
}

// Frame returns a copy of the backing DataFrame.
func (t *Table) Frame() dataframe.DataFrame {
	return t.df.Copy()
}

// Copy returns an independent deep copy.
func (t *Table) Copy() *Table {
	return &Table{df: t.df.Copy(), kinds: t.Kinds()}
}

func (t *Table) Nrow() int { return t.df.Nrow() }
func (t *Table) Ncol() int { return t.df.Ncol() }

// Names returns the column names in order.
func (t *Table) Names() []string {
	if t.df.Ncol() == 0 {
		return nil
	}
	return t.df.Names()
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.kinds[name]
	return ok
}

// Kind returns the declared kind of a column.
func (t *Table) Kind(name string) (Kind, bool) {
	k, ok := t.kinds[name]
	return k, ok
}

// Kinds returns a copy of the column kind map.
func (t *Table) Kinds() map[string]Kind {
	out := make(map[string]Kind, len(t.kinds))
	for k, v := range t.kinds {
		out[k] = v
	}
	return out
}

// Column returns a column as Go values. ok is false when the column does
// not exist.
func (t *Table) Column(name string) (Column, bool) {
	k, ok := t.kinds[name]
	if !ok {
		return Column{}, false
	}
	s := t.df.Col(name)
	vals := make([]any, s.Len())
	for i := range vals {
		vals[i] = decode(k, s.Elem(i))
	}
	return Column{Name: name, Kind: k, Values: vals}, true
}

// Value returns a single cell, nil when missing or out of range.
func (t *Table) Value(name string, row int) any {
	k, ok := t.kinds[name]
	if !ok || row < 0 || row >= t.Nrow() {
		return nil
	}
	return decode(k, t.df.Col(name).Elem(row))
}

// Floats returns a numeric column as float64, NaN for missing cells.
// Duration values are expressed in seconds.
func (t *Table) Floats(name string) ([]float64, error) {
	k, ok := t.kinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	if !k.Numeric() {
		return nil, fmt.Errorf("column %q is %s, not numeric", name, k)
	}
	return t.df.Col(name).Float(), nil
}

// Missing returns the per-row missing markers of a column.
func (t *Table) Missing(name string) []bool {
	if !t.Has(name) {
		return nil
	}
	return t.df.Col(name).IsNaN()
}

// WithColumn returns a table with c added at the end, or replacing the
// column of the same name in place.
func (t *Table) WithColumn(c Column) (*Table, error) {
	if t.Ncol() > 0 && len(c.Values) != t.Nrow() {
		return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, len(c.Values), t.Nrow())
	}
	s, err := c.series()
	if err != nil {
		return nil, err
	}
	list := make([]series.Series, 0, t.Ncol()+1)
	replaced := false
	for _, name := range t.Names() {
		if name == c.Name {
			list = append(list, s)
			replaced = true
			continue
		}
		list = append(list, t.df.Col(name))
	}
	if !replaced {
		list = append(list, s)
	}
	kinds := t.Kinds()
	kinds[c.Name] = c.Kind
	return &Table{df: newFrame(list), kinds: kinds}, nil
}

// Subset keeps the given rows, in the given order. Every row must be in
// [0, Nrow()).
func (t *Table) Subset(rows []int) (*Table, error) {
	if t.Ncol() == 0 {
		return t.Copy(), nil
	}
	idx := make([]int, len(rows))
	for i, r := range rows {
		if r < 0 || r >= t.Nrow() {
			return nil, fmt.Errorf("row %d out of range [0, %d)", r, t.Nrow())
		}
		idx[i] = r
	}
	df := t.df.Subset(idx)
	if df.Err != nil {
		return nil, fmt.Errorf("subset: %w", df.Err)
	}
	return &Table{df: df, kinds: t.Kinds()}, nil
}

// Filter keeps the rows whose value in column name satisfies keep. Missing
// cells never satisfy the predicate.
func (t *Table) Filter(name string, keep func(v any) bool) (*Table, error) {
	k, ok := t.kinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	if t.Nrow() == 0 {
		return t.Copy(), nil
	}
	df := t.df.Filter(dataframe.F{
		Colname:    name,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			if el.IsNA() {
				return false
			}
			return keep(decode(k, el))
		},
	})
	if df.Err != nil {
		return nil, fmt.Errorf("filter %q: %w", name, df.Err)
	}
	return &Table{df: df, kinds: t.Kinds()}, nil
}

// Rename applies old→new name pairs simultaneously. Names that are not in
// the table are ignored. The result must still have unique names.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	list := make([]series.Series, 0, t.Ncol())
	kinds := make(map[string]Kind, t.Ncol())
	for _, name := range t.Names() {
		s := t.df.Col(name)
		target := name
		if n, ok := mapping[name]; ok {
			target = n
		}
		if _, dup := kinds[target]; dup {
			return nil, fmt.Errorf("rename produces duplicate column %q", target)
		}
		s.Name = target
		list = append(list, s)
		kinds[target] = t.kinds[name]
	}
	return &Table{df: newFrame(list), kinds: kinds}, nil
}

// Select keeps the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	list := make([]series.Series, 0, len(names))
	kinds := make(map[string]Kind, len(names))
	for _, name := range names {
		k, ok := t.kinds[name]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		list = append(list, t.df.Col(name))
		kinds[name] = k
	}
	return &Table{df: newFrame(list), kinds: kinds}, nil
}

// Records returns the header followed by one formatted row per record.
// Missing cells are empty strings.
func (t *Table) Records() [][]string {
	names := t.Names()
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i], _ = t.Column(name)
	}
	out := make([][]string, 0, t.Nrow()+1)
	out = append(out, names)
	for r := 0; r < t.Nrow(); r++ {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = Format(c.Values[r])
		}
		out = append(out, row)
	}
	return out
}

// Equal reports whether both tables have the same columns, kinds and cells.
func (t *Table) Equal(o *Table) bool {
	if t.Nrow() != o.Nrow() || t.Ncol() != o.Ncol() {
		return false
	}
	a, b := t.Records(), o.Records()
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	for name, k := range t.kinds {
		if ok, found := o.kinds[name]; !found || ok != k {
			return false
		}
		ma, mb := t.Missing(name), o.Missing(name)
		for i := range ma {
			if ma[i] != mb[i] {
				return false
			}
		}
	}
	return true
}

func (t *Table) String() string {
	if t.Ncol() == 0 {
		return "[0x0] Table"
	}
	return t.df.String()
}
