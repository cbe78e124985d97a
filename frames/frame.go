package frames

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Frame is an immutable table. Cell values are nil, bool, int64, float64 or string.
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

func New(columns []string, rows [][]any) (*Frame, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("duplicated column: %s", name)
		}
		index[name] = i
	}
	copied := make([][]any, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d: expecting %d values, got %d", i, len(columns), len(row))
		}
		r := make([]any, len(row))
		for j, v := range row {
			nv, err := Normalize(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i, columns[j], err)
			}
			r[j] = nv
		}
		copied = append(copied, r)
	}
	return &Frame{
		columns: slices.Clone(columns),
		index:   index,
		rows:    copied,
	}, nil
}

func MustNew(columns []string, rows [][]any) *Frame {
	f, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return f
}

func Empty() *Frame {
	return MustNew(nil, nil)
}

// fromNormalized takes ownership of rows whose values are already normalized.
func fromNormalized(columns []string, rows [][]any) *Frame {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}
	return &Frame{
		columns: columns,
		index:   index,
		rows:    rows,
	}
}

func Normalize(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case bool, int64, string:
		return v, nil
	case float64:
		if math.IsNaN(v) {
			return nil, nil
		}
		return v, nil
	case float32:
		return Normalize(float64(v))
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, fmt.Errorf("integer overflow: %d", v)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer overflow: %d", v)
		}
		return int64(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil && !math.IsInf(f, 0) {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func (f *Frame) Columns() []string {
	return slices.Clone(f.columns)
}

func (f *Frame) Len() int {
	return len(f.rows)
}

func (f *Frame) Width() int {
	return len(f.columns)
}

func (f *Frame) ColumnIndex(name string) int {
	if i, ok := f.index[name]; ok {
		return i
	}
	return -1
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Frame) Value(row, col int) any {
	return f.rows[row][col]
}

func (f *Frame) Row(i int) []any {
	return slices.Clone(f.rows[i])
}

func (f *Frame) Column(name string) ([]any, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	ret := make([]any, len(f.rows))
	for j, row := range f.rows {
		ret[j] = row[i]
	}
	return ret, true
}

func (f *Frame) Equal(g *Frame) bool {
	if f == g {
		return true
	}
	if f == nil || g == nil {
		return false
	}
	if !slices.Equal(f.columns, g.columns) || len(f.rows) != len(g.rows) {
		return false
	}
	for i := range f.rows {
		if !slices.Equal(f.rows[i], g.rows[i]) {
			return false
		}
	}
	return true
}

type frameJSON struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func (f *Frame) MarshalJSON() ([]byte, error) {
	columns := f.columns
	if columns == nil {
		columns = []string{}
	}
	rows := make([][]any, len(f.rows))
	for i, row := range f.rows {
		r := make([]any, len(row))
		for j, v := range row {
			if fv, ok := v.(float64); ok {
				r[j] = floatJSON(fv)
			} else {
				r[j] = v
			}
		}
		rows[i] = r
	}
	return json.Marshal(frameJSON{
		Columns: columns,
		Rows:    rows,
	})
}

// floatJSON keeps integral floats distinguishable from ints on the wire.
type floatJSON float64

func (f floatJSON) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte("1e999"), nil
	case math.IsInf(v, -1):
		return []byte("-1e999"), nil
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

func (f *Frame) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var v frameJSON
	if err := decoder.Decode(&v); err != nil {
		return err
	}
	decoded, err := New(v.Columns, v.Rows)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}
