package frames

import (
	"fmt"
	"math"
	"slices"
)

func (f *Frame) Head(n int) *Frame {
	n = max(0, min(n, len(f.rows)))
	return fromNormalized(f.columns, f.rows[:n:n])
}

func (f *Frame) Tail(n int) *Frame {
	n = max(0, min(n, len(f.rows)))
	rows := f.rows[len(f.rows)-n:]
	return fromNormalized(f.columns, rows[:n:n])
}

func (f *Frame) indexes(names []string) ([]int, error) {
	ret := make([]int, 0, len(names))
	for _, name := range names {
		i, ok := f.index[name]
		if !ok {
			return nil, &ColumnNotFoundError{Name: name}
		}
		ret = append(ret, i)
	}
	return ret, nil
}

type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found: %q", e.Name)
}

func (f *Frame) Select(names ...string) (*Frame, error) {
	idx, err := f.indexes(names)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("duplicated column: %s", name)
		}
		seen[name] = true
	}
	rows := make([][]any, len(f.rows))
	for i, row := range f.rows {
		r := make([]any, len(idx))
		for j, k := range idx {
			r[j] = row[k]
		}
		rows[i] = r
	}
	return fromNormalized(slices.Clone(names), rows), nil
}

func (f *Frame) Drop(names ...string) (*Frame, error) {
	if _, err := f.indexes(names); err != nil {
		return nil, err
	}
	var keep []string
	for _, name := range f.columns {
		if !slices.Contains(names, name) {
			keep = append(keep, name)
		}
	}
	return f.Select(keep...)
}

func (f *Frame) Filter(pred func(row []any) (bool, error)) (*Frame, error) {
	var rows [][]any
	for _, row := range f.rows {
		ok, err := pred(row)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return fromNormalized(f.columns, rows), nil
}

// DropNA removes rows holding a null in any of the named columns, or in any column when none is named.
func (f *Frame) DropNA(names ...string) (*Frame, error) {
	idx, err := f.indexes(names)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		idx = make([]int, len(f.columns))
		for i := range idx {
			idx[i] = i
		}
	}
	return f.Filter(func(row []any) (bool, error) {
		for _, i := range idx {
			if isMissing(row[i]) {
				return false, nil
			}
		}
		return true, nil
	})
}

func (f *Frame) FillNA(value any, names ...string) (*Frame, error) {
	value, err := Normalize(value)
	if err != nil {
		return nil, err
	}
	idx, err := f.indexes(names)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		idx = make([]int, len(f.columns))
		for i := range idx {
			idx[i] = i
		}
	}
	rows := make([][]any, len(f.rows))
	for i, row := range f.rows {
		r := slices.Clone(row)
		for _, j := range idx {
			if isMissing(r[j]) {
				r[j] = value
			}
		}
		rows[i] = r
	}
	return fromNormalized(f.columns, rows), nil
}

func (f *Frame) Sort(names []string, reverse bool) (*Frame, error) {
	idx, err := f.indexes(names)
	if err != nil {
		return nil, err
	}
	rows := slices.Clone(f.rows)
	slices.SortStableFunc(rows, func(a, b []any) int {
		for _, i := range idx {
			// nulls stay last in both directions
			an, bn := a[i] == nil, b[i] == nil
			switch {
			case an && bn:
				continue
			case an:
				return 1
			case bn:
				return -1
			}
			c := compareValues(a[i], b[i])
			if reverse {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return fromNormalized(f.columns, rows), nil
}

func (f *Frame) Rename(mapping map[string]string) (*Frame, error) {
	columns := slices.Clone(f.columns)
	for from, to := range mapping {
		i, ok := f.index[from]
		if !ok {
			return nil, &ColumnNotFoundError{Name: from}
		}
		columns[i] = to
	}
	seen := make(map[string]bool)
	for _, name := range columns {
		if seen[name] {
			return nil, fmt.Errorf("duplicated column: %s", name)
		}
		seen[name] = true
	}
	return fromNormalized(columns, f.rows), nil
}

// WithColumn replaces or appends a column.
func (f *Frame) WithColumn(name string, values []any) (*Frame, error) {
	if len(values) != len(f.rows) {
		return nil, fmt.Errorf("column %s: expecting %d values, got %d", name, len(f.rows), len(values))
	}
	normalized := make([]any, len(values))
	for i, v := range values {
		nv, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		normalized[i] = nv
	}
	columns := f.columns
	pos, exists := f.index[name]
	if !exists {
		columns = append(slices.Clone(f.columns), name)
		pos = len(columns) - 1
	}
	rows := make([][]any, len(f.rows))
	for i, row := range f.rows {
		r := make([]any, len(columns))
		copy(r, row)
		r[pos] = normalized[i]
		rows[i] = r
	}
	return fromNormalized(columns, rows), nil
}

func (f *Frame) AppendRows(rows [][]any) (*Frame, error) {
	appended, err := New(f.columns, rows)
	if err != nil {
		return nil, err
	}
	all := make([][]any, 0, len(f.rows)+len(appended.rows))
	all = append(all, f.rows...)
	all = append(all, appended.rows...)
	return fromNormalized(f.columns, all), nil
}

func (f *Frame) Unique(name string) ([]any, error) {
	values, ok := f.Column(name)
	if !ok {
		return nil, &ColumnNotFoundError{Name: name}
	}
	var ret []any
	seen := make(map[any]bool)
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		ret = append(ret, v)
	}
	return ret, nil
}

func (f *Frame) ValueCounts(name string) (*Frame, error) {
	values, ok := f.Column(name)
	if !ok {
		return nil, &ColumnNotFoundError{Name: name}
	}
	counts := make(map[any]int64)
	var order []any
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	slices.SortStableFunc(order, func(a, b any) int {
		return int(counts[b] - counts[a])
	})
	rows := make([][]any, len(order))
	for i, v := range order {
		rows[i] = []any{v, counts[v]}
	}
	return fromNormalized([]string{name, "count"}, rows), nil
}

type Aggregate string

const (
	AggSum   Aggregate = "sum"
	AggMean  Aggregate = "mean"
	AggCount Aggregate = "count"
	AggMin   Aggregate = "min"
	AggMax   Aggregate = "max"
	AggStd   Aggregate = "std"
)

func (f *Frame) Aggregate(name string, agg Aggregate) (any, error) {
	values, ok := f.Column(name)
	if !ok {
		return nil, &ColumnNotFoundError{Name: name}
	}
	return aggregate(values, agg)
}

func aggregate(values []any, agg Aggregate) (any, error) {
	var present []any
	for _, v := range values {
		if !isMissing(v) {
			present = append(present, v)
		}
	}

	switch agg {

	case AggCount:
		return int64(len(present)), nil

	case AggMin, AggMax:
		if len(present) == 0 {
			return nil, nil
		}
		ret := present[0]
		for _, v := range present[1:] {
			if typeRank(v) != typeRank(ret) {
				return nil, fmt.Errorf("%s: cannot compare %T with %T", agg, v, ret)
			}
			c := compareValues(v, ret)
			if agg == AggMin && c < 0 || agg == AggMax && c > 0 {
				ret = v
			}
		}
		return ret, nil

	case AggSum:
		allInt := true
		var isum int64
		var fsum float64
		for _, v := range present {
			switch v := v.(type) {
			case int64:
				isum += v
				fsum += float64(v)
			case float64:
				allInt = false
				fsum += v
			default:
				return nil, fmt.Errorf("sum: non-numeric value %v", FormatValue(v))
			}
		}
		if allInt {
			return isum, nil
		}
		return fsum, nil

	case AggMean, AggStd:
		nums := make([]float64, 0, len(present))
		for _, v := range present {
			x, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("%s: non-numeric value %v", agg, FormatValue(v))
			}
			nums = append(nums, x)
		}
		if agg == AggMean {
			if len(nums) == 0 {
				return nil, nil
			}
			return mean(nums), nil
		}
		if len(nums) < 2 {
			return nil, nil
		}
		return std(nums), nil

	}
	return nil, fmt.Errorf("unknown aggregate: %s", agg)
}

func mean(nums []float64) float64 {
	var sum float64
	for _, x := range nums {
		sum += x
	}
	return sum / float64(len(nums))
}

// std is the sample standard deviation.
func std(nums []float64) float64 {
	m := mean(nums)
	var ss float64
	for _, x := range nums {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(nums)-1))
}

// GroupBy aggregates column by the distinct values of key, in order of first appearance.
func (f *Frame) GroupBy(key string, column string, agg Aggregate) (*Frame, error) {
	idx, err := f.indexes([]string{key, column})
	if err != nil {
		return nil, err
	}
	groups := make(map[any][]any)
	var order []any
	for _, row := range f.rows {
		k := row[idx[0]]
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], row[idx[1]])
	}
	rows := make([][]any, 0, len(order))
	for _, k := range order {
		v, err := aggregate(groups[k], agg)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", FormatValue(k), err)
		}
		rows = append(rows, []any{k, v})
	}
	outName := column
	if outName == key {
		outName = column + "_" + string(agg)
	}
	return fromNormalized([]string{key, outName}, rows), nil
}

// Stats summarizes the numeric columns.
func (f *Frame) Stats() *Frame {
	var rows [][]any
	for _, name := range f.columns {
		values, _ := f.Column(name)
		if columnType(values) != TypeInt && columnType(values) != TypeFloat {
			continue
		}
		row := []any{name}
		for _, agg := range []Aggregate{AggCount, AggMean, AggStd, AggMin, AggMax} {
			v, err := aggregate(values, agg)
			if err != nil {
				v = nil
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return fromNormalized([]string{"column", "count", "mean", "std", "min", "max"}, rows)
}
