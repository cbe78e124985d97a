package frames

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Table is the Starlark view of a Frame. Methods return new tables; item assignment
// swaps the underlying frame and never touches the previous one.
type Table struct {
	frame  *Frame
	frozen bool
}

var (
	_ starlark.Value      = new(Table)
	_ starlark.HasAttrs   = new(Table)
	_ starlark.Mapping    = new(Table)
	_ starlark.HasSetKey  = new(Table)
	_ starlark.Sequence   = new(Table)
	_ starlark.Comparable = new(Table)
)

func NewTable(f *Frame) *Table {
	return &Table{
		frame: f,
	}
}

func (t *Table) Frame() *Frame {
	return t.frame
}

func (t *Table) String() string {
	return fmt.Sprintf("<table %d rows x %d columns>", t.frame.Len(), t.frame.Width())
}

func (t *Table) Type() string {
	return "table"
}

func (t *Table) Freeze() {
	t.frozen = true
}

func (t *Table) Truth() starlark.Bool {
	return t.frame.Len() > 0
}

func (t *Table) Hash() (uint32, error) {
	return 0, errors.New("unhashable type: table")
}

func (t *Table) Len() int {
	return t.frame.Len()
}

func (t *Table) CompareSameType(op syntax.Token, y starlark.Value, depth int) (bool, error) {
	other := y.(*Table)
	switch op {
	case syntax.EQL:
		return t.frame.Equal(other.frame), nil
	case syntax.NEQ:
		return !t.frame.Equal(other.frame), nil
	}
	return false, fmt.Errorf("%s %s %s not implemented", t.Type(), op, y.Type())
}

func (t *Table) Iterate() starlark.Iterator {
	return &rowIterator{
		table: t,
	}
}

type rowIterator struct {
	table *Table
	i     int
}

func (it *rowIterator) Next(p *starlark.Value) bool {
	if it.i >= it.table.frame.Len() {
		return false
	}
	*p = rowDict(it.table.frame.columns, it.table.frame.rows[it.i])
	it.i++
	return true
}

func (it *rowIterator) Done() {}

func rowDict(columns []string, row []any) *starlark.Dict {
	d := starlark.NewDict(len(columns))
	for i, name := range columns {
		_ = d.SetKey(starlark.String(name), ToStarlark(row[i]))
	}
	return d
}

func columnList(values []any) *starlark.List {
	elems := make([]starlark.Value, len(values))
	for i, v := range values {
		elems[i] = ToStarlark(v)
	}
	return starlark.NewList(elems)
}

func (t *Table) Get(k starlark.Value) (starlark.Value, bool, error) {
	switch k := k.(type) {
	case starlark.String:
		values, ok := t.frame.Column(string(k))
		if !ok {
			return nil, false, &ColumnNotFoundError{Name: string(k)}
		}
		return columnList(values), true, nil
	case *starlark.List, starlark.Tuple:
		names, err := toStrings(k)
		if err != nil {
			return nil, false, err
		}
		f, err := t.frame.Select(names...)
		if err != nil {
			return nil, false, err
		}
		return NewTable(f), true, nil
	}
	return nil, false, fmt.Errorf("table index must be a column name or a list of names, got %s", k.Type())
}

func (t *Table) SetKey(k, v starlark.Value) error {
	if t.frozen {
		return errors.New("cannot assign to a frozen table")
	}
	name, ok := starlark.AsString(k)
	if !ok {
		return fmt.Errorf("table column name must be string, got %s", k.Type())
	}
	values, err := t.broadcast(v)
	if err != nil {
		return err
	}
	f, err := t.frame.WithColumn(name, values)
	if err != nil {
		return err
	}
	t.frame = f
	return nil
}

func (t *Table) broadcast(v starlark.Value) ([]any, error) {
	n := t.frame.Len()
	switch v := v.(type) {
	case *starlark.List, starlark.Tuple:
		iterable := v.(starlark.Indexable)
		if iterable.Len() != n {
			return nil, fmt.Errorf("expecting %d values, got %d", n, iterable.Len())
		}
		ret := make([]any, n)
		for i := range n {
			value, err := FromStarlark(iterable.Index(i))
			if err != nil {
				return nil, err
			}
			ret[i] = value
		}
		return ret, nil
	}
	value, err := FromStarlark(v)
	if err != nil {
		return nil, err
	}
	ret := make([]any, n)
	for i := range ret {
		ret[i] = value
	}
	return ret, nil
}

func toStrings(v starlark.Value) ([]string, error) {
	if s, ok := starlark.AsString(v); ok {
		return []string{s}, nil
	}
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("expecting string or list of strings, got %s", v.Type())
	}
	var ret []string
	iter := iterable.Iterate()
	defer iter.Done()
	var elem starlark.Value
	for iter.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return nil, fmt.Errorf("expecting string, got %s", elem.Type())
		}
		ret = append(ret, s)
	}
	return ret, nil
}

func namesFromArgs(args starlark.Tuple) ([]string, error) {
	if len(args) == 1 {
		if _, ok := args[0].(starlark.String); !ok {
			return toStrings(args[0])
		}
	}
	var ret []string
	for _, arg := range args {
		s, ok := starlark.AsString(arg)
		if !ok {
			return nil, fmt.Errorf("expecting column name, got %s", arg.Type())
		}
		ret = append(ret, s)
	}
	return ret, nil
}

type tableMethod func(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

var tableMethods = map[string]tableMethod{
	"head":         tableHead,
	"tail":         tableTail,
	"filter":       tableFilter,
	"query":        tableQuery,
	"select":       tableSelect,
	"drop":         tableDrop,
	"dropna":       tableDropNA,
	"fillna":       tableFillNA,
	"sort":         tableSort,
	"rename":       tableRename,
	"with_column":  tableWithColumn,
	"map":          tableMap,
	"rows":         tableRows,
	"column":       tableColumn,
	"unique":       tableUnique,
	"count":        tableCount,
	"sum":          tableAggregate(AggSum),
	"mean":         tableAggregate(AggMean),
	"min":          tableAggregate(AggMin),
	"max":          tableAggregate(AggMax),
	"std":          tableAggregate(AggStd),
	"group":        tableGroup,
	"value_counts": tableValueCounts,
	"describe":     tableDescribe,
	"append":       tableAppend,
}

func (t *Table) Attr(name string) (starlark.Value, error) {
	switch name {
	case "columns":
		names := t.frame.Columns()
		elems := make([]starlark.Value, len(names))
		for i, name := range names {
			elems[i] = starlark.String(name)
		}
		return starlark.NewList(elems), nil
	case "shape":
		return starlark.Tuple{
			starlark.MakeInt(t.frame.Len()),
			starlark.MakeInt(t.frame.Width()),
		}, nil
	}
	method, ok := tableMethods[name]
	if !ok {
		return nil, nil
	}
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		return method(thread, b.Receiver().(*Table), b, args, kwargs)
	}).BindReceiver(t), nil
}

func (t *Table) AttrNames() []string {
	names := []string{"columns", "shape"}
	for name := range tableMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func tableHead(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 5
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	return NewTable(t.frame.Head(n)), nil
}

func tableTail(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 5
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	return NewTable(t.frame.Tail(n)), nil
}

func tableFilter(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Callable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "fn", &fn); err != nil {
		return nil, err
	}
	columns := t.frame.columns
	f, err := t.frame.Filter(func(row []any) (bool, error) {
		ret, err := starlark.Call(thread, fn, starlark.Tuple{rowDict(columns, row)}, nil)
		if err != nil {
			return false, err
		}
		return bool(ret.Truth()), nil
	})
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func tableQuery(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var query string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "expr", &query); err != nil {
		return nil, err
	}
	f, err := t.frame.Query(query)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

// Query keeps the rows for which the boolean expression holds. Columns are bound by name.
func (f *Frame) Query(query string) (*Frame, error) {
	program, err := expr.Compile(query, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	env := make(map[string]any, len(f.columns))
	return f.Filter(func(row []any) (bool, error) {
		for i, name := range f.columns {
			env[name] = row[i]
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return false, fmt.Errorf("query: %w", err)
		}
		ok, isBool := out.(bool)
		if !isBool {
			return false, fmt.Errorf("query must evaluate to bool, got %T", out)
		}
		return ok, nil
	})
}

func tableSelect(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	names, err := namesFromArgs(args)
	if err != nil {
		return nil, err
	}
	f, err := t.frame.Select(names...)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func tableDrop(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	names, err := namesFromArgs(args)
	if err != nil {
		return nil, err
	}
	f, err := t.frame.Drop(names...)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func optionalNames(v starlark.Value) ([]string, error) {
	if v == nil || v == starlark.None {
		return nil, nil
	}
	return toStrings(v)
}

func tableDropNA(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var subset starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "subset?", &subset); err != nil {
		return nil, err
	}
	names, err := optionalNames(subset)
	if err != nil {
		return nil, err
	}
	f, err := t.frame.DropNA(names...)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func tableFillNA(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value, subset starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "value", &value, "subset?", &subset); err != nil {
		return nil, err
	}
	v, err := FromStarlark(value)
	if err != nil {
		return nil, err
	}
	names, err := optionalNames(subset)
	if err != nil {
		return nil, err
	}
	f, err := t.frame.FillNA(v, names...)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func tableSort(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var by starlark.Value
	var reverse bool
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "by", &by, "reverse?", &reverse); err != nil {
		return nil, err
	}
	names, err := toStrings(by)
	if err != nil {
		return nil, err
	}
	f, err := t.frame.Sort(names, reverse)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func tableRename(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	mapping := make(map[string]string)
	if len(args) > 1 {
		return nil, fmt.Errorf("%s: expecting at most one positional argument", b.Name())
	}
	if len(args) == 1 {
		d, ok := args[0].(*starlark.Dict)
		if !ok {
			return nil, fmt.Errorf("%s: expecting dict, got %s", b.Name(), args[0].Type())
		}
		for _, item := range d.Items() {
			from, ok1 := starlark.AsString(item[0])
			to, ok2 := starlark.AsString(item[1])
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("%s: mapping must be string to string", b.Name())
			}
			mapping[from] = to
		}
	}
	for _, kv := range kwargs {
		to, ok := starlark.AsString(kv[1])
		if !ok {
			return nil, fmt.Errorf("%s: new name must be string", b.Name())
		}
		mapping[string(kv[0].(starlark.String))] = to
	}
	f, err := t.frame.Rename(mapping)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func tableWithColumn(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var value starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "value", &value); err != nil {
		return nil, err
	}
	var values []any
	if fn, ok := value.(starlark.Callable); ok {
		values = make([]any, t.frame.Len())
		for i, row := range t.frame.rows {
			ret, err := starlark.Call(thread, fn, starlark.Tuple{rowDict(t.frame.columns, row)}, nil)
			if err != nil {
				return nil, err
			}
			v, err := FromStarlark(ret)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", b.Name(), i, err)
			}
			values[i] = v
		}
	} else {
		var err error
		values, err = t.broadcast(value)
		if err != nil {
			return nil, err
		}
	}
	f, err := t.frame.WithColumn(name, values)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func tableMap(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var fn starlark.Callable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "column", &name, "fn", &fn); err != nil {
		return nil, err
	}
	values, ok := t.frame.Column(name)
	if !ok {
		return nil, &ColumnNotFoundError{Name: name}
	}
	for i, v := range values {
		ret, err := starlark.Call(thread, fn, starlark.Tuple{ToStarlark(v)}, nil)
		if err != nil {
			return nil, err
		}
		if values[i], err = FromStarlark(ret); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", b.Name(), i, err)
		}
	}
	f, err := t.frame.WithColumn(name, values)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func tableRows(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	elems := make([]starlark.Value, t.frame.Len())
	for i, row := range t.frame.rows {
		elems[i] = rowDict(t.frame.columns, row)
	}
	return starlark.NewList(elems), nil
}

func tableColumn(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}
	values, ok := t.frame.Column(name)
	if !ok {
		return nil, &ColumnNotFoundError{Name: name}
	}
	return columnList(values), nil
}

func tableUnique(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "column", &name); err != nil {
		return nil, err
	}
	values, err := t.frame.Unique(name)
	if err != nil {
		return nil, err
	}
	return columnList(values), nil
}

func tableCount(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "column?", &name); err != nil {
		return nil, err
	}
	if name == "" {
		return starlark.MakeInt(t.frame.Len()), nil
	}
	v, err := t.frame.Aggregate(name, AggCount)
	if err != nil {
		return nil, err
	}
	return ToStarlark(v), nil
}

func tableAggregate(agg Aggregate) tableMethod {
	return func(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "column", &name); err != nil {
			return nil, err
		}
		v, err := t.frame.Aggregate(name, agg)
		if err != nil {
			return nil, err
		}
		return ToStarlark(v), nil
	}
}

func tableGroup(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var by, column string
	agg := string(AggSum)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "by", &by, "column", &column, "agg?", &agg); err != nil {
		return nil, err
	}
	f, err := t.frame.GroupBy(by, column, Aggregate(strings.ToLower(agg)))
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func tableValueCounts(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "column", &name); err != nil {
		return nil, err
	}
	f, err := t.frame.ValueCounts(name)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func tableDescribe(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return NewTable(t.frame.Stats()), nil
}

func tableAppend(thread *starlark.Thread, t *Table, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var rowValue starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "row", &rowValue); err != nil {
		return nil, err
	}
	row, err := rowFromStarlark(t.frame.columns, rowValue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	f, err := t.frame.AppendRows([][]any{row})
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func rowFromStarlark(columns []string, v starlark.Value) ([]any, error) {
	row := make([]any, len(columns))
	switch v := v.(type) {
	case *starlark.Dict:
		for _, item := range v.Items() {
			name, ok := starlark.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("row keys must be strings")
			}
			i := slices.Index(columns, name)
			if i < 0 {
				return nil, &ColumnNotFoundError{Name: name}
			}
			value, err := FromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			row[i] = value
		}
	case *starlark.List, starlark.Tuple:
		indexable := v.(starlark.Indexable)
		if indexable.Len() != len(columns) {
			return nil, fmt.Errorf("expecting %d values, got %d", len(columns), indexable.Len())
		}
		for i := range len(columns) {
			value, err := FromStarlark(indexable.Index(i))
			if err != nil {
				return nil, err
			}
			row[i] = value
		}
	default:
		return nil, fmt.Errorf("row must be dict or list, got %s", v.Type())
	}
	return row, nil
}
