package frames

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

var Module = &starlarkstruct.Module{
	Name: "frames",
	Members: starlark.StringDict{
		"new":        starlark.NewBuiltin("frames.new", newTable),
		"from_dicts": starlark.NewBuiltin("frames.from_dicts", fromDicts),
	},
}

func newTable(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var columnsValue starlark.Value
	var rowsValue starlark.Iterable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "columns", &columnsValue, "rows?", &rowsValue); err != nil {
		return nil, err
	}
	columns, err := toStrings(columnsValue)
	if err != nil {
		return nil, err
	}
	var rows [][]any
	if rowsValue != nil {
		iter := rowsValue.Iterate()
		defer iter.Done()
		var elem starlark.Value
		for iter.Next(&elem) {
			row, err := rowFromStarlark(columns, elem)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", b.Name(), len(rows), err)
			}
			rows = append(rows, row)
		}
	}
	f, err := New(columns, rows)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}

func fromDicts(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var list starlark.Iterable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "rows", &list); err != nil {
		return nil, err
	}
	var dicts []*starlark.Dict
	var columns []string
	seen := make(map[string]bool)
	iter := list.Iterate()
	defer iter.Done()
	var elem starlark.Value
	for iter.Next(&elem) {
		d, ok := elem.(*starlark.Dict)
		if !ok {
			return nil, fmt.Errorf("%s: expecting dict, got %s", b.Name(), elem.Type())
		}
		for _, key := range d.Keys() {
			name, ok := starlark.AsString(key)
			if !ok {
				return nil, fmt.Errorf("%s: keys must be strings", b.Name())
			}
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
		dicts = append(dicts, d)
	}
	rows := make([][]any, 0, len(dicts))
	for _, d := range dicts {
		row, err := rowFromStarlark(columns, d)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	f, err := New(columns, rows)
	if err != nil {
		return nil, err
	}
	return NewTable(f), nil
}
