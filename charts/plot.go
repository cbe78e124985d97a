package charts

import (
	"errors"
	"fmt"
	"math"

	"github.com/reusee/taicell/frames"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Value is the Starlark handle of a Chart, usually assigned to fig.
type Value struct {
	Chart *Chart
}

var _ starlark.HasAttrs = Value{}

func (v Value) String() string {
	return "<" + v.Chart.String() + ">"
}

func (v Value) Type() string {
	return "chart"
}

func (v Value) Freeze() {}

func (v Value) Truth() starlark.Bool {
	return true
}

func (v Value) Hash() (uint32, error) {
	return 0, errors.New("unhashable type: chart")
}

func (v Value) Attr(name string) (starlark.Value, error) {
	switch name {
	case "kind":
		return starlark.String(v.Chart.Kind), nil
	case "title":
		return starlark.String(v.Chart.Title), nil
	}
	return nil, nil
}

func (v Value) AttrNames() []string {
	return []string{"kind", "title"}
}

var Module = &starlarkstruct.Module{
	Name: "plot",
	Members: starlark.StringDict{
		"bar":     starlark.NewBuiltin("plot.bar", xy(KindBar)),
		"line":    starlark.NewBuiltin("plot.line", xy(KindLine)),
		"scatter": starlark.NewBuiltin("plot.scatter", xy(KindScatter)),
		"hist":    starlark.NewBuiltin("plot.hist", hist),
	},
}

func xy(kind Kind) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var table *frames.Table
		var x string
		var y starlark.Value
		var title, xLabel, yLabel string
		if err := starlark.UnpackArgs(b.Name(), args, kwargs,
			"data", &table,
			"x", &x,
			"y", &y,
			"title?", &title,
			"xlabel?", &xLabel,
			"ylabel?", &yLabel,
		); err != nil {
			return nil, err
		}
		f := table.Frame()

		var yNames []string
		if s, ok := starlark.AsString(y); ok {
			yNames = []string{s}
		} else if iterable, ok := y.(starlark.Iterable); ok {
			iter := iterable.Iterate()
			defer iter.Done()
			var elem starlark.Value
			for iter.Next(&elem) {
				s, ok := starlark.AsString(elem)
				if !ok {
					return nil, fmt.Errorf("%s: y must be column names", b.Name())
				}
				yNames = append(yNames, s)
			}
		} else {
			return nil, fmt.Errorf("%s: y must be a column name or a list of names", b.Name())
		}

		xs, ok := f.Column(x)
		if !ok {
			return nil, &frames.ColumnNotFoundError{Name: x}
		}
		chart := &Chart{
			Kind:   kind,
			Title:  title,
			XLabel: xLabel,
			YLabel: yLabel,
		}
		for _, name := range yNames {
			ys, ok := f.Column(name)
			if !ok {
				return nil, &frames.ColumnNotFoundError{Name: name}
			}
			series := Series{
				Name: name,
			}
			for i, v := range ys {
				if v == nil || xs[i] == nil {
					continue
				}
				fv, ok := number(v)
				if !ok {
					return nil, fmt.Errorf("%s: column %s is not numeric", b.Name(), name)
				}
				series.X = append(series.X, frames.FormatValue(xs[i]))
				series.Y = append(series.Y, fv)
			}
			chart.Series = append(chart.Series, series)
		}
		return Value{Chart: chart}, nil
	}
}

func hist(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var table *frames.Table
	var column, title string
	bins := 10
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"data", &table,
		"column", &column,
		"bins?", &bins,
		"title?", &title,
	); err != nil {
		return nil, err
	}
	if bins < 1 {
		return nil, fmt.Errorf("%s: bins must be positive", b.Name())
	}
	values, ok := table.Frame().Column(column)
	if !ok {
		return nil, &frames.ColumnNotFoundError{Name: column}
	}
	var nums []float64
	for _, v := range values {
		if v == nil {
			continue
		}
		fv, ok := number(v)
		if !ok {
			return nil, fmt.Errorf("%s: column %s is not numeric", b.Name(), column)
		}
		nums = append(nums, fv)
	}
	return Value{Chart: Histogram(column, title, nums, bins)}, nil
}

func Histogram(name, title string, nums []float64, bins int) *Chart {
	chart := &Chart{
		Kind:   KindHist,
		Title:  title,
		XLabel: name,
		YLabel: "count",
	}
	series := Series{
		Name: name,
	}
	if len(nums) > 0 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, x := range nums {
			lo = min(lo, x)
			hi = max(hi, x)
		}
		width := (hi - lo) / float64(bins)
		counts := make([]float64, bins)
		for _, x := range nums {
			i := bins - 1
			if width > 0 {
				i = min(int((x-lo)/width), bins-1)
			}
			counts[i]++
		}
		for i := range bins {
			from := lo + width*float64(i)
			series.X = append(series.X, fmt.Sprintf("%g-%g", from, from+width))
			series.Y = append(series.Y, counts[i])
		}
	}
	chart.Series = append(chart.Series, series)
	return chart
}

func number(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
