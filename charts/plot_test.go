package charts

import (
	"encoding/json"
	"testing"

	"github.com/reusee/taicell/frames"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

func TestPlot(t *testing.T) {
	df := frames.NewTable(frames.MustNew(
		[]string{"month", "sales", "cost"},
		[][]any{
			{"jan", 3, 1.0},
			{"feb", nil, 2.0},
			{"mar", 5, 2.5},
		},
	))
	thread := &starlark.Thread{Name: "test"}
	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{},
		thread, "test.star", `
b = plot.bar(df, "month", "sales", title="Sales")
l = plot.line(df, x="month", y=["sales", "cost"])
h = plot.hist(df, "cost", bins=2)
`,
		starlark.StringDict{
			"df":   df,
			"plot": Module,
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	bar := globals["b"].(Value).Chart
	if bar.Kind != KindBar || bar.Title != "Sales" {
		t.Fatalf("got %+v", bar)
	}
	if len(bar.Series) != 1 || len(bar.Series[0].Y) != 2 {
		t.Fatalf("got %+v", bar.Series)
	}

	line := globals["l"].(Value).Chart
	if len(line.Series) != 2 || len(line.Series[1].Y) != 3 {
		t.Fatalf("got %+v", line.Series)
	}

	h := globals["h"].(Value).Chart
	if len(h.Series[0].Y) != 2 {
		t.Fatalf("got %+v", h.Series)
	}
	if h.Series[0].Y[0] != 1 || h.Series[0].Y[1] != 2 {
		t.Fatalf("got %+v", h.Series[0].Y)
	}

	data, err := json.Marshal(bar)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Chart
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Series[0].X[1] != "mar" {
		t.Fatalf("got %s", data)
	}
}

func TestPlotErrors(t *testing.T) {
	df := frames.NewTable(frames.MustNew([]string{"a"}, [][]any{{"x"}}))
	for _, src := range []string{
		`x = plot.bar(df, "a", "nope")`,
		`x = plot.bar(df, "a", "a")`,
		`x = plot.hist(df, "a", bins=0)`,
		`x = plot.bar(1, "a", "a")`,
	} {
		thread := &starlark.Thread{Name: "test"}
		_, err := starlark.ExecFileOptions(
			&syntax.FileOptions{},
			thread, "test.star", src,
			starlark.StringDict{
				"df":   df,
				"plot": Module,
			},
		)
		if err == nil {
			t.Fatalf("%s: should error", src)
		}
	}
}

func TestHistogramSingleValue(t *testing.T) {
	c := Histogram("x", "", []float64{2, 2, 2}, 3)
	if c.Series[0].Y[2] != 3 {
		t.Fatalf("got %+v", c.Series[0])
	}
}
