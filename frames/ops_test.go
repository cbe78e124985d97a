package frames

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestHeadTail(t *testing.T) {
	f := sample()
	if n := f.Head(2).Len(); n != 2 {
		t.Fatalf("got %d", n)
	}
	if n := f.Head(100).Len(); n != 4 {
		t.Fatalf("got %d", n)
	}
	tail := f.Tail(1)
	if tail.Value(0, 0) != "c" {
		t.Fatalf("got %v", tail.Value(0, 0))
	}
}

func TestSelectDrop(t *testing.T) {
	f, err := sample().Select("price", "city")
	if err != nil {
		t.Fatal(err)
	}
	if str := fmt.Sprint(f.Columns()); str != "[price city]" {
		t.Fatalf("got %s", str)
	}
	_, err = sample().Select("nope")
	var notFound *ColumnNotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "nope" {
		t.Fatalf("got %v", err)
	}
	f, err = sample().Drop("sales")
	if err != nil {
		t.Fatal(err)
	}
	if str := fmt.Sprint(f.Columns()); str != "[city price]" {
		t.Fatalf("got %s", str)
	}
}

func TestDropFillNA(t *testing.T) {
	f, err := sample().DropNA()
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 {
		t.Fatalf("got %d", f.Len())
	}
	f, err = sample().DropNA("sales")
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 3 {
		t.Fatalf("got %d", f.Len())
	}
	f, err = sample().FillNA(0, "sales")
	if err != nil {
		t.Fatal(err)
	}
	if v := f.Value(1, 1); v != int64(0) {
		t.Fatalf("got %v", v)
	}
	if v := f.Value(2, 2); v != nil {
		t.Fatalf("got %v", v)
	}
}

func TestSort(t *testing.T) {
	f, err := sample().Sort([]string{"sales"}, false)
	if err != nil {
		t.Fatal(err)
	}
	col, _ := f.Column("sales")
	if str := fmt.Sprint(col); str != "[1 3 5 <nil>]" {
		t.Fatalf("got %s", str)
	}
	f, err = sample().Sort([]string{"sales"}, true)
	if err != nil {
		t.Fatal(err)
	}
	col, _ = f.Column("sales")
	if str := fmt.Sprint(col); str != "[5 3 1 <nil>]" {
		t.Fatalf("got %s", str)
	}
}

func TestRenameWithColumn(t *testing.T) {
	f, err := sample().Rename(map[string]string{"city": "town"})
	if err != nil {
		t.Fatal(err)
	}
	if !f.Has("town") || f.Has("city") {
		t.Fatal()
	}
	if _, err := sample().Rename(map[string]string{"city": "sales"}); err == nil {
		t.Fatal("should error")
	}
	f, err = sample().WithColumn("flag", []any{true, false, true, false})
	if err != nil {
		t.Fatal(err)
	}
	if f.Width() != 4 {
		t.Fatal()
	}
	if _, err := sample().WithColumn("flag", []any{true}); err == nil {
		t.Fatal("should error")
	}
}

func TestAggregates(t *testing.T) {
	f := sample()
	cases := []struct {
		column string
		agg    Aggregate
		want   any
	}{
		{"sales", AggSum, int64(9)},
		{"sales", AggCount, int64(3)},
		{"sales", AggMean, 3.0},
		{"sales", AggMin, int64(1)},
		{"sales", AggMax, int64(5)},
		{"sales", AggStd, 2.0},
		{"price", AggSum, 7.75},
		{"city", AggMax, "c"},
	}
	for _, c := range cases {
		got, err := f.Aggregate(c.column, c.agg)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Fatalf("%s %s: got %v", c.agg, c.column, got)
		}
	}
	if _, err := f.Aggregate("city", AggSum); err == nil {
		t.Fatal("should error")
	}
}

func TestGroupBy(t *testing.T) {
	f, err := sample().GroupBy("city", "sales", AggSum)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 3 {
		t.Fatalf("got %d", f.Len())
	}
	if f.Value(0, 0) != "a" || f.Value(0, 1) != int64(8) {
		t.Fatalf("got %v", f.Row(0))
	}
}

func TestValueCounts(t *testing.T) {
	f, err := sample().ValueCounts("city")
	if err != nil {
		t.Fatal(err)
	}
	if f.Value(0, 0) != "a" || f.Value(0, 1) != int64(2) {
		t.Fatalf("got %v", f.Row(0))
	}
}

func TestStats(t *testing.T) {
	f := sample().Stats()
	if f.Len() != 2 {
		t.Fatalf("got %d", f.Len())
	}
	std := f.Value(0, 3).(float64)
	if math.Abs(std-2) > 1e-9 {
		t.Fatalf("got %v", std)
	}
}

func TestQuery(t *testing.T) {
	f, err := sample().Query(`sales != nil && sales > 2`)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 {
		t.Fatalf("got %d", f.Len())
	}
	f, err = sample().Query(`city == "a"`)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 {
		t.Fatalf("got %d", f.Len())
	}
	if _, err := sample().Query(`city +`); err == nil {
		t.Fatal("should error")
	}
	if _, err := sample().Query(`city`); err == nil {
		t.Fatal("should error")
	}
}
