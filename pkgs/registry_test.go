package pkgs

import (
	"errors"
	"strings"
	"testing"

	"go.starlark.net/starlark"
)

func exec(t *testing.T, r *Registry, src string) (starlark.StringDict, error) {
	t.Helper()
	thread := &starlark.Thread{
		Name: "test",
		Load: r.Loader(),
	}
	return starlark.ExecFileOptions(FileOptions, thread, "test.star", src, r.Globals())
}

func TestRoot(t *testing.T) {
	cases := map[string]string{
		"math":         "math",
		"numpy.linalg": "numpy",
		"foo.star":     "foo",
		"a/b.star":     "a",
		"@x:y":         "@x",
	}
	for in, want := range cases {
		if got := Root(in); got != want {
			t.Fatalf("%s: got %s", in, got)
		}
	}
}

func TestResolvable(t *testing.T) {
	r := NewRegistry("testdata")
	for _, name := range []string{"math", "json", "time", "plot", "struct", "frames", "stats"} {
		if !r.Resolvable(name) {
			t.Fatalf("%s should be resolvable", name)
		}
	}
	for _, name := range []string{"numpy", "../stats", ""} {
		if r.Resolvable(name) {
			t.Fatalf("%s should not be resolvable", name)
		}
	}
	r.ProvideSource("kb", "x = 1")
	if !r.Resolvable("kb") {
		t.Fatal()
	}
	if r.IsBuiltin("kb") {
		t.Fatal()
	}
}

func TestLoad(t *testing.T) {
	r := NewRegistry("testdata")
	r.ProvideSource("consts", "answer = 6 * 7")
	globals, err := exec(t, r, `
load("math", "math")
load("math", "floor")
load("stats", "double", st = "stats")
load("nested", "quad")
load("consts", "answer")
a = math.floor(2.5)
b = floor(3.5)
c = double(3)
d = st.scale
e = quad(1)
f = answer
`)
	if err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]string{
		"a": "2",
		"b": "3",
		"c": "6",
		"d": "2.0",
		"e": "4",
		"f": "42",
	} {
		if got := globals[name].String(); got != want {
			t.Fatalf("%s: got %s", name, got)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	r := NewRegistry("testdata")
	_, err := exec(t, r, `load("numpy", "array")`)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v", err)
	}
	if notFound.Name != "numpy" {
		t.Fatalf("got %v", notFound.Name)
	}

	_, err = exec(t, r, `load("math.linalg", "x")`)
	if errors.As(err, &notFound) {
		t.Fatalf("got %v", err)
	}
	var noSub *NoSubmoduleError
	if !errors.As(err, &noSub) || noSub.Module != "math" || noSub.Submodule != "linalg" {
		t.Fatalf("got %v", err)
	}
}

func TestLoadCycle(t *testing.T) {
	r := NewRegistry("testdata")
	_, err := exec(t, r, `load("cycle_a", "a")`)
	if err == nil || !strings.Contains(err.Error(), "cycle in load graph") {
		t.Fatalf("got %v", err)
	}
}
