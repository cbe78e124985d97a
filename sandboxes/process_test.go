package sandboxes

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/reusee/taicell/pkgs"
)

const childEnv = "TAICELL_TEST_SANDBOX_CHILD"

func TestMain(m *testing.M) {
	if os.Getenv(childEnv) == "1" {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		if err := Child(context.Background(), os.Stdin, os.Stdout, logger); err != nil {
			logger.Error("child", "error", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestServe(t *testing.T) {
	req, err := json.Marshal(Request{
		Code: `
from kb import answer
df = df.filter(lambda r: r["n"] < answer)
print("ok")
`,
		Frame:      tenRows(),
		ModulesDir: "../pkgs/testdata",
		Sources: map[string]string{
			"kb": "answer = 4",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := new(bytes.Buffer)
	if err := Serve(context.Background(), bytes.NewReader(req), out, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatal(err)
	}
	var res Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Frame.Len() != 4 || res.Stdout != "ok\n" {
		t.Fatalf("got %d %q", res.Frame.Len(), res.Stdout)
	}
	if v := res.Frame.Value(1, 1); v != 0.5 {
		t.Fatalf("got %#v", v)
	}
}

func TestServeBadRequest(t *testing.T) {
	err := Serve(context.Background(), strings.NewReader("{"), new(bytes.Buffer), slog.New(slog.DiscardHandler))
	if err == nil {
		t.Fatal("should fail")
	}
}

func newProcess(t *testing.T) *Process {
	t.Setenv(childEnv, "1")
	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	registry := pkgs.NewRegistry("../pkgs/testdata")
	registry.ProvideSource("kb", "answer = 5")
	return &Process{
		Command:  []string{exe},
		Registry: registry,
		Limits:   Limits{},
		Logger:   slog.New(slog.DiscardHandler),
	}
}

func TestProcess(t *testing.T) {
	p := newProcess(t)
	input := tenRows()
	res := p.Run(context.Background(), `
load("kb", "answer")
load("stats", "double")
df = df.filter(lambda r: double(r["n"]) < answer)
`, input)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Frame.Len() != 3 {
		t.Fatalf("got %d", res.Frame.Len())
	}
	if input.Len() != 10 {
		t.Fatalf("got %d", input.Len())
	}
}

func TestProcessClassifiesFaults(t *testing.T) {
	p := newProcess(t)
	res := p.Run(context.Background(), `import networkx`, tenRows())
	if res.Err == nil || res.Err.Kind != KindMissingDependency || res.Err.Module != "networkx" {
		t.Fatalf("got %+v", res.Err)
	}
	res = p.Run(context.Background(), `x = 1 // 0`, tenRows())
	if res.Err == nil || res.Err.Kind != KindExecutionFault {
		t.Fatalf("got %+v", res.Err)
	}
}

func TestProcessMissingCommand(t *testing.T) {
	p := &Process{
		Command:  []string{"/nonexistent/taicell"},
		Registry: pkgs.NewRegistry(""),
		Logger:   slog.New(slog.DiscardHandler),
	}
	res := p.Run(context.Background(), `x = 1`, tenRows())
	if res.Err == nil || res.Err.Kind != KindExecutionFault {
		t.Fatalf("got %+v", res.Err)
	}
}
