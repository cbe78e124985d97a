package codes

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/reusee/taicell/generators"
	"github.com/reusee/taicell/kbs"
)

type fakeGenerator struct {
	replies []string
	err     error
	prompts []generators.Prompts
}

func (f *fakeGenerator) Args() generators.GeneratorArgs {
	return generators.GeneratorArgs{
		Model: "fake",
	}
}

func (f *fakeGenerator) Generate(ctx context.Context, prompts generators.Prompts) (string, error) {
	f.prompts = append(f.prompts, prompts)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeGenerator) lastUser() string {
	prompts := f.prompts[len(f.prompts)-1]
	return prompts.Messages[len(prompts.Messages)-1].Text
}

func newTestCodeGenerator(gen *fakeGenerator) *CodeGenerator {
	get := func() (generators.Generator, error) {
		return gen, nil
	}
	return NewCodeGenerator(get, get, slog.New(slog.DiscardHandler))
}

func TestPlan(t *testing.T) {
	gen := &fakeGenerator{
		replies: []string{"\n1. look\n2. clean\n"},
	}
	c := newTestCodeGenerator(gen)
	plan, err := c.Plan(t.Context(), "find outliers", "shape: 10x2")
	if err != nil {
		t.Fatal(err)
	}
	if plan != "1. look\n2. clean" {
		t.Fatalf("got %q", plan)
	}
	user := gen.lastUser()
	if !strings.Contains(user, "find outliers") || !strings.Contains(user, "shape: 10x2") {
		t.Fatalf("got %s", user)
	}
	if gen.prompts[0].System == "" {
		t.Fatal()
	}
}

func TestGenerate(t *testing.T) {
	gen := &fakeGenerator{
		replies: []string{"Here:\n```python\ndf = df.head(3)\n```\nDone."},
	}
	c := newTestCodeGenerator(gen)
	code, err := c.Generate(t.Context(), Request{
		Step:  "1. take three rows",
		Hints: "def mean(xs): pass",
	})
	if err != nil {
		t.Fatal(err)
	}
	if code != "df = df.head(3)" {
		t.Fatalf("got %q", code)
	}
	if !strings.Contains(gen.lastUser(), "def mean(xs)") {
		t.Fatal("hints not in prompt")
	}
}

func TestFix(t *testing.T) {
	gen := &fakeGenerator{
		replies: []string{"df = df.dropna()"},
	}
	c := newTestCodeGenerator(gen)
	code, err := c.Fix(t.Context(), Request{
		Step:  "1. clean",
		Code:  "df = df.dropna(",
		Error: "got end of file",
	})
	if err != nil {
		t.Fatal(err)
	}
	if code != "df = df.dropna()" {
		t.Fatalf("got %q", code)
	}
	user := gen.lastUser()
	if !strings.Contains(user, "df = df.dropna(") || !strings.Contains(user, "got end of file") {
		t.Fatalf("got %s", user)
	}
}

func TestGeneratorError(t *testing.T) {
	boom := errors.New("boom")
	c := newTestCodeGenerator(&fakeGenerator{
		err: boom,
	})
	if _, err := c.Generate(t.Context(), Request{}); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if _, err := c.Plan(t.Context(), "", ""); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}

func TestSelectFunctions(t *testing.T) {
	summaries := []kbs.Summary{
		{Title: "mean", Description: "average"},
		{Title: "outliers", Description: "iqr outliers"},
	}
	for _, c := range []struct {
		reply string
		want  []string
	}{
		{`{"functions": ["outliers"]}`, []string{"outliers"}},
		{"```json\n{\"functions\": [\"mean\", \"made_up\"]}\n```", []string{"mean"}},
		{`Sure. {"funcoes_escolhidas": ["mean", "outliers", "mean"]}`, []string{"mean", "outliers"}},
		{`not json`, nil},
	} {
		gen := &fakeGenerator{
			replies: []string{c.reply},
		}
		got, err := newTestCodeGenerator(gen).SelectFunctions(t.Context(), "1. step", summaries)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, c.want) {
			t.Fatalf("%s: got %v", c.reply, got)
		}
	}

	gen := &fakeGenerator{}
	got, err := newTestCodeGenerator(gen).SelectFunctions(t.Context(), "1. step", nil)
	if err != nil || got != nil || len(gen.prompts) != 0 {
		t.Fatalf("got %v %v", got, err)
	}
}
