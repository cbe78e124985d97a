package runs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/reusee/dscope"
	"github.com/reusee/taicell/cells"
	"github.com/reusee/taicell/codes"
	"github.com/reusee/taicell/deps"
	"github.com/reusee/taicell/frames"
	"github.com/reusee/taicell/kbs"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/pkgs"
	"github.com/reusee/taicell/sandboxes"
	"github.com/reusee/taicell/sessions"
)

type fakeGenerator struct {
	code  string
	fixes []string
	err   error
	reqs  []codes.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req codes.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return "", f.err
	}
	return f.code, nil
}

func (f *fakeGenerator) Fix(ctx context.Context, req codes.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.fixes) == 0 {
		return req.Code, nil
	}
	code := f.fixes[0]
	if len(f.fixes) > 1 {
		f.fixes = f.fixes[1:]
	}
	return code, nil
}

func (f *fakeGenerator) Plan(ctx context.Context, objective string, metadata string) (string, error) {
	return "Plano de Análise:\n1. filter rows\n2. plot", nil
}

type fakeInstaller struct {
	dir   string
	names []string
	ok    bool
}

func (f *fakeInstaller) Install(ctx context.Context, names []string) (bool, string) {
	f.names = append(f.names, names...)
	if !f.ok {
		return false, "index unreachable"
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(f.dir, name+".star"), []byte("def degree(x):\n    return x\n"), 0644); err != nil {
			return false, err.Error()
		}
	}
	return true, "installed"
}

type noResolver struct{}

func (noResolver) Missing(string) []string {
	return nil
}

func tenRows() *frames.Frame {
	rows := make([][]any, 0, 10)
	for i := range 10 {
		rows = append(rows, []any{i})
	}
	return frames.MustNew([]string{"n"}, rows)
}

func setup(t *testing.T, generator CodeGenerator) (*Controller, *sessions.Session) {
	logger := slog.New(slog.DiscardHandler)
	registry := pkgs.NewRegistry(t.TempDir())
	c := &Controller{
		Sandbox: sandboxes.NewInProcess(registry, sandboxes.Limits{
			Timeout: 5 * time.Second,
		}, logger),
		Resolver:  deps.NewResolver(registry),
		Generator: generator,
		Policy: Policy{
			MaxAttempts: DefaultMaxAttempts,
			Revert:      RevertAll,
		},
		Logger: logger,
	}
	sess := sessions.New()
	ctx := context.Background()
	if err := c.LoadDataset(ctx, sess, tenRows(), "test"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SplitPlan(ctx, sess, "1. filter rows\n2. summarize\n3. plot"); err != nil {
		t.Fatal(err)
	}
	return c, sess
}

func cellAt(t *testing.T, sess *sessions.Session, i int) *cells.Cell {
	cell, ok := sess.Ledger.At(i)
	if !ok {
		t.Fatalf("no cell %d", i)
	}
	return cell
}

func TestRunSucceeds(t *testing.T) {
	c, sess := setup(t, nil)
	ctx := context.Background()
	if err := c.SetCode(ctx, sess, 0, `df = df.filter(lambda r: r["n"] >= 3)`); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.Succeeded || cell.Attempts != 1 || cell.Error != "" {
		t.Fatalf("got %+v", cell)
	}
	if cell.Result.Frame.Len() != 7 {
		t.Fatalf("got %d", cell.Result.Frame.Len())
	}
	if sess.History.Len() != 2 || cell.CommitVersion != 1 || cell.BaseVersion != 0 {
		t.Fatalf("got %d %d %d", sess.History.Len(), cell.CommitVersion, cell.BaseVersion)
	}
	first, _ := sess.History.At(0)
	if first.Frame.Len() != 10 {
		t.Fatalf("got %d", first.Frame.Len())
	}
	if sess.Metadata.Rows != 7 {
		t.Fatalf("got %d", sess.Metadata.Rows)
	}

	// rerunning unchanged code does not count as a new attempt
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	if cell.Attempts != 1 || cell.CommitVersion != 2 {
		t.Fatalf("got %+v", cell)
	}
}

func TestFixLoop(t *testing.T) {
	gen := &fakeGenerator{
		fixes: []string{`df = df.filter(lambda r: r["n"] >= 3)`},
	}
	c, sess := setup(t, gen)
	ctx := context.Background()
	if err := c.SetCode(ctx, sess, 0, `x = 1 // 0`); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.Succeeded {
		t.Fatalf("got %+v", cell)
	}
	if cell.Attempts != 2 {
		t.Fatalf("got %d", cell.Attempts)
	}
	if cell.Error != "" {
		t.Fatalf("got %s", cell.Error)
	}
	if len(gen.reqs) != 1 {
		t.Fatalf("got %d", len(gen.reqs))
	}
	req := gen.reqs[0]
	if req.Code != `x = 1 // 0` || !strings.Contains(req.Error, "division by zero") || req.Step != "1. filter rows" {
		t.Fatalf("got %+v", req)
	}
	if len(cell.Log) != 2 || cell.Log[0].Kind != sandboxes.KindExecutionFault || !cell.Log[1].Succeeded() {
		t.Fatalf("got %+v", cell.Log)
	}
	current, _ := sess.History.Current()
	if current.Frame.Len() != 7 {
		t.Fatalf("got %d", current.Frame.Len())
	}
}

func TestBoundedRetry(t *testing.T) {
	gen := &fakeGenerator{
		fixes: []string{`fail("still broken")`},
	}
	c, sess := setup(t, gen)
	c.Policy.MaxAttempts = 3
	ctx := context.Background()
	if err := c.SetCode(ctx, sess, 0, `x = 1 // 0`); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.Abandoned || cell.Attempts != 3 {
		t.Fatalf("got %+v", cell)
	}
	if len(gen.reqs) != 2 {
		t.Fatalf("got %d", len(gen.reqs))
	}
	if !strings.Contains(cell.Error, "still broken") {
		t.Fatalf("got %s", cell.Error)
	}
	if sess.History.Len() != 1 {
		t.Fatalf("got %d", sess.History.Len())
	}

	// an explicit rerun starts a new cycle
	gen.fixes = []string{`x = 1`}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	if cell.State != cells.Succeeded || cell.Attempts != 2 {
		t.Fatalf("got %+v", cell)
	}
}

func TestFailedWithoutGenerator(t *testing.T) {
	c, sess := setup(t, nil)
	ctx := context.Background()
	if err := c.SetCode(ctx, sess, 0, `x = 1 // 0`); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.Failed || cell.Attempts != 1 {
		t.Fatalf("got %+v", cell)
	}
}

func TestFixError(t *testing.T) {
	gen := &fakeGenerator{
		err: errors.New("quota exceeded"),
	}
	c, sess := setup(t, gen)
	ctx := context.Background()
	if err := c.SetCode(ctx, sess, 0, `x = 1 // 0`); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.Failed {
		t.Fatalf("got %v", cell.State)
	}
	if !strings.Contains(cell.Error, "division by zero") || !strings.Contains(cell.Error, "quota exceeded") {
		t.Fatalf("got %s", cell.Error)
	}
}

func TestMissingDependencyReject(t *testing.T) {
	gen := &fakeGenerator{}
	c, sess := setup(t, gen)
	ctx := context.Background()
	code := "import networkx as nx\nx = nx.degree(1)"
	if err := c.SetCode(ctx, sess, 0, code); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.AwaitingDependencyDecision {
		t.Fatalf("got %v", cell.State)
	}
	if !slices.Equal(cell.Missing, []string{"networkx"}) {
		t.Fatalf("got %v", cell.Missing)
	}
	if len(cell.Log) != 0 {
		t.Fatal("should not execute")
	}

	if err := c.RejectInstall(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	if cell.State != cells.CodeReady || cell.Code != code || cell.Missing != nil {
		t.Fatalf("got %+v", cell)
	}
	if len(gen.reqs) != 0 {
		t.Fatal("should not ask for a fix")
	}

	if err := c.RejectInstall(ctx, sess, 0); !errors.Is(err, ErrOrchestrator) {
		t.Fatalf("got %v", err)
	}
}

func TestApproveInstall(t *testing.T) {
	c, sess := setup(t, nil)
	registry := pkgs.NewRegistry(t.TempDir())
	c.Sandbox = sandboxes.NewInProcess(registry, sandboxes.Limits{}, c.Logger)
	c.Resolver = deps.NewResolver(registry)
	ctx := context.Background()

	if err := c.SetCode(ctx, sess, 0, "from networkx import degree\nprint(degree(3))"); err != nil {
		t.Fatal(err)
	}
	if err := c.ApproveInstall(ctx, sess, 0); !errors.Is(err, ErrOrchestrator) {
		t.Fatalf("got %v", err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.AwaitingDependencyDecision {
		t.Fatalf("got %v", cell.State)
	}

	if err := c.ApproveInstall(ctx, sess, 0); !errors.Is(err, ErrOrchestrator) {
		t.Fatalf("got %v", err)
	}

	failing := &fakeInstaller{dir: registry.Dir()}
	c.Installer = failing
	if err := c.ApproveInstall(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	if cell.State != cells.AwaitingDependencyDecision || !strings.Contains(cell.Error, "index unreachable") {
		t.Fatalf("got %+v", cell)
	}

	c.Installer = &fakeInstaller{dir: registry.Dir(), ok: true}
	if err := c.ApproveInstall(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	if cell.State != cells.Succeeded {
		t.Fatalf("got %+v", cell)
	}
	if cell.Stdout != "3\n" {
		t.Fatalf("got %q", cell.Stdout)
	}
}

func TestRuntimeMissingDependency(t *testing.T) {
	gen := &fakeGenerator{}
	c, sess := setup(t, gen)
	c.Resolver = noResolver{}
	ctx := context.Background()
	if err := c.SetCode(ctx, sess, 0, `load("networkx.algorithms", "shortest_path")`); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.AwaitingDependencyDecision {
		t.Fatalf("got %v", cell.State)
	}
	if !slices.Equal(cell.Missing, []string{"networkx"}) {
		t.Fatalf("got %v", cell.Missing)
	}
	if cell.Attempts != 0 || len(gen.reqs) != 0 {
		t.Fatalf("got %+v", cell)
	}
}

func TestRejectClearsRunOutput(t *testing.T) {
	c, sess := setup(t, &fakeGenerator{})
	c.Resolver = noResolver{}
	ctx := context.Background()
	code := `print("partial")
display(df)
load("networkx.algorithms", "shortest_path")`
	if err := c.SetCode(ctx, sess, 0, code); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.AwaitingDependencyDecision || cell.Stdout != "partial\n" || len(cell.Displayed) != 1 {
		t.Fatalf("got %+v", cell)
	}

	if err := c.RejectInstall(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	if cell.State != cells.CodeReady || cell.Code != code {
		t.Fatalf("got %+v", cell)
	}
	if cell.Stdout != "" || cell.Displayed != nil || cell.ExecDuration != 0 || !cell.Result.IsZero() {
		t.Fatalf("got %+v", cell)
	}
}

func TestFixesShareHints(t *testing.T) {
	gen := &fakeGenerator{
		fixes: []string{`y = 2 // 0`, `df = df.head(2)`},
	}
	c, sess := setup(t, gen)
	kb := &fakeKB{}
	c.KB = kb
	c.Selector = kb
	ctx := context.Background()
	if err := c.SetCode(ctx, sess, 0, `x = 1 // 0`); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.Succeeded || cell.Attempts != 3 {
		t.Fatalf("got %+v", cell)
	}
	if len(gen.reqs) != 2 {
		t.Fatalf("got %d", len(gen.reqs))
	}
	for _, req := range gen.reqs {
		if req.Hints != "def mean(xs): pass" {
			t.Fatalf("got %q", req.Hints)
		}
	}
	if kb.selections != 1 {
		t.Fatalf("got %d", kb.selections)
	}
}

func TestMissingSubmoduleOfBuiltin(t *testing.T) {
	gen := &fakeGenerator{
		fixes: []string{`load("math", "floor")
print(floor(2.5))`},
	}
	c, sess := setup(t, gen)
	installer := &fakeInstaller{dir: t.TempDir(), ok: true}
	c.Installer = installer
	ctx := context.Background()
	if err := c.SetCode(ctx, sess, 0, "from math.stats import mean"); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.Succeeded {
		t.Fatalf("got %+v", cell)
	}
	if cell.Missing != nil || len(installer.names) != 0 {
		t.Fatalf("got %v %v", cell.Missing, installer.names)
	}
	if len(gen.reqs) != 1 || !strings.Contains(gen.reqs[0].Error, "no submodule") {
		t.Fatalf("got %+v", gen.reqs)
	}
	if cell.Attempts != 2 {
		t.Fatalf("got %d", cell.Attempts)
	}
}

func TestSpans(t *testing.T) {
	buf := new(bytes.Buffer)
	gen := &fakeGenerator{}
	c, sess := setup(t, gen)
	dscope.New(new(logs.Module)).Fork(
		func() logs.Writer {
			return buf
		},
	).Call(func(
		logger logs.Logger,
		newSpan logs.NewSpan,
	) {
		c.Logger = logger
		c.NewSpan = newSpan
	})
	ctx := context.Background()

	if err := c.SetCode(ctx, sess, 0, `df = df.head(3)`); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	var transitions int
	for line := range strings.SplitSeq(buf.String(), "\n") {
		if !strings.Contains(line, "cell transition") {
			continue
		}
		transitions++
		if !strings.Contains(line, "logs.span=") {
			t.Fatalf("got %v", line)
		}
	}
	if transitions == 0 {
		t.Fatal("no transitions logged")
	}

	gen.err = errors.New("quota exceeded")
	if err := c.GenerateCode(ctx, sess, 1); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 1)
	if !strings.Contains(cell.Error, "quota exceeded") || !strings.Contains(cell.Error, "span: ") {
		t.Fatalf("got %q", cell.Error)
	}
}

func runCells(t *testing.T, c *Controller, sess *sessions.Session) {
	ctx := context.Background()
	for i, code := range []string{
		`df = df.filter(lambda r: r["n"] >= 3)`,
		`df = df.head(5)`,
		`fig = plot.bar(df, "n", "n")`,
	} {
		if err := c.SetCode(ctx, sess, i, code); err != nil {
			t.Fatal(err)
		}
		if err := c.Run(ctx, sess, i); err != nil {
			t.Fatal(err)
		}
		if cellAt(t, sess, i).State != cells.Succeeded {
			t.Fatalf("cell %d: got %+v", i, cellAt(t, sess, i))
		}
	}
	if sess.History.Len() != 4 {
		t.Fatalf("got %d", sess.History.Len())
	}
}

func TestRevertAll(t *testing.T) {
	c, sess := setup(t, nil)
	ctx := context.Background()
	runCells(t, c, sess)

	ok, err := c.Revert(ctx, sess)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || sess.History.Len() != 3 {
		t.Fatalf("got %v %d", ok, sess.History.Len())
	}
	for _, cell := range sess.Ledger.Cells() {
		if !cell.Result.IsZero() || cell.Attempts != 0 || cell.State != cells.CodeReady {
			t.Fatalf("got %+v", cell)
		}
	}
	if sess.Metadata.Rows != 5 {
		t.Fatalf("got %d", sess.Metadata.Rows)
	}
}

func TestRevertDownstream(t *testing.T) {
	c, sess := setup(t, nil)
	c.Policy.Revert = RevertDownstream
	ctx := context.Background()
	runCells(t, c, sess)

	if ok, err := c.Revert(ctx, sess); err != nil || !ok {
		t.Fatalf("got %v %v", ok, err)
	}
	if cellAt(t, sess, 2).State != cells.CodeReady || !cellAt(t, sess, 2).Result.IsZero() {
		t.Fatalf("got %+v", cellAt(t, sess, 2))
	}
	for i := range 2 {
		if cellAt(t, sess, i).State != cells.Succeeded {
			t.Fatalf("got %+v", cellAt(t, sess, i))
		}
	}

	if ok, err := c.Revert(ctx, sess); err != nil || !ok {
		t.Fatalf("got %v %v", ok, err)
	}
	if cellAt(t, sess, 1).State != cells.CodeReady {
		t.Fatalf("got %+v", cellAt(t, sess, 1))
	}
	if cellAt(t, sess, 0).State != cells.Succeeded {
		t.Fatalf("got %+v", cellAt(t, sess, 0))
	}
}

func TestRevertInitial(t *testing.T) {
	c, sess := setup(t, nil)
	ok, err := c.Revert(context.Background(), sess)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("should be a no-op")
	}
	if sess.History.Len() != 1 {
		t.Fatal()
	}

	if _, err := c.Revert(context.Background(), sessions.New()); !errors.Is(err, ErrOrchestrator) {
		t.Fatalf("got %v", err)
	}
}

func TestPinSnapshots(t *testing.T) {
	ctx := context.Background()

	c, sess := setup(t, nil)
	c.Policy.PinSnapshots = true
	runCells(t, c, sess)
	// cell 0 rereads the snapshot it executed against
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.BaseVersion != 0 || cell.Result.Frame.Len() != 7 {
		t.Fatalf("got %d %d", cell.BaseVersion, cell.Result.Frame.Len())
	}

	c, sess = setup(t, nil)
	runCells(t, c, sess)
	// without pinning it reads the latest snapshot
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell = cellAt(t, sess, 0)
	if cell.BaseVersion != 3 || cell.Result.Frame.Len() != 5 {
		t.Fatalf("got %d %d", cell.BaseVersion, cell.Result.Frame.Len())
	}
}

func TestOrchestratorFaults(t *testing.T) {
	c, sess := setup(t, nil)
	ctx := context.Background()
	for _, err := range []error{
		c.Run(ctx, sess, 7),
		c.Run(ctx, sess, 0),
		c.GenerateCode(ctx, sess, 0),
		c.EditStep(ctx, sess, -1, "x"),
		c.Abandon(ctx, sess, 0),
		c.LoadDataset(ctx, sess, nil, ""),
	} {
		if !errors.Is(err, ErrOrchestrator) {
			t.Fatalf("got %v", err)
		}
		var f *OrchestratorFault
		if !errors.As(err, &f) || f.Op == "" {
			t.Fatalf("got %v", err)
		}
	}
	if _, err := c.SplitPlan(ctx, sess, "no steps"); !errors.Is(err, ErrOrchestrator) {
		t.Fatalf("got %v", err)
	}
	if sess.Ledger.Len() != 3 || sess.History.Len() != 1 {
		t.Fatal("faults should not change the session")
	}
	for _, cell := range sess.Ledger.Cells() {
		if cell.State != cells.Empty {
			t.Fatalf("got %+v", cell)
		}
	}
}

func TestGenerateCode(t *testing.T) {
	gen := &fakeGenerator{
		code: `df = df.head(1)`,
	}
	c, sess := setup(t, gen)
	kb := &fakeKB{}
	c.KB = kb
	c.Selector = kb
	ctx := context.Background()
	sess.Objective = "explore"

	if err := c.GenerateCode(ctx, sess, 1); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 1)
	if cell.State != cells.CodeReady || cell.Code != gen.code {
		t.Fatalf("got %+v", cell)
	}
	req := gen.reqs[0]
	if req.Step != "2. summarize" || req.Objective != "explore" || req.Hints != "def mean(xs): pass" {
		t.Fatalf("got %+v", req)
	}
	if !strings.Contains(req.Metadata, "10") {
		t.Fatalf("got %s", req.Metadata)
	}

	gen.err = errors.New("offline")
	if err := c.GenerateCode(ctx, sess, 1); err != nil {
		t.Fatal(err)
	}
	if cell.Code != `df = df.head(1)` || !strings.Contains(cell.Error, "offline") {
		t.Fatalf("got %+v", cell)
	}
}

type fakeKB struct {
	selections int
}

func (fakeKB) Summaries() []kbs.Summary {
	return []kbs.Summary{
		{Title: "mean", Description: "average"},
	}
}

func (fakeKB) SourceFor(titles []string) string {
	if slices.Equal(titles, []string{"mean"}) {
		return "def mean(xs): pass"
	}
	return ""
}

func (f *fakeKB) SelectFunctions(ctx context.Context, step string, summaries []kbs.Summary) ([]string, error) {
	f.selections++
	return []string{summaries[0].Title}, nil
}

func TestPlanAndEdit(t *testing.T) {
	gen := &fakeGenerator{}
	c, sess := setup(t, gen)
	c.Planner = gen
	ctx := context.Background()

	plan, err := c.GeneratePlan(ctx, sess, "find outliers")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Objective != "find outliers" || sess.Plan != plan {
		t.Fatal()
	}
	n, err := c.SplitPlan(ctx, sess, "")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || sess.Ledger.Len() != 2 {
		t.Fatalf("got %d", n)
	}

	if err := c.SetCode(ctx, sess, 0, `x = 1`); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	if err := c.EditStep(ctx, sess, 0, "1. filter more rows"); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.Empty || cell.Code != "" || !cell.Result.IsZero() || cell.Attempts != 0 {
		t.Fatalf("got %+v", cell)
	}
}

func TestCancelAbandons(t *testing.T) {
	gen := &fakeGenerator{}
	c, sess := setup(t, gen)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	if err := c.SetCode(ctx, sess, 0, "while True:\n    pass"); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(ctx, sess, 0); err != nil {
		t.Fatal(err)
	}
	cell := cellAt(t, sess, 0)
	if cell.State != cells.Abandoned {
		t.Fatalf("got %+v", cell)
	}
	if len(gen.reqs) != 0 {
		t.Fatal("should not ask for a fix")
	}
}

func TestRunAll(t *testing.T) {
	gen := &fakeGenerator{
		code: `df = df.tail(9)`,
	}
	c, sess := setup(t, gen)
	if err := c.RunAll(context.Background(), sess); err != nil {
		t.Fatal(err)
	}
	for _, cell := range sess.Ledger.Cells() {
		if cell.State != cells.Succeeded {
			t.Fatalf("got %+v", cell)
		}
	}
	current, _ := sess.History.Current()
	if current.Frame.Len() != 7 {
		t.Fatalf("got %d", current.Frame.Len())
	}
}
