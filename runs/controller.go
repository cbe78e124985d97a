package runs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reusee/taicell/cells"
	"github.com/reusee/taicell/codes"
	"github.com/reusee/taicell/frames"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/sandboxes"
	"github.com/reusee/taicell/sessions"
	"github.com/reusee/taicell/snapshots"
)

type RevertPolicy string

const (
	// RevertAll resets every cell on revert.
	RevertAll RevertPolicy = "all"
	// RevertDownstream resets only the cells that produced or read the removed snapshot.
	RevertDownstream RevertPolicy = "downstream"
)

type Policy struct {
	// failed executions after which a cell is abandoned, 0 for no bound
	MaxAttempts  int
	Revert       RevertPolicy
	PinSnapshots bool
}

// Controller drives cells through their states. It holds no session state.
type Controller struct {
	Sandbox   sandboxes.Sandbox
	Resolver  Resolver
	Generator CodeGenerator
	Planner   Planner
	Selector  FunctionSelector
	KB        KnowledgeBase
	Installer Installer
	Policy    Policy
	Logger    logs.Logger
	NewSpan   logs.NewSpan
}

// span starts a span for one controller operation. Spans of nested operations record their creator.
func (c *Controller) span(ctx context.Context) context.Context {
	if c.NewSpan == nil {
		return ctx
	}
	ctx, _ = c.NewSpan(ctx, "")
	return ctx
}

func (c *Controller) transition(ctx context.Context, cell *cells.Cell, state cells.State) {
	cell.State = state
	c.Logger.InfoContext(ctx, "cell transition",
		"cell", cell.ID,
		"state", state,
		"attempts", cell.Attempts,
	)
}

func (c *Controller) cell(op string, sess *sessions.Session, i int) (*cells.Cell, error) {
	cell, ok := sess.Ledger.At(i)
	if !ok {
		return nil, fault(op, "no cell %d, ledger has %d", i, sess.Ledger.Len())
	}
	return cell, nil
}

// LoadDataset starts a new history from frame and resets every cell.
func (c *Controller) LoadDataset(ctx context.Context, sess *sessions.Session, frame *frames.Frame, source string) error {
	if frame == nil {
		return fault("load dataset", "no frame")
	}
	sess.History = snapshots.New(frame)
	sess.Source = source
	sess.Metadata = frames.Describe(frame)
	sess.Ledger.ResetAll()
	c.Logger.InfoContext(ctx, "dataset loaded",
		"source", source,
		"rows", frame.Len(),
		"columns", frame.Width(),
	)
	return nil
}

func (c *Controller) GeneratePlan(ctx context.Context, sess *sessions.Session, objective string) (string, error) {
	ctx = c.span(ctx)
	if c.Planner == nil {
		return "", fault("generate plan", "no planner configured")
	}
	if !sess.Loaded() {
		return "", fault("generate plan", "no dataset loaded")
	}
	plan, err := c.Planner.Plan(ctx, objective, sess.Metadata.String())
	if err != nil {
		return "", fmt.Errorf("generate plan: %w", logs.WrapSpan(ctx, err))
	}
	sess.Objective = objective
	sess.Plan = plan
	return plan, nil
}

// SplitPlan replaces the ledger with one cell per numbered step of plan, or of the session plan when plan is empty.
func (c *Controller) SplitPlan(ctx context.Context, sess *sessions.Session, plan string) (int, error) {
	if plan == "" {
		plan = sess.Plan
	}
	steps := cells.SplitPlan(plan)
	if len(steps) == 0 {
		return 0, fault("split plan", "no numbered steps in plan")
	}
	sess.Plan = plan
	sess.Ledger = cells.NewLedger(steps)
	c.Logger.InfoContext(ctx, "plan split", "steps", len(steps))
	return len(steps), nil
}

func (c *Controller) request(sess *sessions.Session, cell *cells.Cell, hints string) codes.Request {
	return codes.Request{
		Step:      cell.Step,
		Objective: sess.Objective,
		Metadata:  sess.Metadata.String(),
		Hints:     hints,
	}
}

func (c *Controller) hints(ctx context.Context, step string) string {
	if c.KB == nil || c.Selector == nil {
		return ""
	}
	summaries := c.KB.Summaries()
	if len(summaries) == 0 {
		return ""
	}
	titles, err := c.Selector.SelectFunctions(ctx, step, summaries)
	if err != nil {
		c.Logger.WarnContext(ctx, "select functions", "error", err)
		return ""
	}
	if len(titles) == 0 {
		return ""
	}
	return c.KB.SourceFor(titles)
}

// GenerateCode asks the generator for the cell's code. A generator failure is attached to the cell.
func (c *Controller) GenerateCode(ctx context.Context, sess *sessions.Session, i int) error {
	const op = "generate code"
	ctx = c.span(ctx)
	cell, err := c.cell(op, sess, i)
	if err != nil {
		return err
	}
	if c.Generator == nil {
		return fault(op, "no code generator configured")
	}
	if !sess.Loaded() {
		return fault(op, "no dataset loaded")
	}

	started := time.Now()
	code, err := c.Generator.Generate(ctx, c.request(sess, cell, c.hints(ctx, cell.Step)))
	elapsed := time.Since(started)
	if err != nil {
		cell.Error = fmt.Sprintf("generate code: %v", logs.WrapSpan(ctx, err))
		c.Logger.WarnContext(ctx, "generate code", "cell", cell.ID, "error", err)
		return nil
	}
	cell.Code = code
	cell.Reset()
	cell.GenDuration = elapsed
	c.transition(ctx, cell, cell.State)
	return nil
}

// SetCode replaces a cell's code by hand.
func (c *Controller) SetCode(ctx context.Context, sess *sessions.Session, i int, code string) error {
	cell, err := c.cell("set code", sess, i)
	if err != nil {
		return err
	}
	cell.SetCode(code)
	cell.Error = ""
	c.transition(ctx, cell, cell.State)
	return nil
}

// Run executes a cell, repairing it through the generator until it succeeds, needs an install decision, or is abandoned.
func (c *Controller) Run(ctx context.Context, sess *sessions.Session, i int) error {
	const op = "run"
	ctx = c.span(ctx)
	cell, err := c.cell(op, sess, i)
	if err != nil {
		return err
	}
	if !sess.Loaded() {
		return fault(op, "no dataset loaded")
	}
	if cell.Code == "" {
		return fault(op, "cell %d has no code", i)
	}
	switch cell.State {
	case cells.Executing, cells.FixPending:
		return fault(op, "cell %d is %s", i, cell.State)
	case cells.Abandoned:
		// explicit rerun starts a new attempt cycle
		cell.Attempts = 0
	}
	return c.loop(ctx, sess, cell)
}

// RunAll runs cells in order and stops at the first one that does not succeed.
func (c *Controller) RunAll(ctx context.Context, sess *sessions.Session) error {
	ctx = c.span(ctx)
	for _, cell := range sess.Ledger.Cells() {
		if cell.Code == "" {
			if err := c.GenerateCode(ctx, sess, cell.ID); err != nil {
				return err
			}
			if cell.Code == "" {
				return nil
			}
		}
		if err := c.Run(ctx, sess, cell.ID); err != nil {
			return err
		}
		if cell.State != cells.Succeeded {
			return nil
		}
	}
	return nil
}

func (c *Controller) base(sess *sessions.Session, cell *cells.Cell) (snapshots.Snapshot, error) {
	if c.Policy.PinSnapshots && cell.BaseVersion >= 0 {
		if snapshot, ok := sess.History.At(cell.BaseVersion); ok {
			return snapshot, nil
		}
	}
	return sess.History.Current()
}

func (c *Controller) loop(ctx context.Context, sess *sessions.Session, cell *cells.Cell) error {
	// selected once and shared by every fix of this run
	var hints *string
	for {

		if missing := c.Resolver.Missing(cell.Code); len(missing) > 0 {
			cell.Missing = missing
			cell.Error = ""
			c.transition(ctx, cell, cells.AwaitingDependencyDecision)
			return nil
		}
		cell.Missing = nil

		base, err := c.base(sess, cell)
		if err != nil {
			return fault("run", "%v", err)
		}
		rerun := cell.State == cells.Succeeded && cell.Code == cell.ExecutedCode

		c.transition(ctx, cell, cells.Executing)
		res := c.Sandbox.Run(ctx, cell.Code, base.Frame)
		cell.BaseVersion = base.Version
		cell.ExecDuration = res.Duration
		cell.Stdout = res.Stdout
		cell.Displayed = res.Displayed
		attempt := cells.Attempt{
			Code:        cell.Code,
			BaseVersion: base.Version,
			Duration:    res.Duration,
		}
		if res.Err != nil {
			attempt.Kind = res.Err.Kind
			attempt.Message = res.Err.Message
		}
		cell.Log = append(cell.Log, attempt)

		if res.Err == nil {
			snapshot := sess.History.Commit(res.Frame, cell.ID)
			sess.Metadata = frames.Describe(res.Frame)
			cell.CommitVersion = snapshot.Version
			cell.Result = cells.Result{
				Frame: res.Frame,
				Chart: res.Chart,
			}
			cell.Error = ""
			cell.ExecutedCode = cell.Code
			if !rerun {
				cell.Attempts++
			}
			c.transition(ctx, cell, cells.Succeeded)
			return nil
		}

		cell.Result = cells.Result{}
		cell.Error = res.Err.Error()

		if ctx.Err() != nil {
			c.transition(ctx, cell, cells.Abandoned)
			return nil
		}

		if res.Err.Kind == sandboxes.KindMissingDependency {
			cell.Missing = []string{res.Err.Module}
			c.transition(ctx, cell, cells.AwaitingDependencyDecision)
			return nil
		}

		cell.Attempts++
		c.transition(ctx, cell, cells.Failed)
		if c.Policy.MaxAttempts > 0 && cell.Attempts >= c.Policy.MaxAttempts {
			c.transition(ctx, cell, cells.Abandoned)
			return nil
		}
		if c.Generator == nil {
			return nil
		}

		c.transition(ctx, cell, cells.FixPending)
		if hints == nil {
			selected := c.hints(ctx, cell.Step)
			hints = &selected
		}
		req := c.request(sess, cell, *hints)
		req.Code = cell.Code
		req.Error = res.Err.Message
		started := time.Now()
		code, err := c.Generator.Fix(ctx, req)
		cell.GenDuration += time.Since(started)
		if err != nil {
			cell.Error = errors.Join(
				errors.New(cell.Error),
				fmt.Errorf("fix: %w", logs.WrapSpan(ctx, err)),
			).Error()
			if ctx.Err() != nil {
				c.transition(ctx, cell, cells.Abandoned)
			} else {
				c.transition(ctx, cell, cells.Failed)
			}
			return nil
		}
		cell.SetCode(code)
		c.transition(ctx, cell, cells.CodeReady)
	}
}

// ApproveInstall installs the cell's missing modules and resumes execution.
func (c *Controller) ApproveInstall(ctx context.Context, sess *sessions.Session, i int) error {
	const op = "approve install"
	ctx = c.span(ctx)
	cell, err := c.cell(op, sess, i)
	if err != nil {
		return err
	}
	if cell.State != cells.AwaitingDependencyDecision {
		return fault(op, "cell %d is %s", i, cell.State)
	}
	if c.Installer == nil {
		return fault(op, "no installer configured")
	}
	ok, msg := c.Installer.Install(ctx, cell.Missing)
	c.Logger.InfoContext(ctx, "install",
		"cell", cell.ID,
		"modules", cell.Missing,
		"ok", ok,
		"message", msg,
	)
	if !ok {
		cell.Error = fmt.Sprintf("install %v: %v", cell.Missing, logs.WrapSpan(ctx, errors.New(msg)))
		return nil
	}
	cell.Missing = nil
	cell.Error = ""
	c.transition(ctx, cell, cells.CodeReady)
	return c.loop(ctx, sess, cell)
}

// RejectInstall discards the install decision and leaves the cell unexecuted with its code.
func (c *Controller) RejectInstall(ctx context.Context, sess *sessions.Session, i int) error {
	const op = "reject install"
	cell, err := c.cell(op, sess, i)
	if err != nil {
		return err
	}
	if cell.State != cells.AwaitingDependencyDecision {
		return fault(op, "cell %d is %s", i, cell.State)
	}
	cell.Missing = nil
	cell.Error = ""
	cell.Result = cells.Result{}
	cell.Stdout = ""
	cell.Displayed = nil
	cell.ExecDuration = 0
	if cell.Code == "" {
		c.transition(ctx, cell, cells.Empty)
	} else {
		c.transition(ctx, cell, cells.CodeReady)
	}
	return nil
}

// Revert drops the current snapshot and resets cells according to the revert policy.
// It reports false when only the loaded dataset is left.
func (c *Controller) Revert(ctx context.Context, sess *sessions.Session) (bool, error) {
	if !sess.Loaded() {
		return false, fault("revert", "no dataset loaded")
	}
	removed, ok := sess.History.Revert()
	if !ok {
		c.Logger.InfoContext(ctx, "revert: nothing to revert")
		return false, nil
	}
	var n int
	switch c.Policy.Revert {
	case RevertDownstream:
		n = sess.Ledger.ResetFrom(removed.Version)
	default:
		n = sess.Ledger.ResetAll()
	}
	if current, err := sess.History.Current(); err == nil {
		sess.Metadata = frames.Describe(current.Frame)
	}
	c.Logger.InfoContext(ctx, "reverted",
		"version", removed.Version,
		"policy", c.Policy.Revert,
		"cells_reset", n,
	)
	return true, nil
}

// EditStep replaces a cell's step text, clearing its code and outcomes.
func (c *Controller) EditStep(ctx context.Context, sess *sessions.Session, i int, step string) error {
	cell, err := c.cell("edit step", sess, i)
	if err != nil {
		return err
	}
	cell.Edit(step)
	c.transition(ctx, cell, cells.Empty)
	return nil
}

// Abandon stops retrying a cell.
func (c *Controller) Abandon(ctx context.Context, sess *sessions.Session, i int) error {
	const op = "abandon"
	cell, err := c.cell(op, sess, i)
	if err != nil {
		return err
	}
	if cell.State == cells.Empty {
		return fault(op, "cell %d has no code", i)
	}
	cell.Missing = nil
	c.transition(ctx, cell, cells.Abandoned)
	return nil
}
