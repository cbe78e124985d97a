package cells

import (
	"fmt"
	"time"

	"github.com/reusee/taicell/charts"
	"github.com/reusee/taicell/frames"
	"github.com/reusee/taicell/sandboxes"
)

type State uint8

const (
	Empty State = iota
	CodeReady
	AwaitingDependencyDecision
	Executing
	Succeeded
	Failed
	FixPending
	Abandoned
)

var stateNames = [...]string{
	Empty:                      "empty",
	CodeReady:                  "code_ready",
	AwaitingDependencyDecision: "awaiting_dependency_decision",
	Executing:                  "executing",
	Succeeded:                  "succeeded",
	Failed:                     "failed",
	FixPending:                 "fix_pending",
	Abandoned:                  "abandoned",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the artifact of the last successful execution.
type Result struct {
	Frame *frames.Frame
	Chart *charts.Chart
}

func (r Result) IsZero() bool {
	return r.Frame == nil && r.Chart == nil
}

// Attempt records one execution of a cell.
type Attempt struct {
	Code        string
	BaseVersion int
	Kind        sandboxes.Kind
	Message     string
	Duration    time.Duration
}

func (a Attempt) Succeeded() bool {
	return a.Kind == ""
}

type Cell struct {
	ID   int
	Step string
	Code string

	State     State
	Stdout    string
	Displayed []sandboxes.Display
	Result    Result
	Error     string
	Attempts  int
	Missing   []string

	// snapshot version read by the last execution, -1 before any
	BaseVersion int
	// snapshot version committed by the last success, -1 if none
	CommitVersion int
	// code of the last successful execution
	ExecutedCode string

	GenDuration  time.Duration
	ExecDuration time.Duration
	Log          []Attempt
}

func New(id int, step string) *Cell {
	return &Cell{
		ID:            id,
		Step:          step,
		BaseVersion:   -1,
		CommitVersion: -1,
	}
}

// SetCode replaces the code and makes the cell runnable again.
func (c *Cell) SetCode(code string) {
	c.Code = code
	c.Missing = nil
	if code == "" {
		c.State = Empty
	} else {
		c.State = CodeReady
	}
}

// Reset clears every execution outcome, keeping step and code.
func (c *Cell) Reset() {
	c.Stdout = ""
	c.Displayed = nil
	c.Result = Result{}
	c.Error = ""
	c.Attempts = 0
	c.Missing = nil
	c.BaseVersion = -1
	c.CommitVersion = -1
	c.ExecutedCode = ""
	c.GenDuration = 0
	c.ExecDuration = 0
	c.Log = nil
	if c.Code == "" {
		c.State = Empty
	} else {
		c.State = CodeReady
	}
}

// Edit replaces the step text and discards code and outcomes.
func (c *Cell) Edit(step string) {
	c.Step = step
	c.Code = ""
	c.Reset()
}

func (c *Cell) Runnable() bool {
	switch c.State {
	case CodeReady, Succeeded, Failed, Abandoned:
		return c.Code != ""
	}
	return false
}

func (c *Cell) String() string {
	return fmt.Sprintf("cell %d [%s] attempts=%d", c.ID, c.State, c.Attempts)
}
