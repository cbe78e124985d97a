package sandboxes

import (
	"context"
	"fmt"
	"time"

	"github.com/reusee/taicell/charts"
	"github.com/reusee/taicell/frames"
)

type Kind string

const (
	KindMissingDependency Kind = "missing_dependency"
	KindExecutionFault    Kind = "execution_fault"
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Module  string `json:"module,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Kind == KindMissingDependency {
		return fmt.Sprintf("missing dependency %s: %s", e.Module, e.Message)
	}
	return e.Message
}

func Fault(format string, args ...any) *Error {
	return &Error{
		Kind:    KindExecutionFault,
		Message: fmt.Sprintf(format, args...),
	}
}

// Display is one value passed to display(), in call order.
type Display struct {
	Text  string        `json:"text,omitempty"`
	Frame *frames.Frame `json:"frame,omitempty"`
	Chart *charts.Chart `json:"chart,omitempty"`
}

type Result struct {
	Frame     *frames.Frame `json:"frame,omitempty"`
	Chart     *charts.Chart `json:"chart,omitempty"`
	Stdout    string        `json:"stdout"`
	Displayed []Display     `json:"displayed,omitempty"`
	Err       *Error        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

type Sandbox interface {
	Run(ctx context.Context, code string, input *frames.Frame) Result
}

type Limits struct {
	Timeout   time.Duration `json:"timeout"`
	MaxSteps  uint64        `json:"max_steps"`
	MaxOutput int           `json:"max_output"`
}
