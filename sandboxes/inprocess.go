package sandboxes

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/reusee/taicell/charts"
	"github.com/reusee/taicell/deps"
	"github.com/reusee/taicell/frames"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/pkgs"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Names bound in every fragment namespace.
const (
	DatasetName = "df"
	ChartName   = "fig"
	DisplayName = "display"
)

// InProcess runs fragments on a Starlark thread in the calling process.
type InProcess struct {
	registry *pkgs.Registry
	limits   Limits
	logger   logs.Logger
}

var _ Sandbox = new(InProcess)

func NewInProcess(registry *pkgs.Registry, limits Limits, logger logs.Logger) *InProcess {
	return &InProcess{
		registry: registry,
		limits:   limits,
		logger:   logger,
	}
}

func (s *InProcess) Run(ctx context.Context, code string, input *frames.Frame) (ret Result) {
	started := time.Now()
	defer func() {
		ret.Duration = time.Since(started)
		s.logger.DebugContext(ctx, "fragment executed",
			"duration", ret.Duration,
			"failed", ret.Err != nil,
		)
	}()

	if input == nil {
		input = frames.Empty()
	}

	file, err := pkgs.FileOptions.Parse("cell.star", deps.Normalize(code), 0)
	if err != nil {
		ret.Err = Fault("%v", err)
		return
	}

	output := &limitedBuffer{
		max: s.limits.MaxOutput,
	}
	var displayed []Display

	thread := &starlark.Thread{
		Name: "cell",
		Print: func(_ *starlark.Thread, msg string) {
			output.WriteString(msg)
			output.WriteString("\n")
		},
		Load: s.registry.Loader(),
	}
	if s.limits.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(s.limits.MaxSteps)
	}

	globals := s.registry.Globals()
	globals[DatasetName] = frames.NewTable(input)
	globals[ChartName] = starlark.None
	globals[DisplayName] = starlark.NewBuiltin(DisplayName, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
		}
		for _, arg := range args {
			displayed = append(displayed, toDisplay(arg))
		}
		return starlark.None, nil
	})

	if s.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(
			ctx,
			s.limits.Timeout,
			fmt.Errorf("execution exceeded time limit of %v", s.limits.Timeout),
		)
		defer cancel()
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(context.Cause(ctx).Error())
		case <-done:
		}
	}()

	err = execChunk(file, thread, globals)

	ret.Stdout = output.String()
	ret.Displayed = displayed
	if err != nil {
		ret.Err = classify(err)
		return
	}

	switch v := globals[DatasetName].(type) {
	case *frames.Table:
		ret.Frame = v.Frame()
	default:
		ret.Err = Fault("%s must be a table, got %s", DatasetName, v.Type())
		return
	}

	switch v := globals[ChartName].(type) {
	case starlark.NoneType:
	case charts.Value:
		ret.Chart = v.Chart
	default:
		ret.Err = Fault("%s must be a chart or None, got %s", ChartName, v.Type())
		return
	}

	return
}

func execChunk(file *syntax.File, thread *starlark.Thread, globals starlark.StringDict) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return starlark.ExecREPLChunk(file, thread, globals)
}

var notFoundPattern = regexp.MustCompile(`No module named '([^']+)'`)

func classify(err error) *Error {
	var notFound *pkgs.NotFoundError
	if errors.As(err, &notFound) {
		return &Error{
			Kind:    KindMissingDependency,
			Module:  pkgs.Root(notFound.Name),
			Message: err.Error(),
		}
	}

	msg := err.Error()
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		msg = evalErr.Backtrace()
	}
	if m := notFoundPattern.FindStringSubmatch(msg); m != nil {
		return &Error{
			Kind:    KindMissingDependency,
			Module:  pkgs.Root(m[1]),
			Message: msg,
		}
	}

	return &Error{
		Kind:    KindExecutionFault,
		Message: msg,
	}
}

func toDisplay(v starlark.Value) Display {
	switch v := v.(type) {
	case *frames.Table:
		return Display{
			Frame: v.Frame(),
		}
	case charts.Value:
		return Display{
			Chart: v.Chart,
		}
	case starlark.String:
		return Display{
			Text: string(v),
		}
	}
	return Display{
		Text: v.String(),
	}
}

type limitedBuffer struct {
	builder   strings.Builder
	max       int
	truncated bool
}

func (b *limitedBuffer) WriteString(s string) {
	if b.max <= 0 {
		b.builder.WriteString(s)
		return
	}
	if b.truncated {
		return
	}
	if left := b.max - b.builder.Len(); len(s) > left {
		b.builder.WriteString(s[:left])
		b.builder.WriteString("\n[output truncated]\n")
		b.truncated = true
		return
	}
	b.builder.WriteString(s)
}

func (b *limitedBuffer) String() string {
	return b.builder.String()
}
