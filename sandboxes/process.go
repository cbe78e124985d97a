package sandboxes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/reusee/taicell/frames"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/pkgs"
)

// Request is what the parent sends to a sandbox child on stdin.
type Request struct {
	Code          string            `json:"code"`
	Frame         *frames.Frame     `json:"frame"`
	Limits        Limits            `json:"limits"`
	ModulesDir    string            `json:"modules_dir"`
	Sources       map[string]string `json:"sources,omitempty"`
	MemoryLimitMB int               `json:"memory_limit_mb"`
}

// Process runs each fragment in a child process started from Command.
// The child is expected to call Child with its stdin and stdout.
type Process struct {
	Command       []string
	Registry      *pkgs.Registry
	Limits        Limits
	MemoryLimitMB int
	Logger        logs.Logger
}

var _ Sandbox = new(Process)

const processGrace = 5 * time.Second

func (p *Process) Run(ctx context.Context, code string, input *frames.Frame) (ret Result) {
	started := time.Now()
	defer func() {
		if ret.Duration == 0 {
			ret.Duration = time.Since(started)
		}
	}()

	if len(p.Command) == 0 {
		ret.Err = Fault("sandbox command not configured")
		return
	}

	if input == nil {
		input = frames.Empty()
	}
	req, err := json.Marshal(Request{
		Code:          code,
		Frame:         input,
		Limits:        p.Limits,
		ModulesDir:    p.Registry.Dir(),
		Sources:       p.Registry.Sources(),
		MemoryLimitMB: p.MemoryLimitMB,
	})
	if err != nil {
		ret.Err = Fault("encode sandbox request: %v", err)
		return
	}

	if p.Limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Limits.Timeout+processGrace)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.Command[0], p.Command[1:]...)
	cmd.Stdin = bytes.NewReader(req)
	stdout := new(bytes.Buffer)
	cmd.Stdout = stdout
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr

	runErr := cmd.Run()
	if stdout.Len() > 0 {
		if err := json.Unmarshal(stdout.Bytes(), &ret); err == nil {
			return
		} else if runErr == nil {
			ret.Err = Fault("decode sandbox response: %v", err)
			return
		}
	}

	msg := strings.TrimSpace(stderr.String())
	if ctx.Err() != nil {
		ret.Err = Fault("sandbox process killed: %v", context.Cause(ctx))
		return
	}
	if runErr != nil {
		p.Logger.WarnContext(ctx, "sandbox process failed",
			"error", runErr,
			"stderr", msg,
		)
		ret.Err = Fault("sandbox process failed: %v: %s", runErr, msg)
		return
	}
	ret.Err = Fault("sandbox process returned no result")
	return
}

// Serve handles one Request read from r and writes the Result to w.
func Serve(ctx context.Context, r io.Reader, w io.Writer, logger logs.Logger) error {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	registry := pkgs.NewRegistry(req.ModulesDir)
	for name, src := range req.Sources {
		registry.ProvideSource(name, src)
	}
	result := NewInProcess(registry, req.Limits, logger).Run(ctx, req.Code, req.Frame)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// Child is the entry point of a sandbox child process.
func Child(ctx context.Context, r io.Reader, w io.Writer, logger logs.Logger) error {
	buf, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var head struct {
		MemoryLimitMB int `json:"memory_limit_mb"`
	}
	if err := json.Unmarshal(buf, &head); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	if err := Restrict(logger, head.MemoryLimitMB); err != nil {
		return fmt.Errorf("restrict: %w", err)
	}
	return Serve(ctx, bytes.NewReader(buf), w, logger)
}
