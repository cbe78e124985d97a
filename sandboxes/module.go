package sandboxes

import (
	"os"
	"time"

	"github.com/reusee/dscope"
	"github.com/reusee/taicell/cmds"
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/pkgs"
	"github.com/reusee/taicell/vars"
)

type Module struct {
	dscope.Module
	Pkgs pkgs.Module
}

type ExecTimeout string

func (ExecTimeout) ConfigExpr() string {
	return "exec_timeout"
}

type MaxSteps uint64

func (MaxSteps) ConfigExpr() string {
	return "max_steps"
}

type MaxOutputBytes int

func (MaxOutputBytes) ConfigExpr() string {
	return "max_output_bytes"
}

type MemoryLimitMB int

func (MemoryLimitMB) ConfigExpr() string {
	return "memory_limit_mb"
}

// Isolation selects where fragments execute: "inprocess" or "process".
type Isolation string

func (Isolation) ConfigExpr() string {
	return "sandbox"
}

const (
	IsolationInProcess Isolation = "inprocess"
	IsolationProcess   Isolation = "process"
)

// ChildCommand is the word that makes the binary act as a sandbox child.
const ChildCommand = "sandbox-exec"

var (
	execTimeoutFlag = cmds.Var[string]("-exec-timeout")
	maxStepsFlag    = cmds.Var[uint64]("-max-steps")
	isolationFlag   = cmds.Var[string]("-sandbox")
	memoryLimitFlag = cmds.Var[int]("-memory-limit-mb")
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxOutput = 1 << 20
)

func (Module) Limits(
	loader configs.Loader,
	logger logs.Logger,
) Limits {
	timeout := defaultTimeout
	if str := vars.FirstNonZero(
		*execTimeoutFlag,
		string(configs.Lookup[ExecTimeout](loader)),
	); str != "" {
		d, err := time.ParseDuration(str)
		if err != nil {
			logger.Warn("bad exec timeout", "value", str, "error", err)
		} else {
			timeout = d
		}
	}
	return Limits{
		Timeout: timeout,
		MaxSteps: vars.FirstNonZero(
			*maxStepsFlag,
			uint64(configs.Lookup[MaxSteps](loader)),
		),
		MaxOutput: vars.FirstNonZero(
			int(configs.Lookup[MaxOutputBytes](loader)),
			defaultMaxOutput,
		),
	}
}

func (Module) MemoryLimitMB(
	loader configs.Loader,
) MemoryLimitMB {
	return vars.FirstNonZero(
		MemoryLimitMB(*memoryLimitFlag),
		configs.Lookup[MemoryLimitMB](loader),
		2048,
	)
}

func (Module) Isolation(
	loader configs.Loader,
) Isolation {
	return vars.FirstNonZero(
		Isolation(*isolationFlag),
		configs.Lookup[Isolation](loader),
		IsolationInProcess,
	)
}

func (Module) Sandbox(
	isolation Isolation,
	registry *pkgs.Registry,
	limits Limits,
	memoryLimit MemoryLimitMB,
	logger logs.Logger,
) Sandbox {
	if isolation == IsolationProcess {
		exe, err := os.Executable()
		if err == nil {
			return &Process{
				Command:       []string{exe, ChildCommand},
				Registry:      registry,
				Limits:        limits,
				MemoryLimitMB: int(memoryLimit),
				Logger:        logger,
			}
		}
		logger.Warn("cannot locate executable, falling back to in-process sandbox", "error", err)
	} else if isolation != IsolationInProcess {
		logger.Warn("unknown sandbox isolation, using in-process", "isolation", isolation)
	}
	return NewInProcess(registry, limits, logger)
}
