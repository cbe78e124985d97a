package runs

import (
	"errors"
	"fmt"
)

var ErrOrchestrator = errors.New("orchestrator fault")

// OrchestratorFault reports a misuse of the controller. The session is left unchanged.
type OrchestratorFault struct {
	Op     string
	Reason string
}

func (e *OrchestratorFault) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *OrchestratorFault) Unwrap() error {
	return ErrOrchestrator
}

func fault(op string, format string, args ...any) error {
	return &OrchestratorFault{
		Op:     op,
		Reason: fmt.Sprintf(format, args...),
	}
}
