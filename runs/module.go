package runs

import (
	"github.com/reusee/dscope"
	"github.com/reusee/taicell/cmds"
	"github.com/reusee/taicell/codes"
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/deps"
	"github.com/reusee/taicell/installers"
	"github.com/reusee/taicell/kbs"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/sandboxes"
	"github.com/reusee/taicell/vars"
)

type Module struct {
	dscope.Module
	Sandboxes  sandboxes.Module
	Deps       deps.Module
	Codes      codes.Module
	KBs        kbs.Module
	Installers installers.Module
}

type MaxAttempts int

func (MaxAttempts) ConfigExpr() string {
	return "max_attempts"
}

type RevertPolicyConfig string

func (RevertPolicyConfig) ConfigExpr() string {
	return "revert_policy"
}

type PinSnapshots bool

func (PinSnapshots) ConfigExpr() string {
	return "pin_snapshots"
}

const DefaultMaxAttempts = 5

var (
	maxAttemptsFlag  = cmds.Var[int]("-max-attempts")
	revertPolicyFlag = cmds.Var[string]("-revert-policy")
	pinSnapshotsFlag = cmds.Switch("-pin-snapshots")
)

func (Module) Policy(
	loader configs.Loader,
	logger logs.Logger,
) Policy {
	policy := Policy{
		MaxAttempts: vars.FirstNonZero(
			*maxAttemptsFlag,
			int(configs.Lookup[MaxAttempts](loader)),
			DefaultMaxAttempts,
		),
		Revert: RevertPolicy(vars.FirstNonZero(
			*revertPolicyFlag,
			string(configs.Lookup[RevertPolicyConfig](loader)),
			string(RevertAll),
		)),
		PinSnapshots: *pinSnapshotsFlag || bool(configs.Lookup[PinSnapshots](loader)),
	}
	switch policy.Revert {
	case RevertAll, RevertDownstream:
	default:
		logger.Warn("unknown revert policy, using all", "policy", policy.Revert)
		policy.Revert = RevertAll
	}
	logger.Info("run policy",
		"max_attempts", policy.MaxAttempts,
		"revert", policy.Revert,
		"pin_snapshots", policy.PinSnapshots,
	)
	return policy
}

func (Module) Controller(
	sandbox sandboxes.Sandbox,
	resolver *deps.Resolver,
	generator *codes.CodeGenerator,
	kb *kbs.KnowledgeBase,
	installer installers.Installer,
	policy Policy,
	logger logs.Logger,
	newSpan logs.NewSpan,
) *Controller {
	return &Controller{
		Sandbox:   sandbox,
		Resolver:  resolver,
		Generator: generator,
		Planner:   generator,
		Selector:  generator,
		KB:        kb,
		Installer: installer,
		Policy:    policy,
		Logger:    logger,
		NewSpan:   newSpan,
	}
}
