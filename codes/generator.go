package codes

import (
	"sync"

	"github.com/reusee/taicell/cmds"
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/generators"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/vars"
)

var (
	planGeneratorNameFlag = cmds.Var[string]("-plan-model")
	codeGeneratorNameFlag = cmds.Var[string]("-code-model")
)

type GetPlanGenerator func() (generators.Generator, error)

type GetCodeGenerator func() (generators.Generator, error)

type GetDefaultGenerator func() (generators.Generator, error)

func (Module) GetDefaultGenerator(
	get generators.GetDefaultGenerator,
) GetDefaultGenerator {
	return sync.OnceValues(get)
}

func (Module) GetPlanGenerator(
	get generators.GetGenerator,
	loader configs.Loader,
	getDefault GetDefaultGenerator,
	logger logs.Logger,
) GetPlanGenerator {
	return sync.OnceValues(roleGenerator(
		"plan", *planGeneratorNameFlag, loader, get, getDefault, logger,
	))
}

func (Module) GetCodeGenerator(
	get generators.GetGenerator,
	loader configs.Loader,
	getDefault GetDefaultGenerator,
	logger logs.Logger,
) GetCodeGenerator {
	return sync.OnceValues(roleGenerator(
		"code", *codeGeneratorNameFlag, loader, get, getDefault, logger,
	))
}

// roleGenerator picks the model named by flag, then by config key <role>_model, then the default model.
func roleGenerator(
	role string,
	flagValue string,
	loader configs.Loader,
	get generators.GetGenerator,
	getDefault GetDefaultGenerator,
	logger logs.Logger,
) func() (generators.Generator, error) {
	return func() (generators.Generator, error) {
		name := vars.FirstNonZero(
			flagValue,
			configs.First[string](loader, role+"_model"),
		)
		if name != "" {
			logger.Info(role+" model", "name", name)
			return get(name)
		}
		logger.Info("use default model", "role", role)
		return getDefault()
	}
}
