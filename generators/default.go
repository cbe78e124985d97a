package generators

import (
	"github.com/reusee/taicell/cmds"
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/vars"
)

type GetDefaultGenerator func() (Generator, error)

func (Module) GetDefaultGenerator(
	name DefaultModelName,
	get GetGenerator,
) GetDefaultGenerator {
	return func() (Generator, error) {
		return get(string(name))
	}
}

var (
	defaultModelName = cmds.Var[string]("-model")
)

type DefaultModelName string

var _ configs.Configurable = DefaultModelName("")

func (DefaultModelName) ConfigExpr() string {
	return "model"
}

func (Module) DefaultModelName(
	loader configs.Loader,
	fallback FallbackModelName,
	logger logs.Logger,
) (ret DefaultModelName) {
	defer func() {
		logger.Info("default model", "name", ret)
	}()
	return vars.FirstNonZero(
		DefaultModelName(*defaultModelName),
		configs.Lookup[DefaultModelName](loader, "model_name"),
		DefaultModelName(fallback),
	)
}

type FallbackModelName string

func (Module) FallbackModelName() FallbackModelName {
	return "gemini-flash"
}
