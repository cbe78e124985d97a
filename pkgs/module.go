package pkgs

import (
	"os"
	"path/filepath"

	"github.com/reusee/dscope"
	"github.com/reusee/taicell/cmds"
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/vars"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
}

type ModulesDir string

var _ configs.Configurable = ModulesDir("")

func (ModulesDir) ConfigExpr() string {
	return "modules_dir"
}

var modulesDirFlag = cmds.Var[string]("-modules-dir")

func (Module) ModulesDir(
	loader configs.Loader,
	logger logs.Logger,
) (ret ModulesDir) {
	defer func() {
		logger.Info("modules dir", "path", ret)
	}()
	var fallback ModulesDir
	if dir, err := os.UserCacheDir(); err == nil {
		fallback = ModulesDir(filepath.Join(dir, "taicell", "modules"))
	}
	return vars.FirstNonZero(
		ModulesDir(*modulesDirFlag),
		configs.Lookup[ModulesDir](loader),
		ModulesDir(os.Getenv("TAICELL_MODULES_DIR")),
		fallback,
	)
}

func (Module) Registry(
	dir ModulesDir,
) *Registry {
	return NewRegistry(string(dir))
}
