package installers

import (
	"strings"

	"github.com/reusee/dscope"
	"github.com/reusee/taicell/cmds"
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/nets"
	"github.com/reusee/taicell/pkgs"
	"github.com/reusee/taicell/vars"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
	Nets    nets.Module
	Pkgs    pkgs.Module
}

type IndexURL string

var _ configs.Configurable = IndexURL("")

func (IndexURL) ConfigExpr() string {
	return "install_index"
}

var (
	indexURLFlag = cmds.Var[string]("-install-index")
	commandFlag  = cmds.Var[string]("-install-command")
	allowFlag    = cmds.Collect[string]("-install-allow")
)

func (Module) Installer(
	loader configs.Loader,
	dir pkgs.ModulesDir,
	client nets.HTTPClient,
	logger logs.Logger,
) Installer {
	var installer Installer = Refuse{}

	command := strings.Fields(vars.FirstNonZero(
		*commandFlag,
		configs.First[string](loader, "install_command"),
	))
	index := vars.FirstNonZero(
		*indexURLFlag,
		string(configs.Lookup[IndexURL](loader)),
	)
	switch {
	case len(command) > 0:
		logger.Info("installer", "command", command)
		installer = &Command{
			Args:   command,
			Logger: logger,
		}
	case index != "":
		logger.Info("installer", "index", index, "dir", dir)
		installer = &Index{
			URL:    index,
			Dir:    string(dir),
			Client: client,
			Logger: logger,
		}
	default:
		logger.Info("no installer configured")
	}

	allow := *allowFlag
	for names := range configs.All[[]string](loader, "install_allow") {
		allow = append(allow, names...)
	}
	return Allowed{
		Names:     allow,
		Installer: installer,
	}
}
