package generators

import (
	"github.com/reusee/dscope"
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/debugs"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/nets"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Nets    nets.Module
	Logs    logs.Module
	Debugs  debugs.Module
}
