package codes

import (
	"github.com/reusee/dscope"
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/generators"
	"github.com/reusee/taicell/logs"
)

type Module struct {
	dscope.Module
	Generators generators.Module
	Configs    configs.Module
	Logs       logs.Module
}
