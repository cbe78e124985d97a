package cellconfigs

import (
	"github.com/reusee/dscope"
	"github.com/reusee/taicell/logs"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}
