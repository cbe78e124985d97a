package debugs

import (
	"github.com/reusee/dscope"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/pkgs"
)

type Module struct {
	dscope.Module
	Logs logs.Module
	Pkgs pkgs.Module
}
