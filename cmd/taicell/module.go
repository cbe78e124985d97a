package main

import (
	"github.com/reusee/dscope"
	"github.com/reusee/taicell/cellconfigs"
	"github.com/reusee/taicell/debugs"
	"github.com/reusee/taicell/runs"
)

type Module struct {
	dscope.Module
	Runs    runs.Module
	Configs cellconfigs.Module
	Debugs  debugs.Module
}
