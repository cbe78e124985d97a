package deps

import (
	"github.com/reusee/dscope"
	"github.com/reusee/taicell/pkgs"
)

type Module struct {
	dscope.Module
	Pkgs pkgs.Module
}

func (Module) Resolver(
	registry *pkgs.Registry,
) *Resolver {
	return NewResolver(registry)
}
