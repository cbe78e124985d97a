package debugs

import (
	"context"
	"maps"
	"slices"

	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/pkgs"
	"go.starlark.net/repl"
	"go.starlark.net/starlark"
)

// Tap opens an interactive Starlark prompt with the given values bound as globals.
type Tap func(ctx context.Context, what string, globals map[string]any)

func (Module) Tap(
	logger logs.Logger,
	registry *pkgs.Registry,
) Tap {
	return func(ctx context.Context, what string, globals map[string]any) {
		logger.InfoContext(ctx, "tap: "+what,
			"globals", slices.Sorted(maps.Keys(globals)),
		)
		defer func() {
			logger.InfoContext(ctx, "tap end: "+what)
		}()

		mappings := registry.Globals()
		for name, value := range globals {
			mappings[name] = toStarlarkValue(value)
		}

		thread := &starlark.Thread{
			Name: "tap",
			Load: registry.Loader(),
		}
		repl.REPLOptions(pkgs.FileOptions, thread, mappings)
	}
}
