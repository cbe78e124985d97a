package debugs

import (
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/frames"
	"github.com/reusee/taicell/modes"
)

func TestTap(t *testing.T) {
	dscope.New(
		modes.ForTest(t),
		new(Module),
		dscope.Provide(configs.NewLoader(nil, "")),
	).Call(func(
		tap Tap,
	) {
		// stdin is not a terminal under go test, so the prompt returns at EOF
		tap(t.Context(), "test", map[string]any{
			"df": frames.MustNew([]string{"a"}, [][]any{{int64(1)}}),
			"n":  42,
		})
	})
}
