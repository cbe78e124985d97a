package runs

import (
	"context"

	"github.com/reusee/taicell/codes"
	"github.com/reusee/taicell/kbs"
)

type CodeGenerator interface {
	Generate(ctx context.Context, req codes.Request) (string, error)
	Fix(ctx context.Context, req codes.Request) (string, error)
}

type Planner interface {
	Plan(ctx context.Context, objective string, metadata string) (string, error)
}

type FunctionSelector interface {
	SelectFunctions(ctx context.Context, step string, summaries []kbs.Summary) ([]string, error)
}

type KnowledgeBase interface {
	Summaries() []kbs.Summary
	SourceFor(titles []string) string
}

type Installer interface {
	Install(ctx context.Context, names []string) (ok bool, message string)
}

type Resolver interface {
	Missing(code string) []string
}
