package deps

import (
	"slices"

	"github.com/reusee/taicell/pkgs"
	"go.starlark.net/syntax"
)

// Registry answers module availability questions.
type Registry interface {
	IsBuiltin(name string) bool
	Resolvable(name string) bool
}

var _ Registry = new(pkgs.Registry)

type Resolver struct {
	registry Registry
}

func NewResolver(registry Registry) *Resolver {
	return &Resolver{
		registry: registry,
	}
}

// Roots lists the root module names a fragment loads, sorted and deduplicated.
func Roots(code string) ([]string, error) {
	file, err := pkgs.FileOptions.Parse("fragment.star", Normalize(code), 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var roots []string
	syntax.Walk(file, func(node syntax.Node) bool {
		load, ok := node.(*syntax.LoadStmt)
		if !ok {
			return true
		}
		root := pkgs.Root(load.ModuleName())
		if root != "" && !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
		return false
	})
	slices.Sort(roots)
	return roots, nil
}

// Missing reports the root modules a fragment needs that cannot be resolved.
// A fragment that does not parse yields no missing modules; the parse error surfaces at execution.
func (r *Resolver) Missing(code string) []string {
	roots, err := Roots(code)
	if err != nil {
		return nil
	}
	var ret []string
	for _, root := range roots {
		if r.registry.IsBuiltin(root) {
			continue
		}
		if r.registry.Resolvable(root) {
			continue
		}
		ret = append(ret, root)
	}
	return ret
}
