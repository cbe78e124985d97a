package pkgs

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/reusee/taicell/charts"
	"github.com/reusee/taicell/frames"
	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	"go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// FileOptions is the dialect shared by fragments and installed modules.
var FileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

type Registry struct {
	dir      string
	builtins map[string]*starlarkstruct.Module
	mu       sync.Mutex
	sources  map[string]string
}

func NewRegistry(dir string) *Registry {
	return &Registry{
		dir: dir,
		builtins: map[string]*starlarkstruct.Module{
			"math":   math.Module,
			"json":   json.Module,
			"time":   time.Module,
			"plot":   charts.Module,
			"frames": frames.Module,
			"struct": {
				Name: "struct",
				Members: starlark.StringDict{
					"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
				},
			},
		},
		sources: make(map[string]string),
	}
}

func (r *Registry) Dir() string {
	return r.dir
}

// ProvideSource registers a module defined by source text. It shadows an installed module of the same name.
func (r *Registry) ProvideSource(name string, src string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = src
}

func (r *Registry) Sources() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.sources)
}

// Builtins are always available and pre-bound in every fragment namespace.
func (r *Registry) Builtins() []string {
	names := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) IsBuiltin(name string) bool {
	_, ok := r.builtins[name]
	return ok
}

func (r *Registry) Globals() starlark.StringDict {
	ret := make(starlark.StringDict, len(r.builtins))
	for name, module := range r.builtins {
		ret[name] = module
	}
	return ret
}

func (r *Registry) source(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.sources[name]
	return src, ok
}

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)

func (r *Registry) modulePath(name string) (string, bool) {
	if r.dir == "" || !validName.MatchString(name) {
		return "", false
	}
	return filepath.Join(r.dir, name+".star"), true
}

// Resolvable reports whether the root module name can be loaded.
func (r *Registry) Resolvable(name string) bool {
	if r.IsBuiltin(name) {
		return true
	}
	if _, ok := r.source(name); ok {
		return true
	}
	path, ok := r.modulePath(name)
	if !ok {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Root returns the top-level module name of a load path.
func Root(module string) string {
	module = strings.TrimSuffix(module, ".star")
	if i := strings.IndexAny(module, "./:"); i >= 0 {
		return module[:i]
	}
	return module
}

func segments(module string) []string {
	module = strings.TrimSuffix(module, ".star")
	return strings.FieldsFunc(module, func(r rune) bool {
		return r == '.' || r == '/' || r == ':'
	})
}

type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No module named '%s'", e.Name)
}

// NoSubmoduleError reports a dotted load whose root module exists but lacks the named member.
// Installing anything cannot fix it.
type NoSubmoduleError struct {
	Module    string
	Submodule string
}

func (e *NoSubmoduleError) Error() string {
	return fmt.Sprintf("module '%s' has no submodule '%s'", e.Module, e.Submodule)
}

var errCycle = errors.New("cycle in load graph")

type cacheEntry struct {
	members starlark.StringDict
	err     error
	loading bool
}

// Loader returns a Thread.Load function with its own module cache.
// Installed modules execute on the loading thread so step limits and cancellation apply to them.
func (r *Registry) Loader() func(*starlark.Thread, string) (starlark.StringDict, error) {
	cache := make(map[string]*cacheEntry)

	var loadRoot func(thread *starlark.Thread, name string) (starlark.StringDict, error)
	loadRoot = func(thread *starlark.Thread, name string) (starlark.StringDict, error) {
		if e, ok := cache[name]; ok {
			if e.loading {
				return nil, errCycle
			}
			return e.members, e.err
		}
		entry := &cacheEntry{loading: true}
		cache[name] = entry
		entry.members, entry.err = r.loadRoot(thread, name)
		entry.loading = false
		return entry.members, entry.err
	}

	return func(thread *starlark.Thread, module string) (starlark.StringDict, error) {
		segs := segments(module)
		if len(segs) == 0 {
			return nil, &NotFoundError{Name: module}
		}
		members, err := loadRoot(thread, segs[0])
		if err != nil {
			return nil, err
		}
		for i, seg := range segs[1:] {
			sub, ok := members[seg].(*starlarkstruct.Module)
			if !ok {
				return nil, &NoSubmoduleError{
					Module:    strings.Join(segs[:i+1], "."),
					Submodule: seg,
				}
			}
			members = withSelf(seg, sub.Members)
		}
		return members, nil
	}
}

func withSelf(name string, members starlark.StringDict) starlark.StringDict {
	ret := make(starlark.StringDict, len(members)+1)
	for k, v := range members {
		ret[k] = v
	}
	if _, ok := ret[name]; !ok {
		ret[name] = &starlarkstruct.Module{
			Name:    name,
			Members: members,
		}
	}
	return ret
}

func (r *Registry) loadRoot(thread *starlark.Thread, name string) (starlark.StringDict, error) {
	if module, ok := r.builtins[name]; ok {
		ret := withSelf(name, module.Members)
		ret[name] = module
		return ret, nil
	}

	var filename string
	var src []byte
	if text, ok := r.source(name); ok {
		filename = name + ".star"
		src = []byte(text)
	} else {
		path, ok := r.modulePath(name)
		if !ok {
			return nil, &NotFoundError{Name: name}
		}
		content, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Name: name}
		} else if err != nil {
			return nil, err
		}
		filename = path
		src = content
	}
	globals, err := starlark.ExecFileOptions(FileOptions, thread, filename, src, r.Globals())
	if err != nil {
		return nil, err
	}
	globals.Freeze()
	return withSelf(name, globals), nil
}
