package kbs

import (
	"errors"
	"io/fs"

	"github.com/reusee/dscope"
	"github.com/reusee/taicell/cmds"
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/pkgs"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
	Pkgs    pkgs.Module
}

// ModuleName is the load name of the knowledge base inside fragments.
const ModuleName = "kb"

type Paths []string

var pathsFlag = cmds.Collect[string]("-kb")

// Paths merges kb_paths of every config file. Paths given by -kb replace them.
func (Module) Paths(
	loader configs.Loader,
) (ret Paths) {
	if len(*pathsFlag) > 0 {
		return Paths(*pathsFlag)
	}
	for paths := range configs.All[[]string](loader, "kb_paths") {
		ret = append(ret, paths...)
	}
	return
}

func (Module) KnowledgeBase(
	paths Paths,
	registry *pkgs.Registry,
	logger logs.Logger,
) *KnowledgeBase {
	var entries []Entry
	for _, path := range paths {
		loaded, err := ReadFile(path, logger)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("knowledge base file not found", "path", path)
			continue
		} else if err != nil {
			logger.Error("read knowledge base", "path", path, "error", err)
			continue
		}
		entries = append(entries, loaded...)
	}
	kb := New(entries)
	logger.Info("knowledge base",
		"entries", kb.Len(),
	)
	if kb.Len() > 0 {
		registry.ProvideSource(ModuleName, kb.Source())
	}
	return kb
}
