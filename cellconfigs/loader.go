package cellconfigs

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/logs"
)

//go:embed schema.cue
var Schema string

var Filenames = []string{
	"taicell.cue",
	".taicell.cue",
}

// Paths lists existing config files, most specific first: working directory, user config dir, /etc.
func Paths() (paths []string) {
	var dirs []string
	if dir, err := os.Getwd(); err == nil {
		dirs = append(dirs, dir)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, "/etc")
	for _, dir := range dirs {
		for _, filename := range Filenames {
			path := filepath.Join(dir, filename)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}
	return
}

func (Module) ConfigsLoader(
	logger logs.Logger,
) configs.Loader {
	paths := Paths()
	if len(paths) > 0 {
		logger.Info("config file",
			"paths", paths,
		)
	}
	return configs.NewLoader(paths, Schema)
}
