package installers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/nets"
)

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)

const maxModuleSize = 4 << 20

// Index downloads <URL>/<name>.star into Dir.
type Index struct {
	URL    string
	Dir    string
	Client nets.HTTPClient
	Logger logs.Logger
}

var _ Installer = new(Index)

func (i *Index) Install(ctx context.Context, names []string) (bool, string) {
	if err := os.MkdirAll(i.Dir, 0o755); err != nil {
		return false, fmt.Sprintf("create modules dir: %v", err)
	}
	var installed []string
	for _, name := range names {
		if err := i.fetch(ctx, name); err != nil {
			i.Logger.WarnContext(ctx, "install module", "name", name, "error", err)
			return false, fmt.Sprintf("install %s: %v", name, err)
		}
		i.Logger.InfoContext(ctx, "module installed", "name", name, "dir", i.Dir)
		installed = append(installed, name)
	}
	return true, fmt.Sprintf("installed %s", strings.Join(installed, ", "))
}

func (i *Index) fetch(ctx context.Context, name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid module name %q", name)
	}
	u, err := url.JoinPath(i.URL, name+".star")
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := i.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %d", resp.StatusCode)
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, maxModuleSize+1))
	if err != nil {
		return err
	}
	if len(content) > maxModuleSize {
		return fmt.Errorf("module larger than %d bytes", maxModuleSize)
	}

	// write then rename so a partial download is never loadable
	tmp, err := os.CreateTemp(i.Dir, "."+name+"-*.star")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(i.Dir, name+".star"))
}
