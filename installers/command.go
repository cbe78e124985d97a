package installers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/reusee/taicell/logs"
)

// Command runs Args with the module names appended, e.g. a package manager wrapper.
type Command struct {
	Args   []string
	Logger logs.Logger
}

var _ Installer = new(Command)

func (c *Command) Install(ctx context.Context, names []string) (bool, string) {
	if len(c.Args) == 0 {
		return false, "empty install command"
	}
	args := append(c.Args[1:len(c.Args):len(c.Args)], names...)
	cmd := exec.CommandContext(ctx, c.Args[0], args...)
	output := new(bytes.Buffer)
	cmd.Stdout = output
	cmd.Stderr = output
	c.Logger.InfoContext(ctx, "run install command",
		"command", c.Args[0],
		"args", args,
	)
	if err := cmd.Run(); err != nil {
		return false, strings.TrimSpace(fmt.Sprintf("%s: %v\n%s", c.Args[0], err, output.String()))
	}
	msg := strings.TrimSpace(output.String())
	if msg == "" {
		msg = fmt.Sprintf("installed %s", strings.Join(names, ", "))
	}
	return true, msg
}
