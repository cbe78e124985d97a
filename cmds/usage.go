package cmds

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

func (p *Executor) PrintUsage() {
	p.WriteUsage(os.Stdout)
}

func (p *Executor) WriteUsage(w io.Writer) {
	seen := make(map[*Command]bool)
	var names []string
	for name, cmd := range p.commands {
		if seen[cmd] || slices.Contains(cmd.Aliases, name) {
			continue
		}
		seen[cmd] = true
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		writeCommand(w, name, p.commands[name], 0)
	}
}

func writeCommand(w io.Writer, name string, cmd *Command, depth int) {
	if cmd == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	line := indent + name
	if len(cmd.Aliases) > 0 {
		line += " (" + strings.Join(cmd.Aliases, ", ") + ")"
	}
	if cmd.Description != "" {
		line += "\t" + cmd.Description
	}
	fmt.Fprintln(w, line)
	subnames := make([]string, 0, len(cmd.Subs))
	for subname := range cmd.Subs {
		subnames = append(subnames, subname)
	}
	slices.Sort(subnames)
	for _, subname := range subnames {
		writeCommand(w, subname, cmd.Subs[subname], depth+1)
	}
}
