package installers

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Installer makes missing modules loadable. The message is shown to the user either way.
type Installer interface {
	Install(ctx context.Context, names []string) (ok bool, message string)
}

// Refuse is used when no install method is configured.
type Refuse struct{}

var _ Installer = Refuse{}

func (Refuse) Install(ctx context.Context, names []string) (bool, string) {
	return false, fmt.Sprintf("no installer configured, cannot install %s", strings.Join(names, ", "))
}

// Allowed wraps an installer with an allow-list. An empty list allows any name.
type Allowed struct {
	Names     []string
	Installer Installer
}

var _ Installer = Allowed{}

func (a Allowed) Install(ctx context.Context, names []string) (bool, string) {
	if len(names) == 0 {
		return false, "nothing to install"
	}
	if len(a.Names) > 0 {
		var denied []string
		for _, name := range names {
			if !slices.Contains(a.Names, name) {
				denied = append(denied, name)
			}
		}
		if len(denied) > 0 {
			return false, fmt.Sprintf("not in install allow-list: %s", strings.Join(denied, ", "))
		}
	}
	return a.Installer.Install(ctx, names)
}
