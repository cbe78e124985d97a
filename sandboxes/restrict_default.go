//go:build !linux

package sandboxes

import "github.com/reusee/taicell/logs"

// Restrict is a no-op on non-Linux platforms.
func Restrict(logger logs.Logger, memoryLimitMB int) error {
	return nil
}
