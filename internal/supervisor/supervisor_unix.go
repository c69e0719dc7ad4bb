//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// applyHiddenWindow is a no-op outside Windows: there is no window to
// hide, and no other SysProcAttr tweak is needed to keep the child
// detached from this process's controlling terminal since stdin is
// already nil and stdout/stderr are piped.
func applyHiddenWindow(cmd *exec.Cmd) {}

func isAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}
