//go:build !windows

package debugger

import (
	"os/exec"
	"syscall"
)

// setupProcAttr configures platform-specific process attributes.
// The debugger gets its own process group so a timeout kills it together
// with anything it started.
func setupProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
