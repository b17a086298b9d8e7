//go:build unix

package executor

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// isolate places the child in its own process group so that the deadline
// kill reaches anything it spawned.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return killGroup(cmd)
	}
}

// reap kills whatever is left of the child's process group after Wait.
func reap(cmd *exec.Cmd) {
	_ = killGroup(cmd)
}

func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
