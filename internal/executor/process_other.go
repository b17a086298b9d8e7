//go:build !unix

package executor

import "os/exec"

// isolate keeps the default CommandContext behaviour (kill the child).
func isolate(cmd *exec.Cmd) {}

func reap(cmd *exec.Cmd) {}
