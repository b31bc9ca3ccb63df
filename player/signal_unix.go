//go:build !windows

package player

import (
	"os/exec"
	"syscall"
)

func suspend(cmd *exec.Cmd) {
	_ = cmd.Process.Signal(syscall.SIGSTOP)
}

func resume(cmd *exec.Cmd) {
	_ = cmd.Process.Signal(syscall.SIGCONT)
}
