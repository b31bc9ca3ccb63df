//go:build windows

package player

import "os/exec"

// Windows has no job-control signals; pause and resume are no-ops and the
// external player keeps running.
func suspend(cmd *exec.Cmd) {}

func resume(cmd *exec.Cmd) {}
