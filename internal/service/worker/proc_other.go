//go:build !unix

package worker

import "os/exec"

// configureProcess keeps exec's default cancel, which kills the worker itself.
func configureProcess(cmd *exec.Cmd) {}
