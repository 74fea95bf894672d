//go:build !unix

package player

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

func signalProcess(cmd *exec.Cmd, kill bool) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
