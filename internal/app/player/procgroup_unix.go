//go:build unix

package player

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the player in its own process group so that
// helper processes it spawns (e.g. yt-dlp under mpv) are stopped with it.
func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// signalProcess sends SIGTERM (or SIGKILL when kill is set) to the process group.
func signalProcess(cmd *exec.Cmd, kill bool) error {
	if cmd.Process == nil {
		return nil
	}
	sig := syscall.SIGTERM
	if kill {
		sig = syscall.SIGKILL
	}
	pid := cmd.Process.Pid
	if err := syscall.Kill(-pid, sig); err != nil {
		if err == syscall.ESRCH {
			return nil
		}
		// Fall back to the leader only
		return cmd.Process.Signal(sig)
	}
	return nil
}
