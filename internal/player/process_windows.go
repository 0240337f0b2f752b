//go:build windows

package player

import (
	"os/exec"
	"syscall"
)

// setupPlayerProcess starts mpv in a new process group so console control events aimed at the TUI don't reach it
func setupPlayerProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
