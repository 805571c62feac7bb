//go:build !windows

package daemon

import (
	"fmt"
	"os"
	"syscall"
)

// IsRunning checks if the server process recorded in the PID file is alive.
func IsRunning() (int, bool) {
	pid, err := ReadPid()
	if err != nil {
		return 0, false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	// Signal 0 checks if process exists without actually signaling it.
	err = proc.Signal(syscall.Signal(0))
	return pid, err == nil
}

// Stop sends SIGTERM to the server process.
func Stop() error {
	pid, running := IsRunning()
	if !running {
		RemovePid()
		return fmt.Errorf("server is not running")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to stop server (PID %d): %w", pid, err)
	}
	RemovePid()
	return nil
}

// SysProcAttr returns SysProcAttr for detaching the child process on Unix.
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
