package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// IsRunning checks if the server process is still alive on Windows.
func IsRunning() (int, bool) {
	pid, err := ReadPid()
	if err != nil {
		return 0, false
	}
	// On Windows, FindProcess always succeeds. Use tasklist to verify.
	out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/NH").Output()
	if err != nil {
		return 0, false
	}
	if strings.Contains(string(out), fmt.Sprintf(" %d ", pid)) {
		return pid, true
	}
	return 0, false
}

// Stop terminates the server process on Windows.
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
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("failed to stop server (PID %d): %w", pid, err)
	}
	RemovePid()
	return nil
}

const _CREATE_NEW_PROCESS_GROUP = 0x00000200

// SysProcAttr returns SysProcAttr for detaching the child process on Windows.
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: _CREATE_NEW_PROCESS_GROUP}
}
