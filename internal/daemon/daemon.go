// Package daemon tracks a background `serve` process through a PID file.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dopejs/tmplvars/internal/config"
)

// ChildEnv marks the detached child started by `serve --daemon`.
const ChildEnv = "TMPLVARS_DAEMON_CHILD"

// PidPath returns the path to the PID file.
func PidPath() string {
	return filepath.Join(config.ConfigDirPath(), config.ServePidFile)
}

// IsChild reports whether this process is the detached server.
func IsChild() bool {
	return os.Getenv(ChildEnv) == "1"
}

// WritePid writes the given PID to the PID file atomically with 0600 permissions.
func WritePid(pid int) error {
	dir := filepath.Dir(PidPath())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp := PidPath() + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(pid)+"\n"), 0600); err != nil {
		return err
	}
	return os.Rename(tmp, PidPath())
}

// ReadPid reads the PID from the PID file.
func ReadPid() (int, error) {
	data, err := os.ReadFile(PidPath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

// RemovePid removes the PID file.
func RemovePid() {
	os.Remove(PidPath())
}

// ChildArgs returns args without the daemon flag, for re-executing the
// server in the foreground of a detached process.
func ChildArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch a {
		case "-d", "--daemon", "--daemon=true":
			continue
		}
		out = append(out, a)
	}
	return out
}
