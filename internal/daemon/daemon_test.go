package daemon

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPidRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := ReadPid()
	require.Error(t, err)

	require.NoError(t, WritePid(4242))
	pid, err := ReadPid()
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)

	info, err := os.Stat(PidPath())
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	RemovePid()
	_, err = os.Stat(PidPath())
	assert.True(t, os.IsNotExist(err))
}

func TestReadPidInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, WritePid(1))
	require.NoError(t, os.WriteFile(PidPath(), []byte("nope\n"), 0600))

	_, err := ReadPid()
	assert.ErrorContains(t, err, "invalid PID file")
}

func TestIsRunning(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, running := IsRunning()
	assert.False(t, running, "no PID file")

	if runtime.GOOS == "windows" {
		t.Skip("tasklist lookup")
	}
	require.NoError(t, WritePid(os.Getpid()))
	pid, running := IsRunning()
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)
}

func TestChildArgs(t *testing.T) {
	got := ChildArgs([]string{"serve", "-d", "--port", "9000", "--daemon", "--template", "t.db"})
	assert.Equal(t, []string{"serve", "--port", "9000", "--template", "t.db"}, got)
}

func TestIsChild(t *testing.T) {
	t.Setenv(ChildEnv, "")
	assert.False(t, IsChild())
	t.Setenv(ChildEnv, "1")
	assert.True(t, IsChild())
}
