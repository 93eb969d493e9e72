package testutil

import (
	"os/exec"
	"runtime"
	"testing"
)

// SkipIfDockerUnavailable skips the test if docker is not available or not functional.
func SkipIfDockerUnavailable(t *testing.T) {
	t.Helper()
	path, err := exec.LookPath("docker")
	if err != nil {
		t.Skip("docker not available, skipping test")
	}
	// the daemon must answer, not just the client binary exist
	if err := exec.Command(path, "info").Run(); err != nil {
		t.Skipf("docker not functional (daemon may not be running): %v", err)
	}
}

// SkipIfWindows skips tests that need a POSIX shell.
func SkipIfWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Test is not supported on Windows")
	}
}

// SkipIfShort skips the test if running in short mode.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping in short mode")
	}
}
