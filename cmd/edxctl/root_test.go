package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/tnk4on/edxctl/internal/config"
	"github.com/tnk4on/edxctl/internal/images"
	"github.com/tnk4on/edxctl/internal/testutil"
)

func resetGlobals() {
	rootDir, pluginsDir, logFile = "", "", ""
	verbose, jsonOut, dryRun = false, false, false
	cfg, registry = nil, nil
	buildFlags = images.BuildFlags{}
	configSetValues, configUnsetValues = nil, nil
	configEditQuiet = false
	completionNoDesc = false
}

// executeCommand runs the root command with args and returns stdout and stderr
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetGlobals()
	t.Cleanup(resetGlobals)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	closeLogFile()
	return stdout.String(), stderr.String(), err
}

// setupProject creates a project root and a plugins directory with the
// notes plugin installed.
func setupProject(t *testing.T, configYAML string) (string, string) {
	t.Helper()
	testutil.IsolateEnv(t)
	t.Setenv(config.EnvDocker, "/nonexistent/edxctl-docker")
	root := testutil.SetupRoot(t, configYAML)
	dir := testutil.SetupPlugins(t, map[string]string{
		"notes":  testutil.NotesPluginYAML(),
		"broken": testutil.InvalidHookPluginYAML(),
	})
	return root, dir
}

func TestRootCommandStructure(t *testing.T) {
	subcommands := rootCmd.Commands()

	expectedCmds := map[string]bool{
		"images":     false,
		"plugins":    false,
		"config":     false,
		"version":    false,
		"completion": false,
	}

	for _, cmd := range subcommands {
		if _, ok := expectedCmds[cmd.Name()]; ok {
			expectedCmds[cmd.Name()] = true
		}
	}

	for name, found := range expectedCmds {
		if !found {
			t.Errorf("expected subcommand %q not found on root command", name)
		}
	}
}

func TestRootCommandGlobalFlags(t *testing.T) {
	expectedFlags := []string{"root", "plugins-dir", "verbose", "json", "dry-run", "log-file"}

	for _, flagName := range expectedFlags {
		if rootCmd.PersistentFlags().Lookup(flagName) == nil {
			t.Errorf("expected persistent flag %q not found on root command", flagName)
		}
	}
}

func TestRootCommandFlagShortcuts(t *testing.T) {
	tests := []struct {
		flagName string
		shortcut string
	}{
		{"root", "r"},
		{"verbose", "v"},
	}

	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := rootCmd.PersistentFlags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.flagName)
			}
			if flag.Shorthand != tt.shortcut {
				t.Errorf("flag %q shorthand = %q, want %q", tt.flagName, flag.Shorthand, tt.shortcut)
			}
		})
	}
}

func TestRootCommandMetadata(t *testing.T) {
	if rootCmd.Use != "edxctl" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "edxctl")
	}
	if rootCmd.Short == "" || rootCmd.Long == "" {
		t.Error("rootCmd descriptions should not be empty")
	}
	if rootCmd.Version == "" {
		t.Error("rootCmd.Version should not be empty")
	}
}

func TestGetConfigDefault(t *testing.T) {
	resetGlobals()
	if getConfig() == nil {
		t.Error("getConfig() should return default config when cfg is nil")
	}
	if getRegistry() == nil {
		t.Error("getRegistry() should return an empty registry when none is loaded")
	}
}

func TestLoadProjectMergesPluginDefaults(t *testing.T) {
	root, dir := setupProject(t, testutil.SampleConfigYAML()+"PLUGINS:\n  - notes\n")

	stdout, _, err := executeCommand(t, "config", "printvalue", "NOTES_VERSION", "--root", root, "--plugins-dir", dir)
	if err != nil {
		t.Fatalf("config printvalue failed: %v", err)
	}
	if stdout != "3.1.0\n" {
		t.Errorf("NOTES_VERSION = %q, want plugin default", stdout)
	}
}

func TestLoadProjectMissingPlugin(t *testing.T) {
	root, dir := setupProject(t, "PLUGINS:\n  - ghost\n")

	_, _, err := executeCommand(t, "images", "printtag", "all", "--root", root, "--plugins-dir", dir)
	if err == nil {
		t.Fatal("expected error for missing plugin, got nil")
	}
	testutil.AssertContains(t, err.Error(), "ghost")
}

func TestLoadProjectInvalidConfig(t *testing.T) {
	root, dir := setupProject(t, "DOCKER_IMAGE_OPENEDX: \"\"\n")

	_, _, err := executeCommand(t, "images", "printtag", "openedx", "--root", root, "--plugins-dir", dir)
	if err == nil {
		t.Fatal("expected configuration error, got nil")
	}
	testutil.AssertContains(t, err.Error(), "DOCKER_IMAGE_OPENEDX")
}

func TestLogFile(t *testing.T) {
	root, dir := setupProject(t, testutil.SampleConfigYAML())
	logPath := root + "/logs/edxctl.log"

	_, _, err := executeCommand(t, "images", "build", "openedx", "--dry-run",
		"--root", root, "--plugins-dir", dir, "--log-file", logPath)
	if err != nil {
		t.Fatalf("images build failed: %v", err)
	}
	testutil.AssertContains(t, testutil.ReadFile(t, logPath), "Building image "+testutil.TestRegistry+"edxctl/openedx:"+testutil.TestRelease)
}
