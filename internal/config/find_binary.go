// Package config provides configuration management for edxctl.
// This file contains helpers for finding the container backend binary.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
	"github.com/google/shlex"
)

const (
	// MinDockerVersion is the minimum docker client version.
	// 18.09 is the first release where BuildKit can be enabled with DOCKER_BUILDKIT=1.
	MinDockerVersion = "18.9.0"
)

// DockerCommand returns the backend command line as argv.
// EDXCTL_DOCKER wins over the DOCKER_COMMAND config key.
func DockerCommand(cfg *Config) ([]string, error) {
	line := os.Getenv(EnvDocker)
	if line == "" && cfg != nil {
		line = cfg.String(KeyDockerCommand)
	}
	if strings.TrimSpace(line) == "" {
		line = DefaultDockerCommand
	}

	argv, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", KeyDockerCommand, line, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty %s", KeyDockerCommand)
	}
	return argv, nil
}

// FindDockerBinary resolves the backend binary in priority order:
// 1. Absolute or relative path as given
// 2. PATH
// 3. System locations
func FindDockerBinary(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%s not found: %w", name, err)
		}
		return name, nil
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	for _, dir := range []string{"/usr/bin", "/usr/local/bin"} {
		loc := dir + string(os.PathSeparator) + name
		if _, err := os.Stat(loc); err == nil {
			return loc, nil
		}
	}

	return "", fmt.Errorf("%s not found in PATH", name)
}

// DockerVersion returns the client version reported by the backend binary
// (e.g. "24.0.7"). Returns empty string if it cannot be determined.
func DockerVersion(binary string) string {
	cmd := exec.Command(binary, "--version")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	// Parse: "Docker version 24.0.7, build afdd53b" or "podman version 4.9.3"
	return extractVersion(strings.TrimSpace(string(output)))
}

// extractVersion extracts the first dotted version token from a string.
func extractVersion(s string) string {
	for _, part := range strings.Fields(s) {
		clean := strings.TrimSuffix(part, ",")
		clean = strings.TrimSuffix(clean, ":")
		clean = strings.TrimPrefix(clean, "v")
		if len(clean) >= 3 && unicode.IsDigit(rune(clean[0])) && strings.Contains(clean, ".") {
			return clean
		}
	}
	return ""
}

// CompareVersions compares two version strings.
// Returns: -1 if a < b, 0 if a == b, 1 if a > b.
func CompareVersions(a, b string) (int, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", a, err)
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// CheckDockerVersion validates that the backend meets the minimum version.
// Podman reports its own version numbers and is always accepted.
func CheckDockerVersion(binary string) error {
	version := DockerVersion(binary)
	if version == "" {
		return fmt.Errorf("%s is not installed or version cannot be determined", binary)
	}
	if strings.Contains(binary, "podman") {
		return nil
	}
	cmp, err := CompareVersions(version, MinDockerVersion)
	if err != nil {
		return err
	}
	if cmp < 0 {
		return fmt.Errorf("docker %s is too old (required: >=%s)", version, MinDockerVersion)
	}
	return nil
}
