// Package config provides configuration management for edxctl.
// This file contains all default values and constants used throughout the application.
// All configurable defaults are centralized here.
package config

import (
	"strings"
)

// =============================================================================
// Files and Directories
// =============================================================================

const (
	// ConfigFileName is the name of the project configuration file inside the root
	ConfigFileName = "config.yml"
	// DotEnvFileName is the name of the optional env override file inside the root
	DotEnvFileName = ".env"
	// BuildDirName is the directory holding image build contexts inside the root
	BuildDirName = "build"
	// PluginsDirName is the directory holding plugin build contexts inside the root
	PluginsDirName = "plugins"
)

// =============================================================================
// Environment Variables
// =============================================================================

const (
	// EnvPrefix prefixes every environment variable that overrides a config key
	EnvPrefix = "EDXCTL_"
	// EnvRoot overrides the project root directory
	EnvRoot = "EDXCTL_ROOT"
	// EnvPluginsRoot overrides the directory plugin manifests are loaded from
	EnvPluginsRoot = "EDXCTL_PLUGINS_ROOT"
	// EnvDocker overrides the backend binary
	EnvDocker = "EDXCTL_DOCKER"
)

// reservedEnv are EDXCTL_* variables that control the tool itself and are
// never turned into config keys.
var reservedEnv = map[string]bool{
	EnvRoot:        true,
	EnvPluginsRoot: true,
	EnvDocker:      true,
}

// =============================================================================
// Configuration Keys
// =============================================================================

const (
	// KeyDockerRegistry is the registry prefix used by the default image tags
	KeyDockerRegistry = "DOCKER_REGISTRY"
	// KeyRelease is the platform release used by the default image tags
	KeyRelease = "RELEASE"
	// KeyDockerCommand is the backend command line (e.g. "docker" or "podman")
	KeyDockerCommand = "DOCKER_COMMAND"
	// KeyPlugins is the ordered list of enabled plugins
	KeyPlugins = "PLUGINS"

	// ImageKeyPrefix prefixes the key holding the tag template of an image
	ImageKeyPrefix = "DOCKER_IMAGE_"
	// RunKeyPrefix prefixes the boolean key enabling a vendor image
	RunKeyPrefix = "RUN_"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultDockerRegistry is the default registry prefix (with trailing slash)
	DefaultDockerRegistry = "docker.io/"
	// DefaultRelease is the default platform release
	DefaultRelease = "17.0.2"
	// DefaultDockerCommand is the default backend command
	DefaultDockerCommand = "docker"
	// DefaultRootDirName is the root directory name under the user data dir
	DefaultRootDirName = "edxctl"
)

// defaultImages maps image names to their default tag templates.
var defaultImages = map[string]string{
	"openedx":       "{{ DOCKER_REGISTRY }}edxctl/openedx:{{ RELEASE }}",
	"openedx-dev":   "edxctl/openedx-dev:{{ RELEASE }}",
	"forum":         "{{ DOCKER_REGISTRY }}edxctl/forum:{{ RELEASE }}",
	"caddy":         "docker.io/caddy:2.7.4",
	"elasticsearch": "docker.io/elasticsearch:7.17.13",
	"mongodb":       "docker.io/mongo:4.4.25",
	"mysql":         "docker.io/mysql:8.1.0",
	"nginx":         "docker.io/nginx:1.25.2",
	"redis":         "docker.io/redis:7.2.1",
	"smtp":          "docker.io/devture/exim-relay:4.96-r1-0",
}

// defaultRunImages are the vendor images that can be switched off with RUN_<NAME>.
var defaultRunImages = []string{
	"caddy",
	"elasticsearch",
	"mongodb",
	"mysql",
	"nginx",
	"redis",
	"smtp",
}

// DefaultValues returns a fresh copy of the built-in configuration values.
func DefaultValues() map[string]any {
	values := map[string]any{
		KeyDockerRegistry: DefaultDockerRegistry,
		KeyRelease:        DefaultRelease,
		KeyDockerCommand:  DefaultDockerCommand,
		KeyPlugins:        []any{},
	}
	for name, tag := range defaultImages {
		values[ImageKey(name)] = tag
	}
	for _, name := range defaultRunImages {
		values[RunKey(name)] = true
	}
	return values
}

// ImageKey returns the key holding the tag template of an image,
// e.g. "openedx-dev" -> "DOCKER_IMAGE_OPENEDX_DEV".
func ImageKey(image string) string {
	return ImageKeyPrefix + keySuffix(image)
}

// RunKey returns the key enabling a vendor image, e.g. "mysql" -> "RUN_MYSQL".
func RunKey(image string) string {
	return RunKeyPrefix + keySuffix(image)
}

func keySuffix(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
