package testutil

import (
	"path/filepath"
	"testing"

	"github.com/tnk4on/edxctl/internal/config"
	"github.com/tnk4on/edxctl/internal/plugins"
)

// Test registry and release used by the sample configuration
const (
	TestRegistry = "registry.example.com/"
	TestRelease  = "17.0.2"
)

// SampleConfigYAML returns a config.yml pinning the registry and release
func SampleConfigYAML() string {
	return `DOCKER_REGISTRY: registry.example.com/
RELEASE: 17.0.2
RUN_ELASTICSEARCH: false
`
}

// NotesPluginYAML returns a plugin manifest contributing two build images
// and one remote image.
func NotesPluginYAML() string {
	return `name: notes
version: 1.0.0
config:
  defaults:
    VERSION: 3.1.0
hooks:
  build-image:
    notes: "{{ DOCKER_REGISTRY }}edxctl/notes:{{ NOTES_VERSION }}"
    notes-worker: "edxctl/notes-worker:{{ NOTES_VERSION }}"
  remote-image:
    notes: "{{ DOCKER_REGISTRY }}edxctl/notes:{{ NOTES_VERSION }}"
`
}

// MFEPluginYAML returns a plugin manifest contributing one build image
func MFEPluginYAML() string {
	return `name: mfe
version: 1.0.0
hooks:
  build-image:
    mfe: "{{ DOCKER_REGISTRY }}edxctl/mfe:{{ RELEASE }}"
`
}

// InvalidHookPluginYAML returns a plugin manifest whose build-image hook
// is a list instead of a mapping.
func InvalidHookPluginYAML() string {
	return `name: broken
version: 1.0.0
hooks:
  build-image:
    - broken
`
}

// UnknownKeyPluginYAML returns a plugin manifest whose tag references an
// undefined configuration key.
func UnknownKeyPluginYAML() string {
	return `name: typo
version: 1.0.0
hooks:
  build-image:
    typo: "edxctl/typo:{{ NOT_A_KEY }}"
`
}

// SetupRoot creates a project root containing configYAML as config.yml
func SetupRoot(t *testing.T, configYAML string) string {
	t.Helper()
	root := t.TempDir()
	WriteFile(t, root, config.ConfigFileName, configYAML)
	return root
}

// SetupPlugins writes plugin manifests, keyed by plugin name, into a
// temporary plugins directory and returns it.
func SetupPlugins(t *testing.T, manifests map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range manifests {
		WriteFile(t, dir, name+".yml", content)
	}
	return dir
}

// LoadConfig loads the configuration of root with plugin defaults merged in
func LoadConfig(t *testing.T, root string, registry *plugins.Registry) *config.Config {
	t.Helper()
	IsolateEnv(t)
	cfg, err := config.Load(root)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if registry != nil {
		cfg.MergeDefaults(registry.ConfigDefaults())
	}
	return cfg
}

// LoadRegistry loads the named plugins from dir, in order
func LoadRegistry(t *testing.T, dir string, names ...string) *plugins.Registry {
	t.Helper()
	loaded := make([]*plugins.Plugin, 0, len(names))
	for _, name := range names {
		p, err := plugins.LoadManifest(filepath.Join(dir, name+".yml"))
		if err != nil {
			t.Fatalf("failed to load plugin %s: %v", name, err)
		}
		loaded = append(loaded, p)
	}
	return plugins.NewRegistry(loaded...)
}
