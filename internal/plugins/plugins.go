// Package plugins loads YAML plugin manifests and exposes their hooks.
//
// A manifest looks like:
//
//	name: notes
//	version: 1.2.0
//	requires: ">=0.3.0"
//	config:
//	  defaults:
//	    VERSION: 1.2.0          # available as NOTES_VERSION
//	  set:
//	    RUN_SMTP: false
//	hooks:
//	  build-image:
//	    notes: "{{ DOCKER_REGISTRY }}edxctl/notes:{{ NOTES_VERSION }}"
//	  remote-image:
//	    notes: "{{ DOCKER_REGISTRY }}edxctl/notes:{{ NOTES_VERSION }}"
//
// Hook payloads are kept as raw YAML nodes; their shape is validated by the
// consumer of each hook.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/tnk4on/edxctl/internal/config"
)

// Hook names consumed by the image commands
const (
	HookBuildImage  = "build-image"
	HookRemoteImage = "remote-image"
)

// ErrNotFound is returned when an enabled plugin has no manifest
var ErrNotFound = errors.New("plugin not found")

// Plugin is a loaded plugin manifest
type Plugin struct {
	Name     string               `yaml:"name"`
	Version  string               `yaml:"version"`
	Requires string               `yaml:"requires,omitempty"`
	Config   PluginConfig         `yaml:"config,omitempty"`
	Hooks    map[string]yaml.Node `yaml:"hooks,omitempty"`

	// Path is the manifest file the plugin was loaded from
	Path string `yaml:"-"`
}

// PluginConfig contains configuration contributed by a plugin
type PluginConfig struct {
	// Defaults are namespaced with the upper-cased plugin name
	Defaults config.Values `yaml:"defaults,omitempty"`
	// Set overrides defaults of other keys
	Set config.Values `yaml:"set,omitempty"`
}

// HookEntry is one plugin's payload for a hook
type HookEntry struct {
	Plugin  string
	Payload *yaml.Node
}

// DefaultDir returns the directory plugin manifests are loaded from
func DefaultDir() string {
	if v := os.Getenv(config.EnvPluginsRoot); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", config.DefaultRootDirName, "plugins")
}

// LoadManifest reads a single plugin manifest
func LoadManifest(path string) (*Plugin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin manifest %s: %w", path, err)
	}

	var p Plugin
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse plugin manifest %s: %w", path, err)
	}

	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	p.Path = path
	return &p, nil
}

// Discover returns every plugin manifest found in dir, sorted by name
func Discover(dir string) ([]*Plugin, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	var found []*Plugin
	for _, e := range entries {
		if e.IsDir() || !isManifest(e.Name()) {
			continue
		}
		p, err := LoadManifest(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		found = append(found, p)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

func isManifest(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yml" || ext == ".yaml"
}

// findManifest returns the manifest path of a plugin in dir
func findManifest(dir, name string) (string, error) {
	for _, ext := range []string{".yml", ".yaml"} {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %q has no manifest in %s", ErrNotFound, name, dir)
}

// CheckRequires verifies the plugin's version constraint against the running
// edxctl version. Development builds skip the check.
func (p *Plugin) CheckRequires(version string) error {
	if p.Requires == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(p.Requires)
	if err != nil {
		return fmt.Errorf("plugin %s: invalid requires %q: %w", p.Name, p.Requires, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		logrus.Debugf("Skipping requirement check of plugin %s for version %q", p.Name, version)
		return nil
	}
	if !constraint.Check(v) {
		return fmt.Errorf("plugin %s requires edxctl %s, running %s", p.Name, p.Requires, version)
	}
	return nil
}

// Registry holds enabled plugins in enable order
type Registry struct {
	plugins []*Plugin
}

// NewRegistry creates a registry from already loaded plugins
func NewRegistry(plugins ...*Plugin) *Registry {
	return &Registry{plugins: plugins}
}

// Load loads the plugins listed in the PLUGINS config key from dir,
// in the order they are listed.
func Load(cfg *config.Config, dir, version string) (*Registry, error) {
	r := &Registry{}
	seen := map[string]bool{}

	for _, name := range cfg.Strings(config.KeyPlugins) {
		if seen[name] {
			logrus.Warnf("Plugin %s is enabled more than once", name)
			continue
		}
		seen[name] = true

		path, err := findManifest(dir, name)
		if err != nil {
			return nil, err
		}
		p, err := LoadManifest(path)
		if err != nil {
			return nil, err
		}
		if err := p.CheckRequires(version); err != nil {
			return nil, err
		}
		logrus.Debugf("Loaded plugin %s %s from %s", p.Name, p.Version, path)
		r.plugins = append(r.plugins, p)
	}

	return r, nil
}

// Plugins returns the enabled plugins in enable order
func (r *Registry) Plugins() []*Plugin {
	return r.plugins
}

// IterHooks returns the payloads registered for a hook, in enable order.
// Plugins without the hook are skipped.
func (r *Registry) IterHooks(name string) []HookEntry {
	var entries []HookEntry
	for _, p := range r.plugins {
		node, ok := p.Hooks[name]
		if !ok {
			continue
		}
		entries = append(entries, HookEntry{Plugin: p.Name, Payload: &node})
	}
	return entries
}

// ConfigDefaults returns configuration contributed by the enabled plugins.
// Defaults are namespaced as <PLUGIN>_<KEY>; set values are used as-is.
func (r *Registry) ConfigDefaults() map[string]any {
	values := map[string]any{}
	for _, p := range r.plugins {
		prefix := strings.ToUpper(strings.ReplaceAll(p.Name, "-", "_")) + "_"
		for k, v := range p.Config.Defaults {
			values[prefix+k] = v
		}
	}
	for _, p := range r.plugins {
		for k, v := range p.Config.Set {
			values[k] = v
		}
	}
	return values
}
