// Package config provides configuration management for edxctl.
// A project configuration is a flat mapping of upper-case keys to values,
// layered from built-in defaults, plugin defaults, the project config file
// and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration of one project root
type Config struct {
	root   string
	values map[string]any
	// user tracks keys set by the config file or the environment
	user map[string]bool
}

// New creates a configuration from defaults overlaid with the given values.
// The given values are treated as user-defined.
func New(values map[string]any) *Config {
	cfg := DefaultConfig()
	for k, v := range values {
		cfg.Set(k, v)
	}
	return cfg
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		values: DefaultValues(),
		user:   map[string]bool{},
	}
}

// DefaultRoot returns the project root used when neither --root nor
// EDXCTL_ROOT is set.
func DefaultRoot() string {
	if v := os.Getenv(EnvRoot); v != "" {
		return expandHome(v)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", DefaultRootDirName)
}

// FilePath returns the path of the config file inside root
func FilePath(root string) string {
	return filepath.Join(root, ConfigFileName)
}

// Load reads the configuration of a project root.
// Values are applied in the following order (later overrides earlier):
// 1. Built-in defaults
// 2. <root>/config.yml
// 3. EDXCTL_<KEY> entries of <root>/.env
// 4. EDXCTL_<KEY> process environment variables
func Load(root string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.root = expandHome(root)

	path := FilePath(cfg.root)
	if _, err := os.Stat(path); err == nil {
		logrus.Debugf("Loading config from %s", path)
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	} else {
		logrus.Debugf("No config file at %s, using defaults", path)
	}

	dotEnv := filepath.Join(cfg.root, DotEnvFileName)
	if _, err := os.Stat(dotEnv); err == nil {
		env, err := godotenv.Read(dotEnv)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dotEnv, err)
		}
		logrus.Debugf("Applying overrides from %s", dotEnv)
		if err := applyEnvOverrides(cfg, env); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg, environ()); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads a single config file and merges it into the existing config
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fileValues Values
	if err := yaml.Unmarshal(data, &fileValues); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	for k, v := range fileValues {
		cfg.Set(k, v)
	}
	return nil
}

// applyEnvOverrides sets every EDXCTL_<KEY> entry of env as config key KEY.
// Values are parsed as YAML scalars so that "false" and "42" keep their type.
func applyEnvOverrides(cfg *Config, env map[string]string) error {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		if !strings.HasPrefix(name, EnvPrefix) || reservedEnv[name] {
			continue
		}
		key := strings.TrimPrefix(name, EnvPrefix)
		if key == "" {
			continue
		}
		value, err := ParseValue(env[name])
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
		logrus.Debugf("Config override %s from environment", key)
		cfg.Set(key, value)
	}
	return nil
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// ParseValue parses a command-line or environment value as YAML.
// Booleans, integers, lists and mappings keep their type; everything else,
// including floats such as "2.0", stays the raw string.
func ParseValue(s string) (any, error) {
	if s == "" {
		return "", nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s), &node); err != nil {
		return nil, err
	}
	v, err := nodeValue(&node)
	if err != nil {
		return nil, err
	}
	switch v.(type) {
	case bool, int, []any, map[string]any:
		return v, nil
	}
	return s, nil
}

// Root returns the project root the configuration was loaded from
func (c *Config) Root() string {
	return c.root
}

// Get returns the raw value of a key
func (c *Config) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// String returns the value of a key as a string, or "" if unset
func (c *Config) String(key string) string {
	v, ok := c.values[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the value of a key as a boolean.
// Missing or undecodable values yield def.
func (c *Config) Bool(key string, def bool) bool {
	v, ok := c.values[key]
	if !ok || v == nil {
		return def
	}
	b, err := ParseBool(v)
	if err != nil {
		logrus.Warnf("Config %s=%v is not a boolean, using %t", key, v, def)
		return def
	}
	return b
}

// Strings returns the value of a key as a list of strings
func (c *Config) Strings(key string) []string {
	v, ok := c.values[key]
	if !ok || v == nil {
		return nil
	}
	var out []string
	if err := mapstructure.WeakDecode(v, &out); err != nil {
		logrus.Warnf("Config %s=%v is not a list", key, v)
		return nil
	}
	return out
}

// Set sets a user-defined value
func (c *Config) Set(key string, value any) {
	c.values[key] = value
	c.user[key] = true
}

// Unset removes a user-defined value. Built-in defaults come back.
func (c *Config) Unset(key string) {
	delete(c.user, key)
	delete(c.values, key)
	if v, ok := DefaultValues()[key]; ok {
		c.values[key] = v
	}
}

// MergeDefaults adds values that are not user-defined.
// Used for defaults contributed by plugins.
func (c *Config) MergeDefaults(values map[string]any) {
	for k, v := range values {
		if c.user[k] {
			continue
		}
		c.values[k] = v
	}
}

// IsUserDefined reports whether key was set by the config file or environment
func (c *Config) IsUserDefined(key string) bool {
	return c.user[key]
}

// Keys returns all keys in sorted order
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy of all values
func (c *Config) Values() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// UserValues returns a copy of user-defined values
func (c *Config) UserValues() map[string]any {
	out := make(map[string]any, len(c.user))
	for k := range c.user {
		out[k] = c.values[k]
	}
	return out
}

// Save writes the user-defined values to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c.UserValues())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# edxctl project configuration
#
# Values are loaded in the following order (later overrides earlier):
# 1. Built-in and plugin defaults
# 2. This file
# 3. EDXCTL_<KEY> entries of .env in the project root
# 4. EDXCTL_<KEY> environment variables
#
`)
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []string

	for _, key := range c.Keys() {
		v := c.values[key]
		switch {
		case strings.HasPrefix(key, ImageKeyPrefix):
			s, ok := v.(string)
			if !ok || strings.TrimSpace(s) == "" {
				errs = append(errs, fmt.Sprintf("%s must be a non-empty string", key))
			}
		case strings.HasPrefix(key, RunKeyPrefix):
			if _, err := ParseBool(v); err != nil {
				errs = append(errs, fmt.Sprintf("%s must be a boolean, got %v", key, v))
			}
		}
	}

	if v, ok := c.values[KeyPlugins]; ok && v != nil {
		if _, isList := v.([]any); !isList {
			if _, isStrings := v.([]string); !isStrings {
				errs = append(errs, fmt.Sprintf("%s must be a list, got %T", KeyPlugins, v))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// expandHome expands a leading ~ to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
