package plugins

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tnk4on/edxctl/internal/config"
)

const notesManifest = `name: notes
version: 1.2.0
requires: ">=0.3.0"
config:
  defaults:
    VERSION: 1.2.0
  set:
    RUN_SMTP: false
hooks:
  build-image:
    notes: "{{ DOCKER_REGISTRY }}edxctl/notes:{{ NOTES_VERSION }}"
    notes-worker: "edxctl/notes-worker:{{ NOTES_VERSION }}"
  remote-image:
    notes: "{{ DOCKER_REGISTRY }}edxctl/notes:{{ NOTES_VERSION }}"
`

const badManifest = `name: bad
hooks:
  build-image:
    - not
    - a
    - mapping
`

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "notes.yml", notesManifest)

	p, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() failed: %v", err)
	}

	if p.Name != "notes" {
		t.Errorf("Name = %q, want %q", p.Name, "notes")
	}
	if p.Version != "1.2.0" {
		t.Errorf("Version = %q, want %q", p.Version, "1.2.0")
	}
	if p.Path != path {
		t.Errorf("Path = %q, want %q", p.Path, path)
	}

	node, ok := p.Hooks[HookBuildImage]
	if !ok {
		t.Fatal("build-image hook not loaded")
	}
	if node.Kind != yaml.MappingNode {
		t.Errorf("build-image payload kind = %v, want mapping", node.Kind)
	}
	// mapping nodes hold key/value pairs in document order
	if len(node.Content) != 4 || node.Content[0].Value != "notes" || node.Content[2].Value != "notes-worker" {
		t.Errorf("unexpected build-image content order")
	}
}

func TestLoadManifestNameFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "unnamed.yaml", "version: 0.1.0\n")

	p, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() failed: %v", err)
	}
	if p.Name != "unnamed" {
		t.Errorf("Name = %q, want file name %q", p.Name, "unnamed")
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "broken.yml", "name: [unterminated\n")

	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for invalid manifest, got nil")
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "notes.yml", notesManifest)
	writeManifest(t, dir, "bad.yaml", badManifest)
	writeManifest(t, dir, "README.md", "# not a plugin\n")

	found, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Discover() found %d plugins, want 2", len(found))
	}
	if found[0].Name != "bad" || found[1].Name != "notes" {
		t.Errorf("Discover() order = [%s %s], want [bad notes]", found[0].Name, found[1].Name)
	}

	none, err := Discover(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("Discover() on missing dir failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Discover() on missing dir = %v, want empty", none)
	}
}

func TestLoadEnabledOrder(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "notes.yml", notesManifest)
	writeManifest(t, dir, "bad.yml", badManifest)

	cfg := config.New(map[string]any{config.KeyPlugins: []any{"notes", "bad", "notes"}})
	r, err := Load(cfg, dir, "1.0.0")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	got := r.Plugins()
	if len(got) != 2 {
		t.Fatalf("Load() returned %d plugins, want 2", len(got))
	}
	if got[0].Name != "notes" || got[1].Name != "bad" {
		t.Errorf("plugin order = [%s %s], want [notes bad]", got[0].Name, got[1].Name)
	}
}

func TestLoadMissingPlugin(t *testing.T) {
	cfg := config.New(map[string]any{config.KeyPlugins: []any{"ghost"}})
	_, err := Load(cfg, t.TempDir(), "1.0.0")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestCheckRequires(t *testing.T) {
	tests := []struct {
		name     string
		requires string
		version  string
		wantErr  bool
	}{
		{name: "no constraint", requires: "", version: "0.1.0"},
		{name: "satisfied", requires: ">=0.3.0", version: "1.0.0"},
		{name: "not satisfied", requires: ">=2.0.0", version: "1.0.0", wantErr: true},
		{name: "dev build skips check", requires: ">=2.0.0", version: "dev"},
		{name: "invalid constraint", requires: ">>nope", version: "1.0.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Plugin{Name: "x", Requires: tt.requires}
			err := p.CheckRequires(tt.version)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckRequires() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRequiresFailure(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "notes.yml", notesManifest)

	cfg := config.New(map[string]any{config.KeyPlugins: []any{"notes"}})
	_, err := Load(cfg, dir, "0.1.0")
	if err == nil || !strings.Contains(err.Error(), "requires") {
		t.Errorf("Load() error = %v, want requirement failure", err)
	}
}

func TestIterHooks(t *testing.T) {
	dir := t.TempDir()
	notes, err := LoadManifest(writeManifest(t, dir, "notes.yml", notesManifest))
	if err != nil {
		t.Fatal(err)
	}
	bad, err := LoadManifest(writeManifest(t, dir, "bad.yml", badManifest))
	if err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(bad, notes)

	build := r.IterHooks(HookBuildImage)
	if len(build) != 2 {
		t.Fatalf("IterHooks(build-image) = %d entries, want 2", len(build))
	}
	if build[0].Plugin != "bad" || build[1].Plugin != "notes" {
		t.Errorf("IterHooks order = [%s %s], want [bad notes]", build[0].Plugin, build[1].Plugin)
	}
	if build[0].Payload.Kind != yaml.SequenceNode {
		t.Errorf("bad payload kind = %v, want sequence", build[0].Payload.Kind)
	}

	remote := r.IterHooks(HookRemoteImage)
	if len(remote) != 1 || remote[0].Plugin != "notes" {
		t.Errorf("IterHooks(remote-image) = %+v, want only notes", remote)
	}

	if got := r.IterHooks("unknown-hook"); len(got) != 0 {
		t.Errorf("IterHooks(unknown-hook) = %+v, want none", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	notes, err := LoadManifest(writeManifest(t, dir, "notes.yml", notesManifest))
	if err != nil {
		t.Fatal(err)
	}

	values := NewRegistry(notes).ConfigDefaults()

	if values["NOTES_VERSION"] != "1.2.0" {
		t.Errorf("NOTES_VERSION = %v, want 1.2.0", values["NOTES_VERSION"])
	}
	if values["RUN_SMTP"] != false {
		t.Errorf("RUN_SMTP = %v, want false", values["RUN_SMTP"])
	}
	if _, ok := values["VERSION"]; ok {
		t.Error("defaults must be namespaced with the plugin name")
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv(config.EnvPluginsRoot, "/opt/edxctl/plugins")
	if got := DefaultDir(); got != "/opt/edxctl/plugins" {
		t.Errorf("DefaultDir() = %q, want env override", got)
	}
}

func TestConfigDefaultsKeepFloatText(t *testing.T) {
	dir := t.TempDir()
	p, err := LoadManifest(writeManifest(t, dir, "mfe.yml", `name: mfe
version: 2.0.0
config:
  defaults:
    VERSION: 2.0
  set:
    RELEASE: 17.0
`))
	if err != nil {
		t.Fatal(err)
	}

	values := NewRegistry(p).ConfigDefaults()
	if values["MFE_VERSION"] != "2.0" {
		t.Errorf("MFE_VERSION = %#v, want \"2.0\"", values["MFE_VERSION"])
	}
	if values["RELEASE"] != "17.0" {
		t.Errorf("RELEASE = %#v, want \"17.0\"", values["RELEASE"])
	}
}
