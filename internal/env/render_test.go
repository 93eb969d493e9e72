package env

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tnk4on/edxctl/internal/config"
)

func TestRenderString(t *testing.T) {
	cfg := config.New(map[string]any{
		"VERSION":         "1.0",
		"DOCKER_REGISTRY": "registry.local/",
		"RELEASE":         "17.0.2",
		"ENABLED":         true,
		"PORT":            8000,
		"NESTED":          "{{ DOCKER_REGISTRY }}nested",
		"EMPTY":           nil,
	})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no template", input: "docker.io/mysql:8.1.0", want: "docker.io/mysql:8.1.0"},
		{name: "compact placeholder", input: "tag:{{VERSION}}", want: "tag:1.0"},
		{name: "spaced placeholder", input: "tag:{{ VERSION }}", want: "tag:1.0"},
		{name: "two keys", input: "{{ DOCKER_REGISTRY }}edxctl/openedx:{{ RELEASE }}", want: "registry.local/edxctl/openedx:17.0.2"},
		{name: "boolean value", input: "{{ ENABLED }}", want: "true"},
		{name: "integer value", input: "port-{{ PORT }}", want: "port-8000"},
		{name: "nested reference", input: "{{ NESTED }}:1", want: "registry.local/nested:1"},
		{name: "nil value", input: "x{{ EMPTY }}y", want: "xy"},
		{name: "default image", input: "{{ DOCKER_IMAGE_OPENEDX }}", want: "registry.local/edxctl/openedx:17.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderString(cfg, tt.input)
			if err != nil {
				t.Fatalf("RenderString(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("RenderString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderStringErrors(t *testing.T) {
	cfg := config.New(map[string]any{
		"LOOP_A": "{{ LOOP_B }}",
		"LOOP_B": "{{ LOOP_A }}",
	})

	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{name: "unknown key", input: "tag:{{ UNDEFINED_KEY }}", wantMsg: "UNDEFINED_KEY"},
		{name: "syntax error", input: "tag:{{ VERSION", wantMsg: "failed to parse template"},
		{name: "recursion", input: "{{ LOOP_A }}", wantMsg: "recursion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderString(cfg, tt.input)
			if err == nil {
				t.Fatalf("RenderString(%q) expected error, got nil", tt.input)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestPathJoin(t *testing.T) {
	got := PathJoin("/srv/edx", "plugins", "notes", "build", "notes")
	want := filepath.Join("/srv/edx", "plugins", "notes", "build", "notes")
	if got != want {
		t.Errorf("PathJoin() = %q, want %q", got, want)
	}

	if got := PathJoin("/srv/edx"); got != filepath.Clean("/srv/edx") {
		t.Errorf("PathJoin(root) = %q", got)
	}
}

func TestRenderLoadedFloats(t *testing.T) {
	root := t.TempDir()
	content := "VERSION: 1.0\nRELEASE: 17.0\nDOCKER_REGISTRY: docker.io/\n"
	if err := os.WriteFile(filepath.Join(root, config.ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"tag:{{VERSION}}", "tag:1.0"},
		{"{{ DOCKER_REGISTRY }}edxctl/openedx:{{ RELEASE }}", "docker.io/edxctl/openedx:17.0"},
	}
	for _, tt := range tests {
		got, err := RenderString(cfg, tt.input)
		if err != nil {
			t.Fatalf("RenderString(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("RenderString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
