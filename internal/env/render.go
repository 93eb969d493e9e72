// Package env renders configuration templates and resolves paths inside a
// project root.
//
// Templates reference configuration keys as functions:
//
//	{{ DOCKER_REGISTRY }}edxctl/openedx:{{ RELEASE }}
//
// String values are themselves rendered, so a key may reference other keys.
package env

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/tnk4on/edxctl/internal/config"
)

// maxDepth bounds nested key references.
const maxDepth = 16

// ErrRecursion is returned when keys reference each other in a cycle.
var ErrRecursion = errors.New("template recursion too deep")

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RenderString renders s against the configuration.
func RenderString(cfg *config.Config, s string) (string, error) {
	r := &renderer{cfg: cfg}
	return r.render(s, 0)
}

type renderer struct {
	cfg *config.Config
}

func (r *renderer) render(s string, depth int) (string, error) {
	if depth > maxDepth {
		return "", ErrRecursion
	}
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	tmpl, err := template.New("value").Option("missingkey=error").Funcs(r.funcMap(depth)).Parse(s)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", s, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, nil); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", s, err)
	}
	return sb.String(), nil
}

// funcMap exposes every configuration key as a zero-argument function.
// Keys that are not valid identifiers cannot be referenced.
func (r *renderer) funcMap(depth int) template.FuncMap {
	funcs := template.FuncMap{}
	for _, key := range r.cfg.Keys() {
		if !identifier.MatchString(key) {
			continue
		}
		key := key
		funcs[key] = func() (any, error) {
			v, _ := r.cfg.Get(key)
			if v == nil {
				return "", nil
			}
			s, ok := v.(string)
			if !ok {
				return v, nil
			}
			return r.render(s, depth+1)
		}
	}
	return funcs
}

// PathJoin joins parts below root.
func PathJoin(root string, parts ...string) string {
	return filepath.Join(append([]string{root}, parts...)...)
}
