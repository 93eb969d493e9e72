package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Values is a mapping of configuration keys decoded from YAML.
// Float scalars keep their source text, so "1.0" stays "1.0" instead of
// becoming the number 1.
type Values map[string]any

// UnmarshalYAML implements yaml.Unmarshaler
func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	decoded, err := nodeValue(node)
	if err != nil {
		return err
	}
	if decoded == nil {
		*v = Values{}
		return nil
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return fmt.Errorf("line %d: expected a mapping of keys to values", node.Line)
	}
	*v = Values(m)
	return nil
}

// nodeValue decodes a YAML node like yaml.v3 does, except for floats
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.ScalarNode:
		if n.ShortTag() == "!!float" {
			return n.Value, nil
		}
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := nodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = v
		}
		return out, nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseBool decodes v as a boolean. On top of the weak decoding of
// mapstructure ("true", 0, "1"...), the YAML 1.1 words yes/no, on/off
// and y/n are accepted in any case.
func ParseBool(v any) (bool, error) {
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "y", "on":
			return true, nil
		case "no", "n", "off":
			return false, nil
		}
	}
	var b bool
	if err := mapstructure.WeakDecode(v, &b); err != nil {
		return false, err
	}
	return b, nil
}
