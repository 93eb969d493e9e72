package images

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/tnk4on/edxctl/internal/env"
)

// Hook is a validated image hook payload of one plugin
type Hook struct {
	Name   string
	Plugin string
	Images []HookImage
}

// HookImage is one entry of an image hook, in payload order
type HookImage struct {
	Name        string
	TagTemplate string
}

// ParseHook validates a raw hook payload. The payload must be a mapping
// from image names to tag template strings; anything else is an
// InvalidHookShapeError and no entry is returned.
func ParseHook(hookName, plugin string, payload *yaml.Node) (Hook, error) {
	hook := Hook{Name: hookName, Plugin: plugin}
	invalid := func(kind string) (Hook, error) {
		return Hook{}, &InvalidHookShapeError{Hook: hookName, Plugin: plugin, Kind: kind}
	}

	node := resolve(payload)
	if node == nil {
		return invalid("nothing")
	}
	if node.Kind != yaml.MappingNode {
		return invalid(describe(node))
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := resolve(node.Content[i]), resolve(node.Content[i+1])
		if key == nil || key.Kind != yaml.ScalarNode || key.ShortTag() != "!!str" {
			return invalid("non-string image name " + describe(key))
		}
		if value == nil || value.Kind != yaml.ScalarNode || value.ShortTag() != "!!str" {
			return invalid(fmt.Sprintf("%s for image %s", describe(value), key.Value))
		}
		hook.Images = append(hook.Images, HookImage{Name: key.Value, TagTemplate: value.Value})
	}
	return hook, nil
}

// resolve unwraps document and alias nodes
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) == 1:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func describe(n *yaml.Node) string {
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return "null"
		}
		return "scalar " + n.ShortTag()
	case yaml.DocumentNode:
		return "document"
	default:
		return fmt.Sprintf("node kind %d", n.Kind)
	}
}

// PluginImage is an image contributed by a plugin hook, with its rendered tag
type PluginImage struct {
	Plugin string
	Name   string
	Tag    string
}

// IterPluginImages returns the images of hookName matching filter, in
// plugin order then payload order. Every payload is validated before
// any tag is rendered; on error nothing is returned.
func (e *Engine) IterPluginImages(filter, hookName string) ([]PluginImage, error) {
	entries := e.plugins.IterHooks(hookName)

	hooks := make([]Hook, 0, len(entries))
	for _, entry := range entries {
		hook, err := ParseHook(hookName, entry.Plugin, entry.Payload)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, hook)
	}

	var result []PluginImage
	for _, hook := range hooks {
		for _, img := range hook.Images {
			if !matches(filter, img.Name) {
				continue
			}
			tag, err := env.RenderString(e.cfg, img.TagTemplate)
			if err != nil {
				return nil, &TagRenderError{Plugin: hook.Plugin, Image: img.Name, Template: img.TagTemplate, Err: err}
			}
			logrus.Debugf("Plugin %s provides image %s (%s) for %s", hook.Plugin, img.Name, tag, hookName)
			result = append(result, PluginImage{Plugin: hook.Plugin, Name: img.Name, Tag: tag})
		}
	}
	return result, nil
}
