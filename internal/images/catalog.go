// Package images resolves which container images a deployment builds, pulls
// and pushes, and dispatches those operations to a container backend.
//
// Images come from three places:
//   - a compiled-in catalog of base and dev images,
//   - vendor images, each switched off with RUN_<NAME>: false,
//   - plugins, through the "build-image" and "remote-image" hooks.
//
// Every operation takes an image filter: an image name, or "all".
package images

import (
	"github.com/sirupsen/logrus"

	"github.com/tnk4on/edxctl/internal/config"
)

// All is the filter matching every image
const All = "all"

// Category tells where an image comes from
type Category int

const (
	CategoryBase Category = iota
	CategoryDev
	CategoryVendor
	CategoryPluginBuild
	CategoryPluginRemote
)

func (c Category) String() string {
	switch c {
	case CategoryBase:
		return "base"
	case CategoryDev:
		return "dev"
	case CategoryVendor:
		return "vendor"
	case CategoryPluginBuild:
		return "plugin-build"
	case CategoryPluginRemote:
		return "plugin-remote"
	default:
		return "unknown"
	}
}

// Catalog lists the images known without plugins
type Catalog struct {
	Base   []string
	Dev    []string
	Vendor []string
}

// DefaultCatalog returns the platform image catalog
func DefaultCatalog() *Catalog {
	return &Catalog{
		Base: []string{"openedx", "forum"},
		Dev:  []string{"openedx-dev"},
		Vendor: []string{
			"caddy",
			"elasticsearch",
			"mongodb",
			"mysql",
			"nginx",
			"redis",
			"smtp",
		},
	}
}

// VendorImageNames returns the vendor images enabled in cfg, in catalog order.
// A vendor image is enabled unless RUN_<NAME> is false.
func (c *Catalog) VendorImageNames(cfg *config.Config) []string {
	names := make([]string, 0, len(c.Vendor))
	for _, name := range c.Vendor {
		if !cfg.Bool(config.RunKey(name), true) {
			logrus.Debugf("Vendor image %s disabled by %s", name, config.RunKey(name))
			continue
		}
		names = append(names, name)
	}
	return names
}

// AllImageNames returns base images followed by enabled vendor images
func (c *Catalog) AllImageNames(cfg *config.Config) []string {
	names := make([]string, 0, len(c.Base)+len(c.Vendor))
	names = append(names, c.Base...)
	return append(names, c.VendorImageNames(cfg)...)
}

// Categorize returns the catalog category of an image name
func (c *Catalog) Categorize(name string) (Category, bool) {
	for _, list := range []struct {
		names    []string
		category Category
	}{
		{c.Base, CategoryBase},
		{c.Dev, CategoryDev},
		{c.Vendor, CategoryVendor},
	} {
		for _, n := range list.names {
			if n == name {
				return list.category, true
			}
		}
	}
	return 0, false
}

func matches(filter, name string) bool {
	return filter == All || filter == name
}
