package images

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/tnk4on/edxctl/internal/config"
	"github.com/tnk4on/edxctl/internal/docker"
	"github.com/tnk4on/edxctl/internal/env"
	"github.com/tnk4on/edxctl/internal/plugins"
)

// Backend runs container image operations
type Backend interface {
	Build(ctx context.Context, opts docker.BuildOptions) error
	Pull(ctx context.Context, tag string) error
	Push(ctx context.Context, tag string) error
	GetTag(cfg *config.Config, image string) (string, error)
}

// HookSource provides plugin hook payloads in plugin order
type HookSource interface {
	IterHooks(name string) []plugins.HookEntry
}

// EngineOptions configures an Engine. Catalog, Plugins, Out and UserID
// have defaults; Config and Backend are required.
type EngineOptions struct {
	Root    string
	Config  *config.Config
	Catalog *Catalog
	Plugins HookSource
	Backend Backend
	Out     io.Writer
	UserID  func() int
}

// Engine resolves image sets and dispatches them to the backend
type Engine struct {
	root    string
	cfg     *config.Config
	catalog *Catalog
	plugins HookSource
	backend Backend
	out     io.Writer
	userID  func() int
}

type noHooks struct{}

func (noHooks) IterHooks(string) []plugins.HookEntry { return nil }

// NewEngine creates an Engine
func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{
		root:    opts.Root,
		cfg:     opts.Config,
		catalog: opts.Catalog,
		plugins: opts.Plugins,
		backend: opts.Backend,
		out:     opts.Out,
		userID:  opts.UserID,
	}
	if e.root == "" && e.cfg != nil {
		e.root = e.cfg.Root()
	}
	if e.catalog == nil {
		e.catalog = DefaultCatalog()
	}
	if e.plugins == nil {
		e.plugins = noHooks{}
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.userID == nil {
		e.userID = CurrentUserID
	}
	return e
}

// Op is a backend operation
type Op string

const (
	OpBuild Op = "build"
	OpPull  Op = "pull"
	OpPush  Op = "push"
)

// Step is one backend call of a plan
type Step struct {
	Op       Op
	Category Category
	Plugin   string
	Image    string
	Tag      string
	// Context and Args are only set for builds
	Context string
	Args    []string
	Env     []string
}

// Plan is the ordered list of backend calls of one command.
// Plans are fully resolved before the first call is made.
type Plan struct {
	Filter string
	Steps  []Step
}

// PlanBuild resolves the builds of req: base images, then plugin
// build-image images, then dev images.
func (e *Engine) PlanBuild(req BuildRequest) (*Plan, error) {
	plan := &Plan{Filter: req.Filter}

	base, err := e.IterImages(req.Filter, e.catalog.Base)
	if err != nil {
		return nil, err
	}
	for _, img := range base {
		plan.Steps = append(plan.Steps, Step{
			Op:       OpBuild,
			Category: CategoryBase,
			Image:    img.Name,
			Tag:      img.Tag,
			Context:  env.PathJoin(e.root, config.BuildDirName, img.Name),
			Args:     req.Args,
			Env:      req.Env,
		})
	}

	pluginImages, err := e.IterPluginImages(req.Filter, plugins.HookBuildImage)
	if err != nil {
		return nil, err
	}
	for _, img := range pluginImages {
		plan.Steps = append(plan.Steps, Step{
			Op:       OpBuild,
			Category: CategoryPluginBuild,
			Plugin:   img.Plugin,
			Image:    img.Name,
			Tag:      img.Tag,
			Context:  env.PathJoin(e.root, config.PluginsDirName, img.Plugin, config.BuildDirName, img.Name),
			Args:     req.Args,
			Env:      req.Env,
		})
	}

	dev, err := e.IterImages(req.Filter, e.catalog.Dev)
	if err != nil {
		return nil, err
	}
	if len(dev) > 0 {
		// dev images are cached from the base images of the same filter
		args := append(req.DevArgs(e.userID(), tagsOf(base)), req.Args...)
		for _, img := range dev {
			plan.Steps = append(plan.Steps, Step{
				Op:       OpBuild,
				Category: CategoryDev,
				Image:    img.Name,
				Tag:      img.Tag,
				Context:  env.PathJoin(e.root, config.BuildDirName, img.Name),
				Args:     args,
				Env:      req.Env,
			})
		}
	}

	return plan, nil
}

// PlanPull resolves the pulls of filter: base and enabled vendor images,
// then plugin remote-image images.
func (e *Engine) PlanPull(filter string) (*Plan, error) {
	return e.planRemote(OpPull, filter, e.catalog.AllImageNames(e.cfg))
}

// PlanPush resolves the pushes of filter: base images, then plugin
// remote-image images. Vendor images are never pushed.
func (e *Engine) PlanPush(filter string) (*Plan, error) {
	return e.planRemote(OpPush, filter, e.catalog.Base)
}

func (e *Engine) planRemote(op Op, filter string, names []string) (*Plan, error) {
	plan := &Plan{Filter: filter}

	imgs, err := e.IterImages(filter, names)
	if err != nil {
		return nil, err
	}
	for _, img := range imgs {
		category, _ := e.catalog.Categorize(img.Name)
		plan.Steps = append(plan.Steps, Step{Op: op, Category: category, Image: img.Name, Tag: img.Tag})
	}

	pluginImages, err := e.IterPluginImages(filter, plugins.HookRemoteImage)
	if err != nil {
		return nil, err
	}
	for _, img := range pluginImages {
		plan.Steps = append(plan.Steps, Step{
			Op:       op,
			Category: CategoryPluginRemote,
			Plugin:   img.Plugin,
			Image:    img.Name,
			Tag:      img.Tag,
		})
	}
	return plan, nil
}

// Build builds the images matching req.Filter
func (e *Engine) Build(ctx context.Context, req BuildRequest) error {
	plan, err := e.PlanBuild(req)
	if err != nil {
		return err
	}
	return e.Execute(ctx, plan)
}

// Pull pulls the images matching filter
func (e *Engine) Pull(ctx context.Context, filter string) error {
	plan, err := e.PlanPull(filter)
	if err != nil {
		return err
	}
	return e.Execute(ctx, plan)
}

// Push pushes the images matching filter
func (e *Engine) Push(ctx context.Context, filter string) error {
	plan, err := e.PlanPush(filter)
	if err != nil {
		return err
	}
	return e.Execute(ctx, plan)
}

// Execute runs the steps of plan in order and stops at the first failure
func (e *Engine) Execute(ctx context.Context, plan *Plan) error {
	if len(plan.Steps) == 0 {
		logrus.Warnf("No image matches %q", plan.Filter)
		return nil
	}

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.run(ctx, step); err != nil {
			return &BackendExecutionError{
				Op:     string(step.Op),
				Image:  step.Image,
				Plugin: step.Plugin,
				Tag:    step.Tag,
				Err:    err,
			}
		}
	}
	return nil
}

func (e *Engine) run(ctx context.Context, step Step) error {
	switch step.Op {
	case OpBuild:
		logrus.Infof("Building image %s", step.Tag)
		return e.backend.Build(ctx, docker.BuildOptions{
			Context: step.Context,
			Tag:     step.Tag,
			Args:    step.Args,
			Env:     step.Env,
		})
	case OpPull:
		logrus.Infof("Pulling image %s", step.Tag)
		return e.backend.Pull(ctx, step.Tag)
	case OpPush:
		logrus.Infof("Pushing image %s", step.Tag)
		return e.backend.Push(ctx, step.Tag)
	default:
		return fmt.Errorf("unknown operation %q", step.Op)
	}
}

// PrintTag writes the tags of the base and plugin build-image images
// matching filter, one per line.
func (e *Engine) PrintTag(filter string) error {
	tags, err := e.BuildTags(filter)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		logrus.Warnf("No image matches %q", filter)
		return nil
	}
	for _, tag := range tags {
		fmt.Fprintln(e.out, tag)
	}
	return nil
}

// BuildTags returns the tags printed by PrintTag
func (e *Engine) BuildTags(filter string) ([]string, error) {
	base, err := e.IterImages(filter, e.catalog.Base)
	if err != nil {
		return nil, err
	}
	pluginImages, err := e.IterPluginImages(filter, plugins.HookBuildImage)
	if err != nil {
		return nil, err
	}

	tags := tagsOf(base)
	for _, img := range pluginImages {
		tags = append(tags, img.Tag)
	}
	return tags, nil
}

// ListedImage is one row of the image listing
type ListedImage struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Plugin   string `json:"plugin,omitempty"`
	Tag      string `json:"tag"`
	Enabled  bool   `json:"enabled"`
}

// List returns every known image with its tag. Disabled vendor images
// are included with Enabled set to false.
func (e *Engine) List() ([]ListedImage, error) {
	enabled := map[string]bool{}
	for _, name := range e.catalog.VendorImageNames(e.cfg) {
		enabled[name] = true
	}

	var result []ListedImage
	for _, group := range []struct {
		names    []string
		category Category
	}{
		{e.catalog.Base, CategoryBase},
		{e.catalog.Dev, CategoryDev},
		{e.catalog.Vendor, CategoryVendor},
	} {
		imgs, err := e.IterImages(All, group.names)
		if err != nil {
			return nil, err
		}
		for _, img := range imgs {
			result = append(result, ListedImage{
				Name:     img.Name,
				Category: group.category.String(),
				Tag:      img.Tag,
				Enabled:  group.category != CategoryVendor || enabled[img.Name],
			})
		}
	}

	for _, hook := range []struct {
		name     string
		category Category
	}{
		{plugins.HookBuildImage, CategoryPluginBuild},
		{plugins.HookRemoteImage, CategoryPluginRemote},
	} {
		imgs, err := e.IterPluginImages(All, hook.name)
		if err != nil {
			return nil, err
		}
		for _, img := range imgs {
			result = append(result, ListedImage{
				Name:     img.Name,
				Category: hook.category.String(),
				Plugin:   img.Plugin,
				Tag:      img.Tag,
				Enabled:  true,
			})
		}
	}
	return result, nil
}
