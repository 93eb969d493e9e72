package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tnk4on/edxctl/internal/docker"
	"github.com/tnk4on/edxctl/internal/images"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Build, pull and push platform images",
	Long: `Manage the container images of the platform.

IMAGE is an image name (e.g. openedx, openedx-dev, mysql or an image
provided by a plugin) or "all" for every image.`,
}

var imagesBuildCmd = &cobra.Command{
	Use:   "build IMAGE...",
	Short: "Build images",
	Long: `Build images, in order: platform images, plugin images, then dev images.

Dev images are built for the current user id and, unless --no-cache-from
is set, reuse the layers of the platform images built by the same command.`,
	Example: `  edxctl images build all
  edxctl images build openedx --no-cache
  edxctl images build openedx -a EDX_PLATFORM_VERSION=master --target production`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImagesBuild,
}

var imagesPullCmd = &cobra.Command{
	Use:   "pull IMAGE...",
	Short: "Pull images from their registries",
	Long:  `Pull platform images, enabled vendor images and remote plugin images.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImagesPull,
}

var imagesPushCmd = &cobra.Command{
	Use:   "push IMAGE...",
	Short: "Push images to their registries",
	Long:  `Push platform images and remote plugin images. Vendor images are never pushed.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImagesPush,
}

var imagesPrintTagCmd = &cobra.Command{
	Use:   "printtag IMAGE...",
	Short: "Print the tags of images",
	Long:  `Print the tag of every platform and plugin image built for IMAGE, one per line.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImagesPrintTag,
}

var imagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known image with its tag",
	Args:  cobra.NoArgs,
	RunE:  runImagesList,
}

// Local flags for images build
var buildFlags images.BuildFlags

func init() {
	imagesCmd.AddCommand(imagesBuildCmd)
	imagesCmd.AddCommand(imagesPullCmd)
	imagesCmd.AddCommand(imagesPushCmd)
	imagesCmd.AddCommand(imagesPrintTagCmd)
	imagesCmd.AddCommand(imagesListCmd)

	flags := imagesBuildCmd.Flags()
	flags.BoolVar(&buildFlags.NoCache, "no-cache", false, "Do not use cache when building the image")
	flags.BoolVar(&buildFlags.NoInlineCache, "no-inline-cache", false, "Do not store the build cache inline in the image")
	flags.BoolVar(&buildFlags.NoBuildkit, "no-buildkit", false, "Build with the legacy docker builder instead of BuildKit")
	flags.BoolVar(&buildFlags.NoCacheFrom, "no-cache-from", false, "Do not build dev images from the cache of platform images")
	flags.StringArrayVarP(&buildFlags.BuildArgs, "build-arg", "a", nil, "Set build-time variable KEY=VALUE (repeatable)")
	flags.StringArrayVar(&buildFlags.AddHosts, "add-host", nil, "Add a custom host-to-IP mapping HOST:IP (repeatable)")
	flags.StringVar(&buildFlags.Target, "target", "", "Set the target build stage")
}

// newEngine creates an image engine for the loaded project.
// Commands that only compute tags pass withBackend=false and never
// look for the docker binary.
func newEngine(cmd *cobra.Command, withBackend bool) (*images.Engine, error) {
	opts := docker.Options{
		Verbose: verbose,
		DryRun:  dryRun,
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	}

	var client *docker.Client
	if withBackend {
		var err error
		client, err = docker.NewClient(getConfig(), opts)
		if err != nil {
			return nil, err
		}
	} else {
		client = docker.NewClientWithCommand([]string{"docker"}, opts)
	}

	return images.NewEngine(images.EngineOptions{
		Config:  getConfig(),
		Plugins: getRegistry(),
		Backend: client,
		Out:     cmd.OutOrStdout(),
	}), nil
}

func runImagesBuild(cmd *cobra.Command, args []string) error {
	if err := buildFlags.Validate(); err != nil {
		return err
	}
	engine, err := newEngine(cmd, true)
	if err != nil {
		return err
	}
	for _, image := range args {
		if err := engine.Build(cmd.Context(), buildFlags.Request(image)); err != nil {
			return err
		}
	}
	return dryRunNotice(cmd)
}

func runImagesPull(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd, true)
	if err != nil {
		return err
	}
	for _, image := range args {
		if err := engine.Pull(cmd.Context(), image); err != nil {
			return err
		}
	}
	return dryRunNotice(cmd)
}

func runImagesPush(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd, true)
	if err != nil {
		return err
	}
	for _, image := range args {
		if err := engine.Push(cmd.Context(), image); err != nil {
			return err
		}
	}
	return dryRunNotice(cmd)
}

func runImagesPrintTag(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd, false)
	if err != nil {
		return err
	}
	for _, image := range args {
		if err := engine.PrintTag(image); err != nil {
			return err
		}
	}
	return nil
}

func runImagesList(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd, false)
	if err != nil {
		return err
	}
	listed, err := engine.List()
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(listed)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tPLUGIN\tENABLED\tTAG")
	for _, img := range listed {
		plugin := img.Plugin
		if plugin == "" {
			plugin = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", img.Name, img.Category, plugin, img.Enabled, img.Tag)
	}
	return w.Flush()
}

func dryRunNotice(cmd *cobra.Command) error {
	if dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "(dry-run mode - commands not executed)")
	}
	return nil
}
