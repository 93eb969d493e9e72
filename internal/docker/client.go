// Package docker wraps the container CLI used to build, pull and push images.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tnk4on/edxctl/internal/config"
	"github.com/tnk4on/edxctl/internal/env"
)

// CommandError represents an error from a docker command execution
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Options controls how commands are run
type Options struct {
	// Verbose prints the equivalent command before running it
	Verbose bool
	// DryRun prints the equivalent command and runs nothing
	DryRun bool
	Stdout io.Writer
	Stderr io.Writer
}

// Client wraps docker CLI commands
type Client struct {
	// argv prefix: binary followed by global arguments
	command []string
	verbose bool
	dryRun  bool
	stdout  io.Writer
	stderr  io.Writer
}

// NewClient creates a client for the command configured in cfg
func NewClient(cfg *config.Config, opts Options) (*Client, error) {
	argv, err := config.DockerCommand(cfg)
	if err != nil {
		return nil, err
	}

	binary, err := config.FindDockerBinary(argv[0])
	if err != nil {
		if !opts.DryRun {
			return nil, err
		}
		binary = argv[0]
	} else if err := config.CheckDockerVersion(binary); err != nil {
		logrus.Warnf("%v", err)
	}
	argv[0] = binary

	return NewClientWithCommand(argv, opts), nil
}

// NewClientWithCommand creates a client running the given argv prefix as is
func NewClientWithCommand(command []string, opts Options) *Client {
	c := &Client{
		command: append([]string(nil), command...),
		verbose: opts.Verbose,
		dryRun:  opts.DryRun,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
	}
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	if c.stderr == nil {
		c.stderr = os.Stderr
	}
	return c
}

// CommandLine returns the full command line for args
func (c *Client) CommandLine(args ...string) []string {
	line := make([]string, 0, len(c.command)+len(args))
	line = append(line, c.command...)
	return append(line, args...)
}

// run executes a docker command with output attached to the client writers.
// extraEnv is added to the environment of the child process only.
func (c *Client) run(ctx context.Context, extraEnv []string, args ...string) error {
	line := c.CommandLine(args...)
	if c.verbose || c.dryRun {
		prefix := ""
		if len(extraEnv) > 0 {
			prefix = strings.Join(extraEnv, " ") + " "
		}
		fmt.Fprintf(c.stderr, "Equivalent command: %s%s\n", prefix, strings.Join(line, " "))
	}
	if c.dryRun {
		return nil
	}

	cmd := exec.CommandContext(ctx, line[0], line[1:]...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	var stderr bytes.Buffer
	cmd.Stdout = c.stdout
	cmd.Stderr = io.MultiWriter(c.stderr, &stderr)

	if err := cmd.Run(); err != nil {
		return &CommandError{
			Command: strings.Join(line, " "),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return nil
}

// BuildOptions contains options for building an image
type BuildOptions struct {
	Context string
	Tag     string
	// Args are passed verbatim before the context
	Args []string
	// Env is added to the environment of the build process, e.g. DOCKER_BUILDKIT=1
	Env []string
}

// BuildArgs builds the command line arguments for docker build.
// This is a pure function that can be easily unit tested.
func BuildArgs(opts BuildOptions) []string {
	args := []string{"build"}
	if opts.Tag != "" {
		args = append(args, "-t", opts.Tag)
	}
	args = append(args, opts.Args...)
	return append(args, opts.Context)
}

// Build builds a container image
func (c *Client) Build(ctx context.Context, opts BuildOptions) error {
	return c.run(ctx, opts.Env, BuildArgs(opts)...)
}

// Pull pulls a container image
func (c *Client) Pull(ctx context.Context, tag string) error {
	return c.run(ctx, nil, "pull", tag)
}

// Push pushes an image to its registry
func (c *Client) Push(ctx context.Context, tag string) error {
	return c.run(ctx, nil, "push", tag)
}

// GetTag returns the rendered DOCKER_IMAGE_<NAME> value of an image
func (c *Client) GetTag(cfg *config.Config, image string) (string, error) {
	return GetTag(cfg, image)
}

// GetTag returns the rendered DOCKER_IMAGE_<NAME> value of an image
func GetTag(cfg *config.Config, image string) (string, error) {
	key := config.ImageKey(image)
	if _, ok := cfg.Get(key); !ok {
		return "", fmt.Errorf("missing configuration key %s", key)
	}
	tag, err := env.RenderString(cfg, cfg.String(key))
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	if strings.TrimSpace(tag) == "" {
		return "", fmt.Errorf("%s renders to an empty tag", key)
	}
	return tag, nil
}
