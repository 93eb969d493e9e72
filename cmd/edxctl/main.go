package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tnk4on/edxctl/internal/docker"
	"github.com/tnk4on/edxctl/internal/images"
)

var version = "dev"

func main() {
	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals (SIGINT, SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	err := ExecuteWithContext(ctx)
	closeLogFile()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError formats errors with clear separation between edxctl and docker errors
func printError(w io.Writer, err error) {
	var execErr *images.BackendExecutionError
	if errors.As(err, &execErr) {
		fmt.Fprintf(w, "Error: failed to %s image %s (%s)\n", execErr.Op, execErr.Image, execErr.Tag)
		if execErr.Plugin != "" {
			fmt.Fprintf(w, "  image provided by plugin %s\n", execErr.Plugin)
		}

		var cmdErr *docker.CommandError
		if errors.As(err, &cmdErr) {
			fmt.Fprintf(w, "\nDocker error:\n")
			if cmdErr.Stderr != "" {
				fmt.Fprintf(w, "  %s\n", lastLine(cmdErr.Stderr))
			} else {
				fmt.Fprintf(w, "  %v\n", cmdErr.Err)
			}
		} else {
			fmt.Fprintf(w, "  %v\n", execErr.Err)
		}
		return
	}

	var shapeErr *images.InvalidHookShapeError
	if errors.As(err, &shapeErr) {
		fmt.Fprintf(w, "Error: %s\n", shapeErr.Error())
		fmt.Fprintf(w, "  fix the %q hook of plugin %s or disable the plugin\n", shapeErr.Hook, shapeErr.Plugin)
		return
	}

	// Generic error
	fmt.Fprintf(w, "Error: %v\n", err)
}

// lastLine returns the last non-empty line of docker's stderr, which
// carries the actual failure after the build progress output.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
