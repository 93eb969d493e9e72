package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tnk4on/edxctl/internal/config"
)

// These variables are set at build time via ldflags
var (
	commit    = "unknown"
	buildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print detailed version information including:
  - Version number
  - Git commit hash
  - Build date
  - Go version
  - OS/Architecture
  - Version of the docker client in use`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := collectVersionInfo()
		if jsonOut {
			return printVersionJSON(cmd.OutOrStdout(), info)
		}
		printVersion(cmd.OutOrStdout(), info)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Docker    string `json:"docker,omitempty"`
}

func collectVersionInfo() versionInfo {
	info := versionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	// version runs without a project, so only EDXCTL_DOCKER is honoured here
	if argv, err := config.DockerCommand(nil); err == nil {
		if binary, err := config.FindDockerBinary(argv[0]); err == nil {
			info.Docker = config.DockerVersion(binary)
		}
	}
	return info
}

func printVersion(w io.Writer, info versionInfo) {
	fmt.Fprintf(w, "edxctl version %s\n", info.Version)
	fmt.Fprintf(w, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(w, "  Build Date: %s\n", info.BuildDate)
	fmt.Fprintf(w, "  Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(w, "  OS/Arch:    %s/%s\n", info.OS, info.Arch)
	if info.Docker != "" {
		fmt.Fprintf(w, "  Docker:     %s\n", info.Docker)
	}
}

func printVersionJSON(w io.Writer, info versionInfo) error {
	output, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal version info: %w", err)
	}
	fmt.Fprintln(w, string(output))
	return nil
}
