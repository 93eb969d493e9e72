package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tnk4on/edxctl/internal/plugins"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Inspect plugins",
	Long: `Inspect edxctl plugins.

Plugins are YAML manifests in the plugins directory. A plugin is enabled
by adding its name to the PLUGINS list of the project configuration.`,
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed plugins",
	Args:  cobra.NoArgs,
	RunE:  runPluginsList,
}

func init() {
	pluginsCmd.AddCommand(pluginsListCmd)
}

// pluginInfo is one row of the plugin listing
type pluginInfo struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Enabled  bool     `json:"enabled"`
	Hooks    []string `json:"hooks"`
	Manifest string   `json:"manifest"`
}

func runPluginsList(cmd *cobra.Command, args []string) error {
	dir := pluginsDir
	if dir == "" {
		dir = plugins.DefaultDir()
	}
	installed, err := plugins.Discover(dir)
	if err != nil {
		return err
	}

	enabled := map[string]bool{}
	for _, p := range getRegistry().Plugins() {
		enabled[p.Name] = true
	}

	infos := make([]pluginInfo, 0, len(installed))
	for _, p := range installed {
		hooks := make([]string, 0, len(p.Hooks))
		for name := range p.Hooks {
			hooks = append(hooks, name)
		}
		sort.Strings(hooks)
		infos = append(infos, pluginInfo{
			Name:     p.Name,
			Version:  p.Version,
			Enabled:  enabled[p.Name],
			Hooks:    hooks,
			Manifest: p.Path,
		})
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	if len(infos) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No plugins installed in %s\n", dir)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tSTATUS")
	for _, info := range infos {
		status := "installed"
		if info.Enabled {
			status = "enabled"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, info.Version, status)
	}
	return w.Flush()
}
