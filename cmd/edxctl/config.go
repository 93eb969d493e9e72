package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tnk4on/edxctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage project configuration",
	Long:  `View and modify the configuration of an edxctl project.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the current configuration.

Configuration is loaded from (later overrides earlier):
  1. Built-in defaults
  2. Defaults of enabled plugins
  3. <root>/config.yml
  4. EDXCTL_<KEY> entries of <root>/.env
  5. EDXCTL_<KEY> environment variables`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configPrintValueCmd = &cobra.Command{
	Use:   "printvalue KEY",
	Short: "Print the value of a configuration key",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigPrintValue,
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the configuration file",
	Long: `Write the user-defined configuration to <root>/config.yml.

Values given with --set are parsed as YAML scalars, so "false" is a
boolean and "8.0" stays a string.`,
	Example: `  edxctl config save --set RUN_ELASTICSEARCH=false
  edxctl config save --set DOCKER_REGISTRY=registry.example.com/ --unset RELEASE`,
	Args: cobra.NoArgs,
	RunE: runConfigSave,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file in default editor",
	Args:  cobra.NoArgs,
	RunE:  runConfigEdit,
}

// Local flags for config commands
var (
	configSetValues   []string
	configUnsetValues []string
	configEditQuiet   bool
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configPrintValueCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configEditCmd)

	configSaveCmd.Flags().StringArrayVarP(&configSetValues, "set", "s", nil, "Set KEY=VALUE (repeatable)")
	configSaveCmd.Flags().StringArrayVarP(&configUnsetValues, "unset", "U", nil, "Remove a user-defined KEY (repeatable)")
	configEditCmd.Flags().BoolVarP(&configEditQuiet, "quiet", "q", false, "Suppress output")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	values := getConfig().Values()

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	}

	// YAML output (default)
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := config.FilePath(getConfig().Root())
	fmt.Fprintln(cmd.OutOrStdout(), path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "(file does not exist)")
	}
	return nil
}

func runConfigPrintValue(cmd *cobra.Command, args []string) error {
	key := args[0]
	value, ok := getConfig().Get(key)
	if !ok {
		return fmt.Errorf("missing configuration value: %s", key)
	}

	switch v := value.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case nil:
		fmt.Fprintln(cmd.OutOrStdout())
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	return nil
}

// parseSetValue splits a KEY=VALUE argument and parses VALUE
func parseSetValue(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid value %q: expected KEY=VALUE", s)
	}
	value, err := config.ParseValue(raw)
	if err != nil {
		return "", nil, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return key, value, nil
}

func runConfigSave(cmd *cobra.Command, args []string) error {
	c := getConfig()
	for _, s := range configSetValues {
		key, value, err := parseSetValue(s)
		if err != nil {
			return err
		}
		c.Set(key, value)
	}
	for _, key := range configUnsetValues {
		c.Unset(key)
	}
	if err := c.Validate(); err != nil {
		return err
	}

	path := config.FilePath(c.Root())
	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Would write %d values to %s\n", len(c.UserValues()), path)
		return nil
	}
	if err := c.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", path)
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path := config.FilePath(getConfig().Root())

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file does not exist. Run 'edxctl config save' first.\n")
		return nil
	}

	editor, err := findEditor()
	if err != nil {
		return fmt.Errorf("failed to find editor: %w\nSet EDITOR or VISUAL environment variable, or install nano, vim, or vi", err)
	}

	// The editor may carry quoted arguments like `code --wait`
	editorParts, err := shlex.Split(editor)
	if err != nil || len(editorParts) == 0 {
		return fmt.Errorf("invalid editor %q: %v", editor, err)
	}
	editorCmd := editorParts[0]
	editorArgs := append(editorParts[1:], path)

	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Would execute: %s %s\n", editorCmd, strings.Join(editorArgs, " "))
		return nil
	}

	if !configEditQuiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Opening %s with %s...\n", path, editor)
	}

	cmdObj := exec.Command(editorCmd, editorArgs...)
	cmdObj.Stdin = os.Stdin
	cmdObj.Stdout = os.Stdout
	cmdObj.Stderr = os.Stderr

	if err := cmdObj.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}
	return nil
}

// findEditor returns the first usable editor of EDITOR, VISUAL,
// then nano, vim and vi.
func findEditor() (string, error) {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		editor := os.Getenv(env)
		if editor == "" {
			continue
		}
		parts, err := shlex.Split(editor)
		if err != nil || len(parts) == 0 {
			continue
		}
		if _, err := exec.LookPath(parts[0]); err == nil {
			return editor, nil
		}
	}

	for _, editor := range []string{"nano", "vim", "vi"} {
		if path, err := exec.LookPath(editor); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no editor found")
}
