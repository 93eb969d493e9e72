package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	completionNoDesc bool
	completionShells = []string{"bash", "zsh", "fish", "powershell"}
	completionCmd    = &cobra.Command{
		Use:   fmt.Sprintf("completion {%s}", strings.Join(completionShells, "|")),
		Short: "Generate shell autocompletions",
		Long: `Generate shell autocompletions for edxctl and write them to stdout.

Load them into the current shell, for example:

  source <(edxctl completion bash)
  edxctl completion fish | source`,
		ValidArgs: completionShells,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE:      completionRun,
	}
)

func init() {
	completionCmd.Flags().BoolVar(&completionNoDesc, "no-desc", false,
		"Don't include descriptions in the completion output")
}

func completionRun(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	root := cmd.Root()

	var err error
	switch args[0] {
	case "bash":
		err = root.GenBashCompletionV2(w, !completionNoDesc)
	case "zsh":
		if completionNoDesc {
			err = root.GenZshCompletionNoDesc(w)
		} else {
			err = root.GenZshCompletion(w)
		}
	case "fish":
		err = root.GenFishCompletion(w, !completionNoDesc)
	case "powershell":
		if completionNoDesc {
			err = root.GenPowerShellCompletion(w)
		} else {
			err = root.GenPowerShellCompletionWithDesc(w)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to generate %s completion: %w", args[0], err)
	}
	return nil
}
