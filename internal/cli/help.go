package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.SetHelpCommand(helpCmd)
}

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Help about any command",
	Long: `Show help for a command. Without a command, also list the project's build
tasks when a project file is available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.pipeline.Help(cmd.Context(), deps.env, strings.Join(args, " "), renderHelp(cmd.Root()))
	},
}

// renderHelp returns a callback printing Cobra's help for a command path,
// or for root when the path is empty.
func renderHelp(root *cobra.Command) func(command string) error {
	return func(command string) error {
		if command == "" {
			return root.Help()
		}
		target, _, err := root.Find(strings.Fields(command))
		if err != nil || target == root {
			return fmt.Errorf("unknown help topic %q", command)
		}
		return target.Help()
	}
}
