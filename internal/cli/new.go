package cli

import (
	"github.com/seedling-build/seedling/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	newOpts      scaffold.CreateOptions
	newVerbosity string
)

func init() {
	newCmd.Flags().BoolVar(&newOpts.Force, "force", false, "Destroy an existing project at the destination first")
	newCmd.Flags().BoolVar(&newOpts.Local, "local", false, "Vendor tooling into the project")
	newCmd.Flags().BoolVar(&newOpts.Docs, "docs", false, "Copy documentation into docs/")
	newCmd.Flags().BoolVar(&newOpts.Configs, "configs", true, "Create a project file")
	newCmd.Flags().StringVarP(&newVerbosity, "verbosity", "v", "", "Output verbosity: silent, errors, warnings, normal, obnoxious, debug (or 0-5)")
	rootCmd.AddCommand(newCmd)
}

var newCmd = &cobra.Command{
	Use:   "new <name> [dest]",
	Short: "Create a new project",
	Long: `Create a new project skeleton at <dest>/<name> (default ./<name>) with src/,
test/, and test/support/ directories and a project file.

Examples:
  seedling new widget
  seedling new widget ~/projects --local --docs`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyVerbosity(newVerbosity); err != nil {
			return err
		}
		dest := ""
		if len(args) > 1 {
			dest = args[1]
		}
		_, err := deps.scaffold.Create(cmd.Context(), args[0], dest, newOpts)
		return err
	},
}
