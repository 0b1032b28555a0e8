package cli

import (
	"github.com/seedling-build/seedling/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	exampleOpts      scaffold.ExampleOptions
	exampleVerbosity string
)

func init() {
	exampleCmd.Flags().BoolVar(&exampleOpts.Force, "force", false, "Destroy an existing project at the destination first")
	exampleCmd.Flags().BoolVar(&exampleOpts.Local, "local", false, "Vendor tooling into the project")
	exampleCmd.Flags().BoolVar(&exampleOpts.Docs, "docs", false, "Copy documentation into docs/")
	exampleCmd.Flags().StringVarP(&exampleVerbosity, "verbosity", "v", "", "Output verbosity: silent, errors, warnings, normal, obnoxious, debug (or 0-5)")
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(examplesCmd)
}

var exampleCmd = &cobra.Command{
	Use:   "example <name> [dest]",
	Short: "Create a project from a bundled example",
	Long: `Copy the bundled example project <name> to <dest>/<name> (default ./<name>).
Run 'seedling examples' to see the available examples.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyVerbosity(exampleVerbosity); err != nil {
			return err
		}
		dest := ""
		if len(args) > 1 {
			dest = args[1]
		}
		_, err := deps.scaffold.CreateExample(cmd.Context(), args[0], dest, exampleOpts)
		return err
	},
}

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "List bundled example projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := deps.scaffold.ListExamples(cmd.Context())
		return err
	},
}
