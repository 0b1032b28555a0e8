package cli

import (
	"github.com/seedling-build/seedling/internal/pipeline"
	"github.com/spf13/cobra"
)

var dumpOpts pipeline.DumpOptions

func init() {
	f := dumpconfigCmd.Flags()
	f.StringVar(&dumpOpts.Project, "project", "", "Project file (default $SEEDLING_PROJECT_FILE or project.yml)")
	f.StringArrayVarP(&dumpOpts.Mixins, "mixin", "m", nil, "Mixin name or file to merge (repeatable)")
	f.StringVarP(&dumpOpts.Verbosity, "verbosity", "v", "", "Output verbosity: silent, errors, warnings, normal, obnoxious, debug (or 0-5)")
	rootCmd.AddCommand(dumpconfigCmd)
}

var dumpconfigCmd = &cobra.Command{
	Use:   "dumpconfig <file> [sections...]",
	Short: "Write the resolved project configuration as YAML",
	Long: `Write the configuration the build engine sees, after mixins and defaults,
to <file>. Sections name a path into the configuration; only the value at
the end of the path is written.

Examples:
  seedling dumpconfig resolved.yml
  seedling dumpconfig plugins.yml plugins
  seedling dumpconfig root.yml project build_root`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.pipeline.DumpConfig(cmd.Context(), deps.env, dumpOpts, args[0], args[1:])
	},
}
