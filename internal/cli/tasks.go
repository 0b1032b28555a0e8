package cli

import (
	"github.com/seedling-build/seedling/internal/pipeline"
	"github.com/spf13/cobra"
)

var tasksOpts pipeline.TasksOptions

func init() {
	f := tasksCmd.Flags()
	f.StringVar(&tasksOpts.Project, "project", "", "Project file (default $SEEDLING_PROJECT_FILE or project.yml)")
	f.StringArrayVarP(&tasksOpts.Mixins, "mixin", "m", nil, "Mixin name or file to merge (repeatable)")
	f.StringVarP(&tasksOpts.Verbosity, "verbosity", "v", "", "Output verbosity: silent, errors, warnings, normal, obnoxious, debug (or 0-5)")
	rootCmd.AddCommand(tasksCmd)
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the build tasks available to the project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.pipeline.ListTasks(cmd.Context(), deps.env, tasksOpts)
	},
}
