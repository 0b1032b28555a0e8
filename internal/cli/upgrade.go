package cli

import (
	"github.com/seedling-build/seedling/internal/branding"
	"github.com/spf13/cobra"
)

var upgradeProject string

func init() {
	upgradeCmd.Flags().StringVar(&upgradeProject, "project", branding.ProjectFile(), "Project file, relative to <path>")
	rootCmd.AddCommand(upgradeCmd)
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade <path>",
	Short: "Upgrade the vendored tooling of a project",
	Long: `Replace the tooling vendored into the project at <path> with this version's,
and refresh its documentation if the project has it.

Only projects created with --local can be upgraded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.scaffold.Upgrade(cmd.Context(), args[0], upgradeProject)
	},
}
