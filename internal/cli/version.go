package cli

import (
	"encoding/json"
	"fmt"

	"github.com/seedling-build/seedling/internal/version"
	"github.com/spf13/cobra"
)

var (
	versionShort bool
	versionJSON  bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		components, err := version.Bundled()
		if err != nil {
			return err
		}

		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), components.Seedling)
			return nil
		}

		if versionJSON {
			info := components.Map()
			info["build"] = buildVersion
			info["commit"] = buildCommit
			info["date"] = buildDate
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling version info: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}

		deps.log.Log(components.Message())
		return nil
	},
}
