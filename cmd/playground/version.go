package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/czapol/multi-agent-playground/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), version.StringFull())

		// --require lets deploy scripts gate on a minimum build.
		if required, _ := cmd.Flags().GetString("require"); required != "" {
			if !version.IsVersionGreaterOrEqualThan(version.Version, required) {
				return fmt.Errorf("version %s is older than required %s", version.Version, required)
			}
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().String("require", "", "fail unless this build is at least the given version")
}
