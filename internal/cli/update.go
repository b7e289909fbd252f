package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hhs-labs/hcli/internal/branding"
	"github.com/hhs-labs/hcli/internal/updater"
)

func init() {
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer " + branding.CLIName(),
	Long: `Ask the registry for the newest release of ` + branding.SelfPackage() + ` that is
compatible with this one, ignoring the daily cache.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if updater.IsDevBuild(buildVersion) {
			fmt.Fprintf(cmd.OutOrStdout(), "Development build (%s); update checks are disabled.\n", buildVersion)
			return nil
		}

		cache, err := selfUpdater(settings).Refresh(cmd.Context(), settings.HomePath)
		if err != nil {
			return err
		}
		if cache.UpdateAvailable {
			updater.PrintUpdateBanner(cmd.OutOrStdout(), branding.SelfPackage(), cache.CurrentVersion, cache.LatestVersion)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s is up to date.\n", branding.CLIName(), buildVersion)
		return nil
	},
}
