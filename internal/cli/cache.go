package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hhs-labs/hcli/internal/dispatch"
	"github.com/hhs-labs/hcli/internal/pkgcache"
)

var cacheListJSON bool

func init() {
	cacheListCmd.Flags().BoolVar(&cacheListJSON, "json", false, "Print entries as JSON")
	cacheCmd.AddCommand(cacheListCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the package cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached package versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := filepath.Join(settings.HomePath, dispatch.CacheDir, dispatch.StoreDir)
		entries, err := pkgcache.List(store)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if cacheListJSON {
			if entries == nil {
				entries = []pkgcache.Entry{}
			}
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling cache entries: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(entries) == 0 {
			fmt.Fprintf(out, "No cached packages in %s\n", store)
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tVERSION\tPATH")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Version, e.Path)
		}
		return tw.Flush()
	},
}
