package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hhs-labs/hcli/internal/branding"
	"github.com/hhs-labs/hcli/internal/config"
	clierr "github.com/hhs-labs/hcli/internal/errors"
	"github.com/hhs-labs/hcli/internal/log"
	"github.com/hhs-labs/hcli/internal/manifest"
	"github.com/hhs-labs/hcli/internal/registry"
	"github.com/hhs-labs/hcli/internal/updater"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	flagDebug         bool
	flagTargetPath    string
	flagNoUpdateCheck bool

	settings *config.Settings
)

// updateCheckTimeout bounds the startup version check.
const updateCheckTimeout = 3 * time.Second

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` scaffolds projects and components from remote templates.
Each command is implemented by a package fetched from the registry, cached
under the CLI home and run in its own process.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prepare,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagDebug, "debug", "d", false, "Enable verbose output")
	pf.StringVarP(&flagTargetPath, "targetPath", "t", "", "Run commands from a local package directory, bypassing the cache")
	pf.BoolVar(&flagNoUpdateCheck, "no-update-check", false, "Skip the check for a newer "+branding.CLIName())
}

// prepare resolves settings, configures logging and runs the update check.
func prepare(cmd *cobra.Command, _ []string) error {
	s, err := config.Resolve(config.Overrides{
		TargetPath:    flagTargetPath,
		Debug:         flagDebug,
		NoUpdateCheck: flagNoUpdateCheck,
	})
	if err != nil {
		return err
	}
	settings = s

	log.SetHeading(branding.CLIName())
	log.SetLevel(log.ParseLevel(s.LogLevel))
	manifest.SetLanguage(clierr.UserLanguage(os.Getenv))
	log.Verbose("cli", "home %s, registry %s", s.HomePath, s.Registry)

	switch cmd.Name() {
	case "version", "config", "get", "set", "cache", "list", "update", "help", "completion":
		return nil
	}
	if s.SkipUpdateCheck {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), updateCheckTimeout)
	defer cancel()
	selfUpdater(s).CheckAndPrintBanner(ctx, os.Stderr, s.HomePath)
	return nil
}

func selfUpdater(s *config.Settings) *updater.Updater {
	rc := registry.New(s.Registry, registry.WithTimeout(s.RegistryTimeout))
	return updater.New(buildVersion, branding.SelfPackage(), rc)
}

// Execute runs the root command with build info injected via ldflags. The
// returned error has already been reported to the user.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		report(err)
	}
	return err
}

// report prints err as a short localized message, plus the full chain and
// details in debug mode.
func report(err error) {
	var exit *ExitError
	if errors.As(err, &exit) {
		return
	}

	log.Error("", "%s", clierr.Localize(err, clierr.UserLanguage(os.Getenv)))
	if !flagDebug {
		return
	}
	log.Error("", "%+v", err)
	if ce, ok := clierr.AsCLIError(err); ok {
		for k, v := range ce.Details {
			log.Error("", "  %s: %s", k, v)
		}
	}
}
