package cli

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hhs-labs/hcli/internal/branding"
	"github.com/hhs-labs/hcli/internal/dispatch"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Initialize even if the target directory is not empty")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [projectName]",
	Short: "Create a new project from a template",
	Long: `Create a new project or component from a remote template.

The template engine is itself a package (` + branding.Commands()["init"] + `). It is
fetched on first use, kept up to date in the local cache and run with the
arguments given here.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDispatched,
}

// runDispatched hands the command to the package that implements it.
func runDispatched(cmd *cobra.Command, args []string) error {
	d, err := dispatch.New(dispatch.Config{
		HomePath:   settings.HomePath,
		TargetPath: settings.TargetPath,
		Registry:   settings.Registry,
		Timeout:    settings.RegistryTimeout,
		Commands:   branding.Commands(),
		Env:        settings.ChildEnv(),
	})
	if err != nil {
		return err
	}

	code, err := d.Dispatch(cmd.Context(), dispatch.Invocation{
		Command: cmd.Name(),
		Args:    args,
		Options: commandOptions(cmd),
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// commandOptions collects the command's own flags by name. Booleans stay
// booleans; everything else is passed as its string form.
func commandOptions(cmd *cobra.Command) map[string]any {
	opts := make(map[string]any)
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" {
			return
		}
		if f.Value.Type() == "bool" {
			b, _ := strconv.ParseBool(f.Value.String())
			opts[f.Name] = b
			return
		}
		opts[f.Name] = f.Value.String()
	})
	return opts
}
