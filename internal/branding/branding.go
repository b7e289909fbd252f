// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded with //go:embed, so a fork only edits that file
// and rebuilds.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName         string            `yaml:"cli_name"`
	DisplayName     string            `yaml:"display_name"`
	Description     string            `yaml:"description"`
	HomeDir         string            `yaml:"home_dir"`
	EnvPrefix       string            `yaml:"env_prefix"`
	GoModule        string            `yaml:"go_module"`
	SelfPackage     string            `yaml:"self_package"`
	DefaultRegistry string            `yaml:"default_registry"`
	MirrorRegistry  string            `yaml:"mirror_registry"`
	Commands        map[string]string `yaml:"commands"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:         "hcli",
			DisplayName:     "hcli",
			Description:     "Scaffold projects and components from remote templates",
			HomeDir:         ".hcli",
			EnvPrefix:       "CLI",
			GoModule:        "github.com/hhs-labs/hcli",
			SelfPackage:     "@hhs-cli-dev/core",
			DefaultRegistry: "https://registry.npmjs.org",
			MirrorRegistry:  "https://registry.npmmirror.com",
			Commands:        map[string]string{"init": "@hhs-cli/init"},
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "hcli").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the default dot-directory name under $HOME (e.g., ".hcli").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "CLI").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// SelfPackage returns the registry name the CLI itself is published under.
// The startup update check looks it up.
func SelfPackage() string { load(); return defaults.SelfPackage }

// DefaultRegistry returns the public registry base URL.
func DefaultRegistry() string { load(); return defaults.DefaultRegistry }

// MirrorRegistry returns the alternate mirror registry base URL.
func MirrorRegistry() string { load(); return defaults.MirrorRegistry }

// Commands returns a copy of the command name → package name mapping.
func Commands() map[string]string {
	load()
	out := make(map[string]string, len(defaults.Commands))
	for k, v := range defaults.Commands {
		out[k] = v
	}
	return out
}

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "CLI_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
