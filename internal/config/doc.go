// Package config resolves hcli's settings from, in order of precedence,
// command-line overrides, CLI_* environment variables, ~/.hcli/config.yaml
// and built-in defaults. ~/.env is loaded into the environment first.
package config
