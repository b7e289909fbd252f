// Package cli defines the Cobra command tree for hcli. Each file registers
// one top-level command with the root command. Commands resolve settings
// once in the root pre-run and delegate the real work to dispatch, pkgcache
// and updater.
package cli
