// Package dispatch runs a CLI command that lives in a remote package. It
// maps the command to its package, makes sure the newest version is in the
// local cache, resolves the package's entry file and starts it in a child
// process with the invocation serialized onto its command line.
package dispatch
