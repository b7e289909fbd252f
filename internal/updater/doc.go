// Package updater tells the user when a newer compatible release of the CLI
// itself is published. Results are cached for a day in the CLI home so the
// registry is consulted at most once per day.
package updater
