// Package installer fetches package tarballs from a registry and unpacks
// them into the versioned cache layout defined by pkgcache. Each install
// downloads into the store directory, verifies the tarball against the
// registry's integrity data, extracts into a temporary directory, and renames
// it into place, so a cache directory either holds a complete package or
// does not exist.
package installer
