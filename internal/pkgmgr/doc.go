// Package pkgmgr drives one package through its cache lifecycle: decide
// whether the requested version is already on disk, install it when it is
// not, move a cached package forward to the registry's newest version, and
// hand back the entry file of whatever is present.
package pkgmgr
