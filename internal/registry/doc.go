// Package registry is the client for npm-style package registries. It fetches
// a package's registry document (GET <base>/<name>), lists its published
// versions, and picks "latest" or "latest compatible with a base version" by
// semantic-version precedence. Version strings are never compared lexically.
package registry
