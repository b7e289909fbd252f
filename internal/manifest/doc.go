// Package manifest reads package.json manifests and resolves the entry file
// an installed package nominates through its "main" field. Manifests are
// checked against an embedded JSON schema before any field is trusted.
package manifest
