// Package platform provides cross-platform filesystem operations: permission
// bits for extracted package files and the node_modules links that point at
// cached package directories. On Windows, where symlinks may need developer
// mode, links fall back to a .target sidecar file.
package platform
