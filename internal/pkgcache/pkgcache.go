// Package pkgcache maps (store root, package name, version) to the directory
// a cached package lives in. The mapping is a pure function so existence
// checks are idempotent and each version gets exactly one directory.
//
// A directory name is "_<sanitized>@<version>@<escaped>": sanitized is the
// name with path separators replaced by '_', escaped is the raw name in
// query-escaped form (so "/" and "@" are percent-encoded). Neither part can
// create a nested directory, and the raw name can be recovered from a
// directory listing.
package pkgcache

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	dirPrefix  = "_"
	fieldSep   = "@"
	substitute = "_"
)

// SanitizeName replaces every path separator in name with '_'.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", substitute)
	return strings.ReplaceAll(name, `\`, substitute)
}

// DirName returns the single path element for (name, version).
func DirName(name, version string) string {
	return dirPrefix + SanitizeName(name) + fieldSep + version + fieldSep + url.QueryEscape(name)
}

// CachePath returns the absolute cache directory for (name, version) under
// storeRoot. Relative store roots are resolved against the working directory.
func CachePath(storeRoot, name, version string) string {
	root := storeRoot
	if abs, err := filepath.Abs(storeRoot); err == nil {
		root = abs
	}
	return filepath.Join(root, DirName(name, version))
}

// Exists reports whether the cache directory for (name, version) exists.
func Exists(storeRoot, name, version string) (bool, error) {
	return PathExists(CachePath(storeRoot, name, version))
}

// PathExists reports whether path exists. Errors other than "not exist"
// are returned so callers don't mistake a permission problem for a miss.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking %s: %w", path, err)
}

// Entry is one cached (name, version) pair recovered from the store.
type Entry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Path    string `json:"path"`
}

// ParseDirName inverts DirName. ok is false for directories the cache did
// not create.
func ParseDirName(dir string) (name, version string, ok bool) {
	if !strings.HasPrefix(dir, dirPrefix) {
		return "", "", false
	}
	rest := dir[len(dirPrefix):]

	last := strings.LastIndex(rest, fieldSep)
	if last <= 0 {
		return "", "", false
	}
	head, escaped := rest[:last], rest[last+1:]
	raw, err := url.QueryUnescape(escaped)
	if err != nil || raw == "" {
		return "", "", false
	}

	prefix := SanitizeName(raw) + fieldSep
	if !strings.HasPrefix(head, prefix) {
		return "", "", false
	}
	version = head[len(prefix):]
	if version == "" {
		return "", "", false
	}
	if DirName(raw, version) != dir {
		return "", "", false
	}
	return raw, version, true
}

// List returns every cache entry under storeRoot sorted by name then
// directory order. A missing store yields no entries.
func List(storeRoot string) ([]Entry, error) {
	dirents, err := os.ReadDir(storeRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading store %s: %w", storeRoot, err)
	}

	var entries []Entry
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		name, version, ok := ParseDirName(d.Name())
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Name:    name,
			Version: version,
			Path:    filepath.Join(storeRoot, d.Name()),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
