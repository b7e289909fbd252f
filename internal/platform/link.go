package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const sidecarSuffix = ".target"

// LinkDir makes link point at the directory target, replacing any previous
// link or sidecar at that path. Parent directories of link are created.
// On Windows without symlink support the link is recorded in a .target
// sidecar instead.
func LinkDir(target, link string) error {
	if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return fmt.Errorf("creating link parent: %w", err)
	}
	if err := RemoveLink(link); err != nil {
		return err
	}

	err := os.Symlink(target, link)
	if err == nil || runtime.GOOS != "windows" {
		return err
	}

	if err := os.WriteFile(link+sidecarSuffix, []byte(target), 0644); err != nil {
		return fmt.Errorf("symlink fallback (sidecar) failed: %w", err)
	}
	return nil
}

// RemoveLink removes a link (or its sidecar). It refuses to delete a real
// directory so a linked path can never take a package copy with it.
func RemoveLink(path string) error {
	os.Remove(path + sidecarSuffix) // best-effort

	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("%s exists and is not a link", path)
	}
	return os.Remove(path)
}

// ReadLinkTarget returns the target of a link. On Windows, if os.Readlink
// fails because the sidecar fallback was used, it reads the sidecar.
func ReadLinkTarget(path string) (string, error) {
	target, err := os.Readlink(path)
	if err == nil {
		return target, nil
	}

	data, readErr := os.ReadFile(path + sidecarSuffix)
	if readErr != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
