package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	clierr "github.com/hhs-labs/hcli/internal/errors"
)

// FindRoot returns the nearest directory at or above dir that contains a
// manifest. ok is false when no ancestor up to the filesystem root has one.
func FindRoot(dir string) (root string, ok bool, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false, fmt.Errorf("resolving %s: %w", dir, err)
	}

	for cur := abs; ; {
		info, err := os.Stat(filepath.Join(cur, FileName))
		switch {
		case err == nil && !info.IsDir():
			return cur, true, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", false, fmt.Errorf("checking %s: %w", cur, err)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", false, nil
		}
		cur = parent
	}
}

// ResolveEntry returns the absolute path of the entry file declared by the
// package containing dir. ok is false when there is no manifest or the
// manifest has no main field. The entry file itself is not required to
// exist; the launcher reports that.
func ResolveEntry(dir string) (entry string, ok bool, err error) {
	root, found, err := FindRoot(dir)
	if err != nil || !found {
		return "", false, err
	}

	m, err := ParseFile(filepath.Join(root, FileName))
	if err != nil {
		return "", false, clierr.WrapWithDetails(clierr.EInvalidPackage, "reading package manifest", err,
			map[string]string{"dir": root})
	}
	if !m.HasEntry() {
		return "", false, nil
	}

	return filepath.Clean(filepath.Join(root, filepath.FromSlash(m.Main))), true, nil
}
