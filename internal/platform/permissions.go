package platform

import (
	"os"
	"runtime"
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// ExtractedFileMode normalizes a mode taken from an archive header: the
// owner always gets read/write, execute bits are kept, and group/other
// write is dropped.
func ExtractedFileMode(headerMode int64) os.FileMode {
	mode := os.FileMode(headerMode).Perm()
	mode |= 0644
	if mode&0111 != 0 {
		mode |= 0755
	}
	return mode &^ 0022
}
