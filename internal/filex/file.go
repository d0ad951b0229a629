// Package filex contains small filesystem helpers shared by components that
// keep state on disk (the image cache, the local database).
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and any missing parents). It is idempotent and
// fails if a non-directory already occupies the path.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// DefaultCacheDir returns the per-user cache directory for the application,
// e.g. ~/.cache/hubsync/images on Linux.
func DefaultCacheDir(app string, sub string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("user cache dir: %w", err)
	}
	return filepath.Join(base, app, sub), nil
}
