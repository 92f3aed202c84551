package mirror

import (
	"fmt"

	"github.com/spf13/afero"
)

// CleanStore removes the store directory and recreates it empty, so a fresh
// run starts from a blank slate.  It refuses to touch anything if storePath
// exists but is not a directory.
func CleanStore(fs afero.Fs, storePath string) error {
	stat, err := fs.Stat(storePath)
	if err == nil && !stat.IsDir() {
		return fmt.Errorf("mirror: store path is not a directory: %s", storePath)
	}

	if err := fs.RemoveAll(storePath); err != nil {
		return fmt.Errorf("mirror: couldn't wipe store %s: %w", storePath, err)
	}

	if err := fs.MkdirAll(storePath, 0750); err != nil {
		return fmt.Errorf("mirror: couldn't recreate store %s: %w", storePath, err)
	}

	return nil
}
