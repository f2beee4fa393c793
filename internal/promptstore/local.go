package promptstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalSource reads overrides from a directory.
type LocalSource struct {
	baseDir string
}

// NewLocalSource creates a LocalSource rooted at baseDir.
func NewLocalSource(baseDir string) *LocalSource {
	return &LocalSource{baseDir: baseDir}
}

// Read returns baseDir/name. A missing file or directory is ErrNotFound.
func (p *LocalSource) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(p.Location(name)) //nolint:gosec // G304: name is one of the fixed template names
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.Location(name), err)
	}
	return data, nil
}

// Location returns the file path for name.
func (p *LocalSource) Location(name string) string {
	return filepath.Join(p.baseDir, name)
}
