package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalDirectory is the directory backups are collected from.
type LocalDirectory struct {
	fs       afero.Fs
	basePath string
}

func NewLocal(fs afero.Fs, basePath string) *LocalDirectory {
	return &LocalDirectory{fs: fs, basePath: basePath}
}

// List returns the names of eligible entries in the order the directory
// yields them. Directories, symlinks to directories and the dot entries are
// skipped.
func (l *LocalDirectory) List(ctx context.Context) ([]string, error) {
	dir, err := l.fs.Open(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}
	defer dir.Close()

	entries, err := dir.Readdir(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if name == "." || name == ".." || entry.IsDir() {
			continue
		}

		if entry.Mode()&os.ModeSymlink != 0 {
			if info, err := l.fs.Stat(l.GetPath(name)); err == nil && info.IsDir() {
				continue
			}
		}

		files = append(files, name)
	}

	return files, nil
}

// Open opens a backup for reading and reports its size.
func (l *LocalDirectory) Open(name string) (io.ReadSeekCloser, int64, error) {
	file, err := l.fs.Open(l.GetPath(name))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open source: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, fmt.Errorf("failed to stat source: %w", err)
	}

	if info.IsDir() {
		_ = file.Close()
		return nil, 0, fmt.Errorf("source %s is a directory", name)
	}

	return file, info.Size(), nil
}

func (l *LocalDirectory) Delete(name string) error {
	if err := l.fs.Remove(l.GetPath(name)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalDirectory) GetPath(filename string) string {
	return filepath.Join(l.basePath, filename)
}

func (l *LocalDirectory) BasePath() string {
	return l.basePath
}
