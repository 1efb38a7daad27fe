// Package folders wraps the directory operations behind the folder tree.
package folders

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"scribe/internal/apperr"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
)

// Model performs filesystem operations for the folder tree. It refuses
// ambiguous operations instead of recovering from them.
type Model struct {
	logger *slog.Logger
}

// NewModel creates a folder model.
func NewModel(logger *slog.Logger) *Model {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Model{logger: logger}
}

// List returns the child paths of dir sorted by name.
func (m *Model) List(dir string) ([]string, error) {
	dir = fileutil.Canonical(dir)
	if err := requireDir(dir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.FileOp("failed to list directory", dir, err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Create makes an empty file, or a directory when isDir is set.
// The parent must exist and the target must not.
func (m *Model) Create(path string, isDir bool) error {
	path = fileutil.Canonical(path)

	if _, err := os.Lstat(path); err == nil {
		return apperr.FileOp("already exists", path, os.ErrExist)
	}
	parent := filepath.Dir(path)
	if err := requireDir(parent); err != nil {
		return apperr.FileOp("parent directory does not exist", path, err)
	}

	if isDir {
		if err := os.Mkdir(path, 0755); err != nil {
			return apperr.FileOp("failed to create directory", path, err)
		}
	} else {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			return apperr.FileOp("failed to create file", path, err)
		}
		if err := f.Close(); err != nil {
			return apperr.FileOp("failed to create file", path, err)
		}
	}

	m.logger.Info("item created", "path", path, "dir", isDir)
	return nil
}

// Delete removes a file or an empty directory. Directories are never removed recursively.
func (m *Model) Delete(path string) error {
	path = fileutil.Canonical(path)

	info, err := os.Lstat(path)
	if err != nil {
		return apperr.FileOp("does not exist", path, err)
	}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return apperr.FileOp("failed to read directory", path, err)
		}
		if len(entries) > 0 {
			return apperr.FileOp("directory is not empty", path, nil)
		}
	}

	if err := os.Remove(path); err != nil {
		return apperr.FileOp("failed to delete", path, err)
	}
	m.logger.Info("item deleted", "path", path)
	return nil
}

// Rename renames an item inside its directory. Moves across directories are rejected.
func (m *Model) Rename(oldPath, newPath string) error {
	oldPath = fileutil.Canonical(oldPath)
	newPath = fileutil.Canonical(newPath)

	if _, err := os.Lstat(oldPath); err != nil {
		return apperr.FileOp("does not exist", oldPath, err)
	}
	if _, err := os.Lstat(newPath); err == nil {
		return apperr.FileOp("already exists", newPath, os.ErrExist)
	}
	if filepath.Dir(oldPath) != filepath.Dir(newPath) {
		return apperr.FileOp(fmt.Sprintf("cannot move across directories to %s", newPath), oldPath, nil)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return apperr.FileOp("failed to rename", oldPath, err)
	}
	m.logger.Info("item renamed", "from", oldPath, "to", newPath)
	return nil
}

// Exists reports whether path exists.
func (m *Model) Exists(path string) bool {
	_, err := os.Lstat(fileutil.Canonical(path))
	return err == nil
}

// IsDir reports whether path is an existing directory.
func (m *Model) IsDir(path string) bool {
	info, err := os.Stat(fileutil.Canonical(path))
	return err == nil && info.IsDir()
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.FileOp("directory does not exist", path, err)
		}
		return apperr.FileOp("failed to stat", path, err)
	}
	if !info.IsDir() {
		return apperr.FileOp("not a directory", path, nil)
	}
	return nil
}
