// Package fsys implements the filesystem actions used by scaffolding over an
// afero filesystem, so the same code runs against the OS or memory.
package fsys

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// Actions are the filesystem operations scaffolding needs.
type Actions interface {
	Exists(path string) (bool, error)
	DirExists(path string) (bool, error)
	MkdirAll(path string) error
	RemoveAll(path string) error
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	CopyFile(src, dst string) error
	CopyTree(src fs.FS, dir, dst string) error
}

// excludedNames are skipped when copying trees.
var excludedNames = map[string]bool{
	".git":      true,
	".DS_Store": true,
}

// Local implements Actions on an afero.Fs.
type Local struct {
	fs afero.Fs
}

var _ Actions = (*Local)(nil)

// New returns Actions backed by fsys.
func New(fsys afero.Fs) *Local {
	return &Local{fs: fsys}
}

// OS returns Actions on the host filesystem.
func OS() *Local {
	return New(afero.NewOsFs())
}

// Fs exposes the underlying filesystem for collaborators that read from it.
func (l *Local) Fs() afero.Fs {
	return l.fs
}

func (l *Local) Exists(path string) (bool, error) {
	return afero.Exists(l.fs, path)
}

func (l *Local) DirExists(path string) (bool, error) {
	return afero.DirExists(l.fs, path)
}

func (l *Local) MkdirAll(path string) error {
	if err := l.fs.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

// RemoveAll deletes path and everything below it. A missing path is not an
// error.
func (l *Local) RemoveAll(path string) error {
	if err := l.fs.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

func (l *Local) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// WriteFile writes data to path, creating parent directories.
func (l *Local) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := l.MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	if err := afero.WriteFile(l.fs, path, data, perm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// CopyFile copies a single file, preserving its permissions.
func (l *Local) CopyFile(src, dst string) error {
	info, err := l.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	data, err := afero.ReadFile(l.fs, src)
	if err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return l.WriteFile(dst, data, info.Mode().Perm())
}

// CopyTree recursively copies dir from src into dst. Directories are created
// even when empty; symlinks and special files are skipped.
func (l *Local) CopyTree(src fs.FS, dir, dst string) error {
	err := fs.WalkDir(src, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if excludedNames[d.Name()] {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel := p[len(dir):]
		if dir == "." {
			rel = p
		}
		target := filepath.Join(dst, filepath.FromSlash(path.Clean("/"+rel)))

		switch {
		case d.IsDir():
			return l.MkdirAll(target)
		case d.Type().IsRegular():
			data, err := fs.ReadFile(src, p)
			if err != nil {
				return err
			}
			return l.WriteFile(target, data, 0o644)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("copying %s to %s: %w", dir, dst, err)
	}
	return nil
}
