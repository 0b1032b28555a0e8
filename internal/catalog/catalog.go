// Package catalog discovers the example projects bundled with seedling.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

// Entry is one example project.
type Entry struct {
	Name string
	// Path is the example's directory inside the asset tree.
	Path string
}

// Lookup returns the example directories under dir, sorted by name. A
// missing dir yields an empty catalog.
func Lookup(fsys fs.FS, dir string) ([]Entry, error) {
	dirEntries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading example catalog: %w", err)
	}

	var entries []Entry
	for _, d := range dirEntries {
		if !d.IsDir() || d.Name()[0] == '.' {
			continue
		}
		entries = append(entries, Entry{Name: d.Name(), Path: path.Join(dir, d.Name())})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Find returns the entry called name.
func Find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Names returns the entry names in order.
func Names(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
