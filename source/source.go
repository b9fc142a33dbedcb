// Package source defines where template sources are read from.
//
// A Source maps slash separated template paths, as produced by the loader,
// to template text. Dir reads from directories on the local filesystem and
// Memory from a map. The s3source and pgsource packages read from Amazon S3
// and PostgreSQL.
package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned, possibly wrapped, for a path a Source does not
// hold.
var ErrNotFound = fs.ErrNotExist

// Source is a store of template sources.
type Source interface {
	// IsReadable reports whether path exists and can be read.
	IsReadable(ctx context.Context, path string) bool

	// LastModified returns the modification time of path.
	LastModified(ctx context.Context, path string) (time.Time, error)

	// Contents returns the text stored at path.
	Contents(ctx context.Context, path string) (string, error)

	// PutContents stores contents at path, replacing any previous text.
	PutContents(ctx context.Context, path, contents string) error
}

// Clean normalizes a template path: backslashes become slashes, repeated
// slashes collapse and "." segments are dropped. It fails if ".." segments
// climb above the root.
func Clean(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	var parts []string
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(parts) == 0 {
				return "", fmt.Errorf("%s resolves to a path outside source", p)
			}
			parts = parts[:len(parts)-1]
		default:
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "/"), nil
}

// Dir reads templates from one or more directories. A path is looked up in
// each directory in turn; writes go to the directory already holding the
// path, or to the first one.
type Dir struct {
	roots []string
}

// NewDir returns a Dir over the given directories, which must exist.
func NewDir(roots ...string) (*Dir, error) {
	if len(roots) == 0 {
		return nil, stderrors.New("missing source directory")
	}
	d := &Dir{}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("source directory %s: %w", root, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("source directory %s not found", root)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source %s is not a directory", root)
		}
		d.roots = append(d.roots, abs)
	}
	return d, nil
}

// Roots returns the absolute paths of the directories.
func (d *Dir) Roots() []string {
	return append([]string(nil), d.roots...)
}

// locate returns the file holding p, or "" if no directory has it.
func (d *Dir) locate(p string) (string, error) {
	clean, err := Clean(p)
	if err != nil {
		return "", err
	}
	for _, root := range d.roots {
		file := filepath.Join(root, filepath.FromSlash(clean))
		if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() {
			return file, nil
		}
	}
	return "", fmt.Errorf("%s: %w", p, ErrNotFound)
}

func (d *Dir) IsReadable(ctx context.Context, p string) bool {
	file, err := d.locate(p)
	if err != nil {
		return false
	}
	f, err := os.Open(file)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func (d *Dir) LastModified(ctx context.Context, p string) (time.Time, error) {
	file, err := d.locate(p)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(file)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (d *Dir) Contents(ctx context.Context, p string) (string, error) {
	file, err := d.locate(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (d *Dir) PutContents(ctx context.Context, p, contents string) error {
	file, err := d.locate(p)
	if err != nil {
		clean, cerr := Clean(p)
		if cerr != nil {
			return cerr
		}
		file = filepath.Join(d.roots[0], filepath.FromSlash(clean))
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	return os.WriteFile(file, []byte(contents), 0o644)
}

// Memory holds templates in a map. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	files    map[string]string
	modified map[string]time.Time
	now      func() time.Time
}

// NewMemory returns a Memory holding files, keyed by path.
func NewMemory(files map[string]string) *Memory {
	m := &Memory{
		files:    map[string]string{},
		modified: map[string]time.Time{},
		now:      time.Now,
	}
	for p, contents := range files {
		m.put(p, contents)
	}
	return m
}

func (m *Memory) put(p, contents string) {
	if clean, err := Clean(p); err == nil {
		p = clean
	}
	m.files[p] = contents
	m.modified[p] = m.now()
}

func (m *Memory) get(p string) (string, time.Time, bool) {
	clean, err := Clean(p)
	if err != nil {
		return "", time.Time{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	contents, ok := m.files[clean]
	return contents, m.modified[clean], ok
}

// Paths returns the stored paths in sorted order.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (m *Memory) IsReadable(ctx context.Context, p string) bool {
	_, _, ok := m.get(p)
	return ok
}

func (m *Memory) LastModified(ctx context.Context, p string) (time.Time, error) {
	_, modified, ok := m.get(p)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return modified, nil
}

func (m *Memory) Contents(ctx context.Context, p string) (string, error) {
	contents, _, ok := m.get(p)
	if !ok {
		return "", fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return contents, nil
}

func (m *Memory) PutContents(ctx context.Context, p, contents string) error {
	if _, err := Clean(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(p, contents)
	return nil
}
