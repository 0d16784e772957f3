// Package uploads keeps uploaded files in a single public directory. The directory is the
// only record of what has been uploaded.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = errors.New("file not found")
)

type Registry struct {
	dir string
	now func() time.Time
}

func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir, now: time.Now}
}

func (r *Registry) Dir() string {
	return r.dir
}

// List returns the names of the regular files in the directory, sorted.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read uploads dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Store writes src under a name made of the current unix millisecond and the extension
// of originalName. An existing file with the same name is never overwritten.
func (r *Registry) Store(src io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	name := strconv.FormatInt(r.now().UnixMilli(), 10) + extension(originalName)
	path := filepath.Join(r.dir, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return name, nil
}

// Delete removes the named file.
func (r *Registry) Delete(name string) error {
	path, err := r.Resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Resolve maps a bare file name to its path inside the directory. Names containing
// separators or dot segments, or resolving outside the directory, are rejected.
func (r *Registry) Resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", ErrInvalidName
	}

	base, err := filepath.Abs(r.dir)
	if err != nil {
		return "", err
	}
	full := filepath.Join(base, name)
	if filepath.Dir(full) != base {
		return "", ErrInvalidName
	}
	return full, nil
}

// extension returns the suffix from the last dot of the base name. Dotfiles and names
// ending in a dot have none.
func extension(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := filepath.Ext(base)
	if ext == base || ext == "." {
		return ""
	}
	return ext
}
