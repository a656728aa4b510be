// Package registry maps database names to file paths.
//
// The registry is a plain text file, <home>/.paths, holding one absolute
// database path per line. A database's name is the file stem of its path,
// so two registered databases never share a stem.
//
// Mutations take an exclusive flock on <home>/.paths.lock and rewrite the
// file atomically. Reads take no lock.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/calvinalkan/jsondb/internal/fs"
)

// Registry errors.
var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrNotRegistered     = errors.New("not registered")
)

const (
	fileName     = ".paths"
	lockFileName = ".paths.lock"
	lockTimeout  = 5 * time.Second
	filePerm     = 0o644
)

// Registry is a handle on the .paths file under a home directory.
type Registry struct {
	home   string
	fs     fs.FS
	locker *fs.Locker
}

// Open returns a registry rooted at home. Nothing is touched on disk until
// the first mutation; taking the lock creates home.
func Open(home string, fsys fs.FS) *Registry {
	return &Registry{home: home, fs: fsys, locker: fs.NewLocker(fsys)}
}

// Path returns the path of the registry file.
func (r *Registry) Path() string { return filepath.Join(r.home, fileName) }

// Name returns the registry name of a database path: its file stem.
func Name(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// List returns the registered paths in registration order. A missing
// registry file lists nothing.
func (r *Registry) List() ([]string, error) {
	return r.read()
}

// Find returns the path registered under name.
func (r *Registry) Find(name string) (string, error) {
	paths, err := r.List()
	if err != nil {
		return "", err
	}

	for _, p := range paths {
		if Name(p) == name {
			return p, nil
		}
	}

	return "", fmt.Errorf("database %q is %w", name, ErrNotRegistered)
}

// Add registers path, resolved to an absolute path. Fails with
// [ErrAlreadyRegistered] if a database with the same name is registered.
func (r *Registry) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	return r.mutate(func(paths []string) ([]string, error) {
		name := Name(abs)

		for _, p := range paths {
			if Name(p) == name {
				return nil, fmt.Errorf("a database named %q is %w at %s", name, ErrAlreadyRegistered, p)
			}
		}

		return append(paths, abs), nil
	})
}

// Remove unregisters every path whose name is name. Fails with
// [ErrNotRegistered] if none matched. The database file is left in place.
func (r *Registry) Remove(name string) error {
	return r.mutate(func(paths []string) ([]string, error) {
		kept := paths[:0:0]

		for _, p := range paths {
			if Name(p) != name {
				kept = append(kept, p)
			}
		}

		if len(kept) == len(paths) {
			return nil, fmt.Errorf("database %q was %w", name, ErrNotRegistered)
		}

		return kept, nil
	})
}

func (r *Registry) mutate(fn func(paths []string) ([]string, error)) (err error) {
	lock, err := r.locker.LockWithTimeout(filepath.Join(r.home, lockFileName), lockTimeout)
	if err != nil {
		return fmt.Errorf("locking registry: %w", err)
	}

	defer func() {
		err = errors.Join(err, lock.Close())
	}()

	paths, err := r.read()
	if err != nil {
		return err
	}

	next, err := fn(paths)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, p := range next {
		b.WriteString(p)
		b.WriteByte('\n')
	}

	err = r.fs.WriteFileAtomic(r.Path(), []byte(b.String()), filePerm)
	if err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}

	return nil
}

func (r *Registry) read() ([]string, error) {
	raw, err := r.fs.ReadFile(r.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	var paths []string

	for line := range strings.Lines(string(raw)) {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}

	return paths, nil
}
