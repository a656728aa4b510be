// Package fs provides the filesystem abstraction used by the database and
// registry layers.
//
// The main types are:
//   - [FS]: interface for filesystem operations
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using [os] and atomic renames
//   - [Injected]: testing implementation that fails selected operations
//   - [Locker]: advisory flock(2) locks on lock files
//
// Tests swap [Real] for [Injected] to make single operations fail:
//
//	fsys := fs.NewInjected(fs.NewReal())
//	fsys.FailOn(fs.OpWriteFileAtomic, func(string) bool { return true })
//	db, err := jsondb.Load(path, jsondb.Config{FS: fsys})
package fs

import (
	"io"
	"os"
)

// File is an open file. Only lock files are opened through [FS]; the
// database and registry are always read and written whole.
type File interface {
	io.ReadWriteCloser

	// Fd is handed to flock by [Locker].
	Fd() uintptr
}

// FS defines filesystem operations for reading, writing, and managing files.
//
// All methods mirror their [os] package equivalents but can be intercepted
// for testing with fault injection (see [Injected]).
type FS interface {
	// OpenFile opens a file with specified flags and permissions. See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary. See [os.WriteFile].
	//
	// Note: WriteFile is not atomic. Use [FS.WriteFileAtomic] for files that
	// must never be observed half-written.
	WriteFile(path string, data []byte, perm os.FileMode) error

	// WriteFileAtomic writes data to a file atomically.
	// Uses a temp file + rename to prevent partial writes on crash.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// ReadDir reads a directory and returns its entries. See [os.ReadDir].
	// Entries are sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error
}

// Compile-time interface checks.
var _ File = (*os.File)(nil)
