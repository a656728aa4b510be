package fs

import (
	"errors"
	"os"
	"sync"
)

// Op names an [FS] operation that [Injected] can fail.
type Op string

// Operations that can be failed by [Injected].
const (
	OpOpenFile        Op = "openfile"
	OpReadFile        Op = "readfile"
	OpWriteFile       Op = "writefile"
	OpWriteFileAtomic Op = "writefileatomic"
	OpReadDir         Op = "readdir"
	OpMkdirAll        Op = "mkdirall"
	OpExists          Op = "exists"
	OpRemove          Op = "remove"
)

// InjectedError marks an error as intentionally injected by [Injected].
//
// It wraps the underlying error so errors.Is/As continue to work.
type InjectedError struct {
	Op   Op
	Path string
	Err  error
}

// Error returns "injected <op> <path>: <err>".
func (e *InjectedError) Error() string {
	return "injected " + string(e.Op) + " " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by [Injected].
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

// ErrInjected is the default cause used by [Injected.FailOn].
var ErrInjected = errors.New("injected failure")

// Injected wraps an [FS] and fails operations matching registered rules.
// Everything else passes through. Safe for concurrent use.
//
// Example:
//
//	fsys := fs.NewInjected(fs.NewReal())
//	fsys.FailOn(fs.OpRemove, func(path string) bool { return true })
//	err := fsys.Remove("x") // *InjectedError
type Injected struct {
	inner FS

	mu    sync.Mutex
	rules map[Op]func(path string) bool
	calls map[Op]int
}

// NewInjected wraps inner. Panics if inner is nil.
func NewInjected(inner FS) *Injected {
	if inner == nil {
		panic("inner fs is nil")
	}

	return &Injected{
		inner: inner,
		rules: make(map[Op]func(path string) bool),
		calls: make(map[Op]int),
	}
}

// FailOn makes op fail with [ErrInjected] for every path match reports true.
// A nil match clears the rule.
func (f *Injected) FailOn(op Op, match func(path string) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if match == nil {
		delete(f.rules, op)

		return
	}

	f.rules[op] = match
}

// Calls returns how many times op was invoked (failed or not).
func (f *Injected) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[op]
}

func (f *Injected) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[op]++

	match, ok := f.rules[op]
	if ok && match(path) {
		return &InjectedError{Op: op, Path: path, Err: ErrInjected}
	}

	return nil
}

func (f *Injected) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if err := f.check(OpOpenFile, path); err != nil {
		return nil, err
	}

	return f.inner.OpenFile(path, flag, perm)
}

func (f *Injected) ReadFile(path string) ([]byte, error) {
	if err := f.check(OpReadFile, path); err != nil {
		return nil, err
	}

	return f.inner.ReadFile(path)
}

func (f *Injected) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := f.check(OpWriteFile, path); err != nil {
		return err
	}

	return f.inner.WriteFile(path, data, perm)
}

func (f *Injected) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := f.check(OpWriteFileAtomic, path); err != nil {
		return err
	}

	return f.inner.WriteFileAtomic(path, data, perm)
}

func (f *Injected) ReadDir(path string) ([]os.DirEntry, error) {
	if err := f.check(OpReadDir, path); err != nil {
		return nil, err
	}

	return f.inner.ReadDir(path)
}

func (f *Injected) MkdirAll(path string, perm os.FileMode) error {
	if err := f.check(OpMkdirAll, path); err != nil {
		return err
	}

	return f.inner.MkdirAll(path, perm)
}

func (f *Injected) Exists(path string) (bool, error) {
	if err := f.check(OpExists, path); err != nil {
		return false, err
	}

	return f.inner.Exists(path)
}

func (f *Injected) Remove(path string) error {
	if err := f.check(OpRemove, path); err != nil {
		return err
	}

	return f.inner.Remove(path)
}

var _ FS = (*Injected)(nil)
