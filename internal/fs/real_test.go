package fs_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/jsondb/internal/fs"
)

func TestRealWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("creates new file with requested perm", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "db.jsondb")
		fsys := fs.NewReal()

		require.NoError(t, fsys.WriteFileAtomic(path, []byte("{}"), 0o640))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "{}", string(data))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	})

	t.Run("replaces content and keeps existing mode", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "db.jsondb")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

		fsys := fs.NewReal()
		require.NoError(t, fsys.WriteFileAtomic(path, []byte("new"), 0o644))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		fsys := fs.NewReal()

		require.NoError(t, fsys.WriteFileAtomic(filepath.Join(dir, "a"), []byte("1"), 0o644))
		require.NoError(t, fsys.WriteFileAtomic(filepath.Join(dir, "a"), []byte("2"), 0o644))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "a", entries[0].Name())
	})
}

func TestRealExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := fs.NewReal()

	ok, err := fsys.Exists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = fsys.Exists(dir)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInjectedFailsMatchingPathsOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := fs.NewInjected(fs.NewReal())

	bad := filepath.Join(dir, "bad")
	good := filepath.Join(dir, "good")

	fsys.FailOn(fs.OpWriteFile, func(path string) bool { return path == bad })

	err := fsys.WriteFile(bad, []byte("x"), 0o644)
	require.Error(t, err)
	assert.True(t, fs.IsInjected(err))
	assert.True(t, errors.Is(err, fs.ErrInjected))

	require.NoError(t, fsys.WriteFile(good, []byte("x"), 0o644))
	assert.Equal(t, 2, fsys.Calls(fs.OpWriteFile))

	fsys.FailOn(fs.OpWriteFile, nil)
	require.NoError(t, fsys.WriteFile(bad, []byte("x"), 0o644))
}

func TestLockerLockWithTimeout(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", ".paths.lock")
	locker := fs.NewLocker(fs.NewReal())

	first, err := locker.LockWithTimeout(path, time.Second)
	require.NoError(t, err)

	// A second open file description contends with the first on the same inode.
	_, err = locker.LockWithTimeout(path, 20*time.Millisecond)
	require.ErrorIs(t, err, fs.ErrWouldBlock)

	require.NoError(t, first.Close())
	require.NoError(t, first.Close(), "close is idempotent")

	second, err := locker.LockWithTimeout(path, time.Second)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestLockerRejectsNonPositiveTimeout(t *testing.T) {
	t.Parallel()

	locker := fs.NewLocker(fs.NewReal())

	_, err := locker.LockWithTimeout(filepath.Join(t.TempDir(), "x.lock"), 0)
	require.Error(t, err)
}
