package jsondb

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/jsondb/internal/fs"
)

func TestParseBackupFileName(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name   string
		wantTS int64
		wantOK bool
	}{
		{".jsondb_backup_notes_1700000000.jsondb", 1700000000, true},
		{".jsondb_backup_notes_0.jsondb", 0, true},
		{".jsondb_backup_notes_.jsondb", 0, false},
		{".jsondb_backup_notes_-5.jsondb", 0, false},
		{".jsondb_backup_notes_12a.jsondb", 0, false},
		{".jsondb_backup_notes_12.json", 0, false},
		{".jsondb_backup_other_12.jsondb", 0, false},
		{"notes_12.jsondb", 0, false},
		{".jsondb_backup_notes_99999999999999999999.jsondb", 0, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts, ok := parseBackupFileName("notes", tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTS, ts)
		})
	}
}

func TestBackupDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("/data", ".jsondb_backups_notes"), BackupDir("/data/notes.jsondb"))
}

func seedBackups(t *testing.T, dir string, count int) {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755))

	for i := range count {
		name := backupFileName("notes", int64(1000+i))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	return names
}

func TestRotateBackupsKeepsNewest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.jsondb")
	dir := BackupDir(path)
	seedBackups(t, dir, 60)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".jsondb_backup_notes_1.json"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, backupFileName("notes", 1)), 0o755))

	now := time.Unix(5000, 0)
	require.NoError(t, rotateBackups(fs.NewReal(), path, []byte(`{"x":1}`), now, 50))

	names := listDir(t, dir)

	var kept []string

	for _, n := range names {
		if _, ok := parseBackupFileName("notes", n); ok {
			kept = append(kept, n)
		}
	}

	assert.Len(t, kept, 51, "50 backup files plus the directory that looks like one")
	assert.Contains(t, names, "README")
	assert.Contains(t, names, ".jsondb_backup_notes_1.json")
	assert.Contains(t, names, backupFileName("notes", 5000))

	for i := range 11 {
		assert.NotContains(t, names, backupFileName("notes", int64(1000+i)), "oldest backups are removed")
	}

	assert.Contains(t, names, backupFileName("notes", 1011))

	raw, err := os.ReadFile(filepath.Join(dir, backupFileName("notes", 5000)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(raw))
}

func TestRotateBackupsUnderLimit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.jsondb")

	require.NoError(t, rotateBackups(fs.NewReal(), path, []byte("{}"), time.Unix(7, 0), 3))
	require.NoError(t, rotateBackups(fs.NewReal(), path, []byte("{}"), time.Unix(8, 0), 3))

	names := listDir(t, BackupDir(path))
	slices.Sort(names)
	assert.Equal(t, []string{backupFileName("notes", 7), backupFileName("notes", 8)}, names)
}

func TestRotateBackupsStopsOnDeleteFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.jsondb")
	dir := BackupDir(path)
	seedBackups(t, dir, 5)

	fsys := fs.NewInjected(fs.NewReal())
	fsys.FailOn(fs.OpRemove, func(p string) bool { return filepath.Base(p) == backupFileName("notes", 1001) })

	err := rotateBackups(fsys, path, []byte("{}"), time.Unix(9000, 0), 2)
	require.ErrorIs(t, err, fs.ErrInjected)

	names := listDir(t, dir)
	assert.NotContains(t, names, backupFileName("notes", 1000))
	assert.Contains(t, names, backupFileName("notes", 1001))
	assert.Contains(t, names, backupFileName("notes", 1002), "rotation stops at the first failure")
	assert.Equal(t, 2, fsys.Calls(fs.OpRemove))
}

func TestLoadTakesBackupWhenEnabled(t *testing.T) {
	t.Parallel()

	db, err := Create("notes", t.TempDir(), Config{})
	require.NoError(t, err)
	db.SetBackupsEnabled(true)
	require.NoError(t, db.Save())

	clock := time.Unix(100, 0)
	cfg := Config{
		BackupKeepCount: 2,
		Now: func() time.Time {
			clock = clock.Add(time.Second)

			return clock
		},
	}

	for range 4 {
		_, err := Load(db.Path(), cfg)
		require.NoError(t, err)
	}

	names := listDir(t, BackupDir(db.Path()))
	slices.Sort(names)
	assert.Equal(t, []string{backupFileName("notes", 103), backupFileName("notes", 104)}, names)
}

func TestLoadKeepNoBackupsDeletesEveryBackup(t *testing.T) {
	t.Parallel()

	db, err := Create("notes", t.TempDir(), Config{})
	require.NoError(t, err)
	db.SetBackupsEnabled(true)
	require.NoError(t, db.Save())

	for range 3 {
		_, err := Load(db.Path(), Config{BackupKeepCount: KeepNoBackups})
		require.NoError(t, err)
	}

	assert.Empty(t, listDir(t, BackupDir(db.Path())))
}

func TestLoadWithoutBackups(t *testing.T) {
	t.Parallel()

	db, err := Create("notes", t.TempDir(), Config{})
	require.NoError(t, err)

	_, err = Load(db.Path(), Config{})
	require.NoError(t, err)

	_, err = os.Stat(BackupDir(db.Path()))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsNewerVersion(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		stored string
		want   bool
	}{
		{"1.0.0", false},
		{"0.9.9", false},
		{"1.0.1", true},
		{"1.10.0", true},
		{"2", true},
		{"1.0.0.1", true},
		{"1.0", false},
	} {
		got, err := isNewerVersion(tt.stored, "1.0.0")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "stored %s", tt.stored)
	}

	_, err := isNewerVersion("1.x", "1.0.0")
	require.ErrorIs(t, err, ErrInvalidDocument)
}
