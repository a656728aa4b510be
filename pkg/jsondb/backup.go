package jsondb

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/calvinalkan/jsondb/internal/fs"
)

const (
	backupDirPrefix  = ".jsondb_backups_"
	backupFilePrefix = ".jsondb_backup_"
)

// BackupDir returns the backup directory for the database at path:
// a sibling directory named .jsondb_backups_<stem>.
func BackupDir(path string) string {
	return filepath.Join(filepath.Dir(path), backupDirPrefix+stem(path))
}

// backupFileName returns .jsondb_backup_<stem>_<unix>.jsondb.
func backupFileName(dbStem string, unix int64) string {
	return backupFilePrefix + dbStem + "_" + strconv.FormatInt(unix, 10) + Extension
}

// parseBackupFileName extracts the timestamp from a backup file name of
// dbStem. ok is false for names that don't follow the pattern.
func parseBackupFileName(dbStem, name string) (int64, bool) {
	rest, ok := strings.CutPrefix(name, backupFilePrefix+dbStem+"_")
	if !ok {
		return 0, false
	}

	digits, ok := strings.CutSuffix(rest, Extension)
	if !ok || !isDecimal(digits) {
		return 0, false
	}

	ts, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}

	return ts, true
}

type backupFile struct {
	name string
	ts   int64
}

// rotateBackups writes raw to a new timestamped backup, then deletes the
// oldest valid backups until at most keep remain. Entries that don't parse
// as backups are left alone. A failed delete stops rotation; nothing is
// retried.
func rotateBackups(fsys fs.FS, path string, raw []byte, now time.Time, keep int) error {
	dbStem := stem(path)
	dir := BackupDir(path)

	err := fsys.MkdirAll(dir, dirPerm)
	if err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	target := filepath.Join(dir, backupFileName(dbStem, now.Unix()))

	err = fsys.WriteFile(target, raw, filePerm)
	if err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}

	var backups []backupFile

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		ts, ok := parseBackupFileName(dbStem, e.Name())
		if !ok {
			continue
		}

		backups = append(backups, backupFile{name: e.Name(), ts: ts})
	}

	if len(backups) <= keep {
		return nil
	}

	slices.SortFunc(backups, func(a, b backupFile) int {
		return cmp.Or(cmp.Compare(a.ts, b.ts), strings.Compare(a.name, b.name))
	})

	for _, b := range backups[:len(backups)-keep] {
		err := fsys.Remove(filepath.Join(dir, b.name))
		if err != nil {
			return fmt.Errorf("removing old backup %s: %w", b.name, err)
		}
	}

	return nil
}

func stem(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}
