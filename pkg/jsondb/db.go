package jsondb

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/calvinalkan/jsondb/internal/fs"
)

// Version is the document format/producer version written on every save.
const Version = "1.0.0"

// Extension is the file extension of database files.
const Extension = ".jsondb"

// DefaultBackupKeepCount is the retention count used when
// [Config.BackupKeepCount] is zero.
const DefaultBackupKeepCount = 50

// KeepNoBackups as [Config.BackupKeepCount] deletes every backup, including
// the one just taken, each time a database with backups enabled is loaded.
const KeepNoBackups = -1

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// Config holds the values a database takes from its environment.
type Config struct {
	// Dir is the directory [Create] uses when no directory is given.
	Dir string

	// BackupKeepCount caps the number of backups kept per database.
	// Zero means [DefaultBackupKeepCount]; negative values mean
	// [KeepNoBackups].
	BackupKeepCount int

	// Now is the clock used for backup timestamps. Default: time.Now.
	Now func() time.Time

	// Warn receives non-fatal warnings (for example a file written by a
	// newer version). Default: discard.
	Warn func(msg string)

	// FS is the filesystem. Default: fs.NewReal().
	FS fs.FS
}

func (c Config) withDefaults() Config {
	switch {
	case c.BackupKeepCount == 0:
		c.BackupKeepCount = DefaultBackupKeepCount
	case c.BackupKeepCount < 0:
		c.BackupKeepCount = 0
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	if c.Warn == nil {
		c.Warn = func(string) {}
	}

	if c.FS == nil {
		c.FS = fs.NewReal()
	}

	return c
}

// DB is an open database document held in memory. It is not safe for
// concurrent use.
type DB struct {
	path           string
	cfg            Config
	tags           TagSet
	enforceTags    bool
	backupsEnabled bool
	records        []Record
}

// Create creates a new, empty database at dir/name.jsondb and writes it to
// disk. An empty dir means cfg.Dir. The directory is created if needed.
//
// Returns an error wrapping [ErrAlreadyExists] if the file exists.
func Create(name, dir string, cfg Config) (*DB, error) {
	cfg = cfg.withDefaults()

	if name == "" {
		return nil, errors.New("database name is empty")
	}

	if dir == "" {
		dir = cfg.Dir
	}

	if dir == "" {
		return nil, errors.New("no directory given and Config.Dir is empty")
	}

	path := filepath.Join(dir, name+Extension)

	exists, err := cfg.FS.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	if exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}

	err = cfg.FS.MkdirAll(dir, dirPerm)
	if err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	db := &DB{path: path, cfg: cfg, tags: NewTagSet()}

	err = db.Save()
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Load reads the database at path.
//
// If the file was written by a newer version, a warning goes to cfg.Warn and
// the data is loaded as-is. If backups are enabled in the file, the raw
// content is backed up and old backups are rotated before Load returns.
//
// The caller owns saving; prefer [Open] which saves on every exit path.
func Load(path string, cfg Config) (*DB, error) {
	cfg = cfg.withDefaults()

	raw, err := cfg.FS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading database: %w", err)
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	newer, err := isNewerVersion(doc.Version, Version)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if newer {
		cfg.Warn(fmt.Sprintf(
			"the database at %s was last modified by jsondb version %s, which is newer than the running version (%s); consider upgrading",
			path, doc.Version, Version))
	}

	db := &DB{
		path:           path,
		cfg:            cfg,
		tags:           doc.Tags,
		enforceTags:    doc.EnforceTags,
		backupsEnabled: doc.BackupsEnabled,
		records:        doc.Data,
	}

	if db.backupsEnabled {
		err = rotateBackups(cfg.FS, path, raw, cfg.Now(), cfg.BackupKeepCount)
		if err != nil {
			return nil, fmt.Errorf("backup: %w", err)
		}
	}

	return db, nil
}

// Open loads the database at path, runs fn with it, and saves it back.
//
// The save runs exactly once whether fn returns nil, returns an error, or
// panics (the panic is re-raised after saving). The returned error joins fn's
// error with the save error.
func Open(path string, cfg Config, fn func(db *DB) error) (err error) {
	db, err := Load(path, cfg)
	if err != nil {
		return err
	}

	defer func() {
		saveErr := db.Save()

		if r := recover(); r != nil {
			panic(r)
		}

		err = errors.Join(err, saveErr)
	}()

	return fn(db)
}

// Save writes the document to its path atomically, stamped with [Version].
func (db *DB) Save() error {
	b, err := db.marshal()
	if err != nil {
		return err
	}

	err = db.cfg.FS.WriteFileAtomic(db.path, b, filePerm)
	if err != nil {
		return fmt.Errorf("writing database: %w", err)
	}

	return nil
}

// SizeBytes returns the byte length of the serialized document without
// writing it.
func (db *DB) SizeBytes() (int, error) {
	b, err := db.marshal()
	if err != nil {
		return 0, err
	}

	return len(b), nil
}

func (db *DB) marshal() ([]byte, error) {
	return encodeDocument(fileDocument{
		Tags:           db.tags,
		EnforceTags:    db.enforceTags,
		BackupsEnabled: db.backupsEnabled,
		Data:           db.records,
		Version:        Version,
	})
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// Len returns the number of records.
func (db *DB) Len() int { return len(db.records) }

// EnforceTags reports whether tags are checked against the vocabulary.
func (db *DB) EnforceTags() bool { return db.enforceTags }

// SetEnforceTags turns tag enforcement on or off. Existing records are not
// re-checked.
func (db *DB) SetEnforceTags(on bool) { db.enforceTags = on }

// BackupsEnabled reports whether a backup is taken each time the database
// is loaded.
func (db *DB) BackupsEnabled() bool { return db.backupsEnabled }

// SetBackupsEnabled turns backups on or off.
func (db *DB) SetBackupsEnabled(on bool) { db.backupsEnabled = on }

// isNewerVersion compares dot-separated numeric versions component-wise;
// a longer version with an equal prefix is newer.
func isNewerVersion(stored, running string) (bool, error) {
	s, err := parseVersion(stored)
	if err != nil {
		return false, err
	}

	r, err := parseVersion(running)
	if err != nil {
		return false, err
	}

	return slices.Compare(s, r) > 0, nil
}

func parseVersion(v string) ([]int, error) {
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))

	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: malformed version %q", ErrInvalidDocument, v)
		}

		out[i] = n
	}

	return out, nil
}
