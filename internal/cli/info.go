package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/calvinalkan/jsondb/pkg/jsondb"

	flag "github.com/spf13/pflag"
)

var errInvalidSubject = errors.New("invalid subject")

var infoSubjects = []string{"tags", "size", "bytes", "path", "backups_enabled", "enforce_tags"}

// InfoCmd returns the info command.
func InfoCmd(a *app) *Command {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.StringP("subject", "s", "", "Show only one of: "+strings.Join(infoSubjects, ", "))

	return &Command{
		Flags: fs,
		Usage: "info <name> [-s subject]",
		Short: "Show information about a database",
		Long: `Show information about a database.

Subjects:
  tags              registered tags
  size              number of records
  bytes             size of the serialized database
  path              database file path
  backups_enabled   whether a backup is taken on every load
  enforce_tags      whether record tags are checked against the registered tags`,
		ExecDB: func(_ context.Context, io *IO, name string, _ []string) error {
			return execInfo(io, a, fs, name)
		},
	}
}

func execInfo(io *IO, a *app, fs *flag.FlagSet, name string) error {
	subject, _ := fs.GetString("subject")
	if fs.Changed("subject") && !slices.Contains(infoSubjects, subject) {
		return fmt.Errorf("%w %q (choose from %s)", errInvalidSubject, subject, strings.Join(infoSubjects, ", "))
	}

	return a.open(io, name, func(db *jsondb.DB) error {
		values, err := infoValues(db)
		if err != nil {
			return err
		}

		if subject != "" {
			io.Println(values[subject])

			return nil
		}

		io.Println("Tags: " + values["tags"])
		io.Println("Size: " + values["size"])
		io.Println("Bytes: " + values["bytes"])
		io.Println("Path: " + values["path"])
		io.Println("Backups enabled: " + values["backups_enabled"])
		io.Println("Tags enforced: " + values["enforce_tags"])

		return nil
	})
}

func infoValues(db *jsondb.DB) (map[string]string, error) {
	size, err := db.SizeBytes()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"tags":            strings.Join(db.Tags(), ", "),
		"size":            strconv.Itoa(db.Len()),
		"bytes":           strconv.Itoa(size),
		"path":            db.Path(),
		"backups_enabled": jsondb.BoolValue(db.BackupsEnabled()).String(),
		"enforce_tags":    jsondb.BoolValue(db.EnforceTags()).String(),
	}, nil
}
