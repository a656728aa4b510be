package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/calvinalkan/jsondb/internal/config"
	"github.com/calvinalkan/jsondb/pkg/jsondb"

	flag "github.com/spf13/pflag"
)

var errMutuallyExclusive = errors.New("mutually exclusive")

// ModifyCmd returns the modify command.
func ModifyCmd(a *app) *Command {
	fs := flag.NewFlagSet("modify", flag.ContinueOnError)
	fs.StringArrayP("add-tag", "t", nil, "Register a tag (repeatable)")
	fs.StringArrayP("rm-tag", "r", nil, "Unregister a tag (repeatable)")
	fs.Bool("clear-tags", false, "Unregister all tags")
	fs.Bool("enforce-tags", false, "Reject records with unregistered tags")
	fs.Bool("no-enforce-tags", false, "Stop enforcing tags")
	fs.Bool("enable-backups", false, "Take a backup every time the database is opened")
	fs.Bool("disable-backups", false, "Stop taking backups")

	return &Command{
		Flags: fs,
		Usage: "modify <name> [flags]",
		Short: "Change registered tags and settings",
		Long: `Change the registered tags and settings of a database.

Changes apply in this order: --add-tag, --rm-tag, --clear-tags, then the
settings. Removing a registered tag does not touch records carrying it.`,
		ExecDB: func(_ context.Context, io *IO, name string, _ []string) error {
			return execModify(io, a, fs, name)
		},
	}
}

func execModify(io *IO, a *app, fs *flag.FlagSet, name string) error {
	addTags, _ := fs.GetStringArray("add-tag")
	rmTags, _ := fs.GetStringArray("rm-tag")
	clearTags, _ := fs.GetBool("clear-tags")
	enforce, _ := fs.GetBool("enforce-tags")
	noEnforce, _ := fs.GetBool("no-enforce-tags")
	enableBackups, _ := fs.GetBool("enable-backups")
	disableBackups, _ := fs.GetBool("disable-backups")

	if enforce && noEnforce {
		return fmt.Errorf("--enforce-tags and --no-enforce-tags are %w", errMutuallyExclusive)
	}

	if enableBackups && disableBackups {
		return fmt.Errorf("--enable-backups and --disable-backups are %w", errMutuallyExclusive)
	}

	if len(addTags) > 0 && clearTags {
		io.Warn(fmt.Sprintf("--add-tag will be overridden by --clear-tags (set %s to silence warnings)", config.EnvSuppressWarnings))
	}

	return a.open(io, name, func(db *jsondb.DB) error {
		db.AddTags(addTags...)
		db.RemoveTags(rmTags...)

		if clearTags {
			db.ClearTags()
		}

		switch {
		case enforce:
			db.SetEnforceTags(true)
		case noEnforce:
			db.SetEnforceTags(false)
		}

		switch {
		case enableBackups:
			db.SetBackupsEnabled(true)
		case disableBackups:
			db.SetBackupsEnabled(false)
		}

		return nil
	})
}
