package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/calvinalkan/jsondb/internal/registry"
	"github.com/calvinalkan/jsondb/pkg/jsondb"

	flag "github.com/spf13/pflag"
)

// InitCmd returns the init command.
func InitCmd(a *app) *Command {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.StringP("path", "p", "", "Directory to create the database in (default: home directory)")

	return &Command{
		Flags: fs,
		Usage: "init <name> [-p dir]",
		Short: "Create and register a new database",
		Long: `Create a new, empty database <name>.jsondb and register it by name.

The database is created in the home directory unless --path is given.
Prints the path of the new database.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execInit(io, a, fs, args)
		},
	}
}

func execInit(io *IO, a *app, fs *flag.FlagSet, args []string) error {
	name, _, err := nameArg(args)
	if err != nil {
		return err
	}

	dir, _ := fs.GetString("path")
	if dir != "" {
		dir, err = a.abs(dir)
		if err != nil {
			return fmt.Errorf("resolving --path: %w", err)
		}
	}

	db, err := jsondb.Create(name, dir, a.dbConfig(io))
	if err != nil {
		return err
	}

	err = a.reg.Add(db.Path())
	if errors.Is(err, registry.ErrAlreadyRegistered) {
		return fmt.Errorf("%w; %s was created but not registered", err, db.Path())
	}

	if err != nil {
		return err
	}

	io.Println(db.Path())

	return nil
}
