package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"
)

var errPathRequired = errors.New("database path is required")

// AddDBCmd returns the add-db command.
func AddDBCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("add-db", flag.ContinueOnError),
		Usage: "add-db <path>",
		Short: "Register an existing database file",
		Long: `Register an existing .jsondb file so it can be used by name.

The name is the file name without extension and must be unique.`,
		Exec: func(_ context.Context, _ *IO, args []string) error {
			if len(args) == 0 || args[0] == "" {
				return errPathRequired
			}

			path, err := a.abs(args[0])
			if err != nil {
				return err
			}

			return a.reg.Add(path)
		},
	}
}

// RmDBCmd returns the rm-db command.
func RmDBCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("rm-db", flag.ContinueOnError),
		Usage: "rm-db <name>",
		Short: "Unregister a database",
		Long:  "Unregister a database. The database file is not deleted.",
		Exec: func(_ context.Context, _ *IO, args []string) error {
			name, _, err := nameArg(args)
			if err != nil {
				return err
			}

			return a.reg.Remove(name)
		},
	}
}

// DBsCmd returns the dbs command.
func DBsCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("dbs", flag.ContinueOnError),
		Usage: "dbs",
		Short: "List registered databases, one path per line",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			paths, err := a.reg.List()
			if err != nil {
				return err
			}

			for _, p := range paths {
				io.Println(p)
			}

			return nil
		},
	}
}
