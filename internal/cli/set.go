package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/calvinalkan/jsondb/pkg/jsondb"

	flag "github.com/spf13/pflag"
)

var (
	errDataRequired     = errors.New("data is required")
	errIDRequired       = errors.New("record id is required")
	errInvalidAttr      = errors.New("invalid --attr")
	errUnregisteredTags = errors.New("the following tags weren't registered")
)

// SetCmd returns the set command.
func SetCmd(a *app) *Command {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.StringArrayP("tag", "t", nil, "Tag the record (repeatable)")
	fs.StringArrayP("attr", "a", nil, "Attribute as KEY:VALUE (repeatable)")

	return &Command{
		Flags: fs,
		Usage: "set <name> <data> [-t tag]... [-a KEY:VALUE]...",
		Short: "Add a record, prints its id",
		Long: `Add a record and print its id.

Attribute values are typed from their text: digits become integers, other
numbers become floats, true/false become booleans, anything else is a string.`,
		ExecDB: func(_ context.Context, io *IO, name string, args []string) error {
			return execSet(io, a, fs, name, args)
		},
	}
}

func execSet(io *IO, a *app, fs *flag.FlagSet, name string, rest []string) error {
	if len(rest) == 0 {
		return errDataRequired
	}

	tags, _ := fs.GetStringArray("tag")
	rawAttrs, _ := fs.GetStringArray("attr")

	attrs, err := parseAttrs(rawAttrs)
	if err != nil {
		return err
	}

	return a.open(io, name, func(db *jsondb.DB) error {
		id, err := db.Insert(rest[0], tags, attrs)
		if errors.Is(err, jsondb.ErrInvalidTag) {
			return fmt.Errorf("%w: %s", errUnregisteredTags, strings.Join(unregistered(db, tags), ", "))
		}

		if err != nil {
			return err
		}

		io.Println(id)

		return nil
	})
}

// parseAttrs turns KEY:VALUE entries into Attrs, splitting on the first
// colon. Later duplicates replace earlier values.
func parseAttrs(entries []string) (jsondb.Attrs, error) {
	var attrs jsondb.Attrs

	for _, e := range entries {
		key, value, ok := strings.Cut(e, ":")
		if !ok || key == "" {
			return jsondb.Attrs{}, fmt.Errorf("%w %q (should be of format KEY:VALUE)", errInvalidAttr, e)
		}

		attrs.Set(key, jsondb.ParseValue(value))
	}

	return attrs, nil
}

// unregistered returns the sorted, de-duplicated tags missing from the
// vocabulary of db.
func unregistered(db *jsondb.DB, tags []string) []string {
	known := jsondb.NewTagSet(db.Tags()...)

	var out []string

	for _, t := range tags {
		if !known.Has(t) && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}

	slices.Sort(out)

	return out
}

// UnsetCmd returns the unset command.
func UnsetCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("unset", flag.ContinueOnError),
		Usage: "unset <name> <id>",
		Short: "Remove a record",
		Long:  "Remove a record. Records after it move down by one id.",
		ExecDB: func(_ context.Context, io *IO, name string, rest []string) error {
			if len(rest) == 0 {
				return errIDRequired
			}

			id, err := jsondb.ParseIndex(rest[0])
			if err != nil {
				return err
			}

			return a.open(io, name, func(db *jsondb.DB) error {
				return db.Remove(id)
			})
		},
	}
}

// EditCmd returns the edit command.
func EditCmd(a *app) *Command {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.StringP("data", "d", "", "Replace the data")
	fs.StringArrayP("tag", "t", nil, "Replace the tags (repeatable)")
	fs.StringArrayP("attr", "a", nil, "Replace the attributes, KEY:VALUE (repeatable)")

	return &Command{
		Flags: fs,
		Usage: "edit <name> <id> [-d data] [-t tag]... [-a KEY:VALUE]...",
		Short: "Replace fields of a record",
		Long: `Replace fields of a record. Fields not given are kept.

Empty values are treated as not given, so edit cannot clear a field. When
tags are enforced, tags that are not registered are dropped from the
record.`,
		ExecDB: func(_ context.Context, io *IO, name string, args []string) error {
			return execEdit(io, a, fs, name, args)
		},
	}
}

func execEdit(io *IO, a *app, fs *flag.FlagSet, name string, rest []string) error {
	if len(rest) == 0 {
		return errIDRequired
	}

	id, err := jsondb.ParseIndex(rest[0])
	if err != nil {
		return err
	}

	var patch jsondb.Patch

	if fs.Changed("data") {
		data, _ := fs.GetString("data")
		patch.Data = jsondb.Some(data)
	}

	if fs.Changed("tag") {
		tags, _ := fs.GetStringArray("tag")
		patch.Tags = jsondb.Some(tags)
	}

	if fs.Changed("attr") {
		rawAttrs, _ := fs.GetStringArray("attr")

		attrs, err := parseAttrs(rawAttrs)
		if err != nil {
			return err
		}

		patch.Attrs = jsondb.Some(attrs)
	}

	return a.open(io, name, func(db *jsondb.DB) error {
		return db.Edit(id, patch)
	})
}
