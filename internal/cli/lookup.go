package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/calvinalkan/jsondb/pkg/jsondb"

	flag "github.com/spf13/pflag"
)

// IDCmd returns the id command.
func IDCmd(a *app) *Command {
	fs := flag.NewFlagSet("id", flag.ContinueOnError)
	fs.Bool("contains", false, "Match records whose data contains <data>")
	fs.BoolP("ignore-case", "i", false, "Compare case-insensitively")

	return &Command{
		Flags: fs,
		Usage: "id <name> <data> [--contains] [-i]",
		Short: "Print the id of the first record matching data",
		ExecDB: func(_ context.Context, io *IO, name string, rest []string) error {
			if len(rest) == 0 {
				return errDataRequired
			}

			contains, _ := fs.GetBool("contains")
			ignoreCase, _ := fs.GetBool("ignore-case")
			opts := jsondb.FindOptions{Contains: contains, CaseInsensitive: ignoreCase}

			return a.open(io, name, func(db *jsondb.DB) error {
				id, err := db.FindByData(rest[0], opts)
				if err != nil {
					return err
				}

				io.Println(id)

				return nil
			})
		},
	}
}

// QueryCmd returns the query command.
func QueryCmd(a *app) *Command {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.StringArrayP("filter", "f", nil, "Required tag (repeatable)")
	fs.BoolP("show", "s", false, "Render the matching records instead of listing ids")
	fs.String("format", "", "Line template for --show (default: config format or built-in)")

	return &Command{
		Flags: fs,
		Usage: "query <name> [-f tag]... [-s [--format template]]",
		Short: "List ids of records carrying all given tags",
		Long: `Print the ids of every record carrying all given tags, comma-separated.
Without tags every record matches. Nothing is printed when no record matches.

The output can be piped into format:
  jsondb query notes -f todo | jsondb format notes

With --show the matching records are rendered with their real ids instead.`,
		ExecDB: func(_ context.Context, io *IO, name string, _ []string) error {
			tags, _ := fs.GetStringArray("filter")
			show, _ := fs.GetBool("show")
			tmpl := a.template(fs)

			return a.open(io, name, func(db *jsondb.DB) error {
				ids := db.Query(tags...)

				if show {
					return printFormatted(io, db, ids, jsondb.FormatOptions{Template: tmpl, UseRealIDs: true})
				}

				if len(ids) > 0 {
					io.Println(joinIDs(ids))
				}

				return nil
			})
		},
	}
}

// FormatCmd returns the format command.
func FormatCmd(a *app) *Command {
	fs := flag.NewFlagSet("format", flag.ContinueOnError)
	fs.StringP("format", "f", "", "Line template (default: config format or built-in)")
	fs.Bool("use-real-ids", false, "Show database ids instead of positions (alias --real-ids)")
	fs.SetNormalizeFunc(func(_ *flag.FlagSet, name string) flag.NormalizedName {
		if name == "real-ids" {
			name = "use-real-ids"
		}

		return flag.NormalizedName(name)
	})

	return &Command{
		Flags: fs,
		Usage: "format <name> [id]... [-f template] [--use-real-ids]",
		Short: "Render records with a template",
		Long: `Render the given records, one line each. Ids may be given as arguments,
or piped in separated by commas or whitespace. With neither, every record is
rendered.

Template macros:
  %id(WIDTH,"FILL")      id, right-justified (FILL defaults to "0")
  %data(WIDTH,"FILL")    data, left-justified (FILL defaults to " ")
  %tags("SEP")           tags joined by SEP
  %attrs("SEP1","SEP2")  KEY SEP1 VALUE pairs joined by SEP2

WIDTH may be empty. %id shows the position in the output unless
--use-real-ids is set. Default template:
  ` + jsondb.DefaultTemplate,
		ExecDB: func(_ context.Context, io *IO, name string, rest []string) error {
			all := false

			if len(rest) == 0 {
				piped, ok, err := a.pipedIDs()
				if err != nil {
					return err
				}

				rest, all = piped, !ok
			}

			ids := make([]int, 0, len(rest))

			for _, s := range rest {
				id, err := jsondb.ParseIndex(s)
				if err != nil {
					return err
				}

				ids = append(ids, id)
			}

			realIDs, _ := fs.GetBool("use-real-ids")
			opts := jsondb.FormatOptions{Template: a.template(fs), UseRealIDs: realIDs}

			return a.open(io, name, func(db *jsondb.DB) error {
				if all {
					ids = db.Query()
				}

				return printFormatted(io, db, ids, opts)
			})
		},
	}
}

// pipedIDs reads ids from stdin. ok is false when stdin is absent or a
// terminal, so nothing was piped.
func (a *app) pipedIDs() ([]string, bool, error) {
	if a.in == nil {
		return nil, false, nil
	}

	if f, isFile := a.in.(*os.File); isFile {
		info, err := f.Stat()
		if err != nil || info.Mode()&os.ModeCharDevice != 0 {
			return nil, false, nil //nolint:nilerr // unreadable stdin counts as not piped
		}
	}

	raw, err := io.ReadAll(a.in)
	if err != nil {
		return nil, false, fmt.Errorf("reading ids from stdin: %w", err)
	}

	fields := strings.FieldsFunc(string(raw), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	return fields, true, nil
}

// template returns the --format flag value, or the configured default.
func (a *app) template(fs *flag.FlagSet) string {
	if fs.Changed("format") {
		tmpl, _ := fs.GetString("format")

		return tmpl
	}

	return a.cfg.Format
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}

	return strings.Join(parts, ",")
}

func printFormatted(io *IO, db *jsondb.DB, ids []int, opts jsondb.FormatOptions) error {
	if len(ids) == 0 {
		return nil
	}

	out, err := db.Format(ids, opts)
	if err != nil {
		return err
	}

	io.Println(out)

	return nil
}
