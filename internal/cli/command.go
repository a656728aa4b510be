package cli

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one jsondb subcommand.
//
// Commands working on a registered database set ExecDB: the database name
// is taken from the first argument on the command line, or supplied by the
// shell through [Command.RunOn]. Every other command sets Exec.
type Command struct {
	// Flags are the command's own flags. Only the command's Usage names it.
	Flags *flag.FlagSet

	// Usage follows "jsondb" in help, e.g. "unset <name> <id>".
	Usage string

	// Short is the line shown in the command listings.
	Short string

	// Long is the help text body. Short is used when empty.
	Long string

	// Exec runs a command that does not work on an open database.
	Exec func(ctx context.Context, o *IO, args []string) error

	// ExecDB runs a command against the database registered as name.
	ExecDB func(ctx context.Context, o *IO, name string, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// OnDatabase reports whether the command works on a registered database,
// which is what makes it available in the shell.
func (c *Command) OnDatabase() bool { return c.ExecDB != nil }

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-34s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "jsondb <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: jsondb", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		var buf strings.Builder

		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()

		o.Println()
		o.Println("Flags:")
		o.Printf("%s", buf.String())
	}
}

// Run parses args and executes the command. Returns the exit code; errors
// are printed here so output ordering stays consistent.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	rest, code, ok := c.parse(o, args)
	if !ok {
		return code
	}

	if c.ExecDB == nil {
		return c.report(o, c.Exec(ctx, o, rest))
	}

	name, rest, err := nameArg(rest)
	if err != nil {
		return c.report(o, err)
	}

	return c.report(o, c.ExecDB(ctx, o, name, rest))
}

// RunOn executes a database command against name; args do not include
// the name.
func (c *Command) RunOn(ctx context.Context, o *IO, name string, args []string) int {
	rest, code, ok := c.parse(o, args)
	if !ok {
		return code
	}

	return c.report(o, c.ExecDB(ctx, o, name, rest))
}

// negativeInt matches ids like -1. pflag would read them as shorthand
// flags, and no command has a digit shorthand.
var negativeInt = regexp.MustCompile(`^-[0-9]+$`)

// positionalMark is prepended to negative ids while flags are parsed.
const positionalMark = "\x00"

func (c *Command) parse(o *IO, args []string) ([]string, int, bool) {
	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	err := c.Flags.Parse(c.markNegatives(args))
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)

			return nil, 0, false
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return nil, 1, false
	}

	rest := c.Flags.Args()
	for i, a := range rest {
		rest[i] = strings.TrimPrefix(a, positionalMark)
	}

	return rest, 0, true
}

// markNegatives hides negative integers from the flag parser, except where
// they are the value of the preceding flag, and everything after "--".
func (c *Command) markNegatives(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)

	for i, a := range out {
		if a == "--" {
			break
		}

		if negativeInt.MatchString(a) && (i == 0 || !c.takesValue(out[i-1])) {
			out[i] = positionalMark + a
		}
	}

	return out
}

// takesValue reports whether arg is a flag that consumes the next argument.
func (c *Command) takesValue(arg string) bool {
	var f *flag.Flag

	switch {
	case strings.HasPrefix(arg, "--"):
		if strings.Contains(arg, "=") {
			return false
		}

		f = c.Flags.Lookup(arg[2:])
	case len(arg) == 2 && arg[0] == '-':
		f = c.Flags.ShorthandLookup(arg[1:])
	}

	return f != nil && f.NoOptDefVal == ""
}

func (c *Command) report(o *IO, err error) int {
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return 0
}
