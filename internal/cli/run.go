// Package cli implements the jsondb command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/jsondb/internal/config"
	"github.com/calvinalkan/jsondb/internal/fs"
	"github.com/calvinalkan/jsondb/internal/registry"
	"github.com/calvinalkan/jsondb/pkg/jsondb"

	flag "github.com/spf13/pflag"
)

var (
	errNameRequired    = errors.New("database name is required")
	errDatabaseMissing = errors.New("database file does not exist")
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfg     config.Config
	workDir string
	fs      fs.FS
	reg     *registry.Registry
	in      io.Reader
	out     io.Writer
}

// commands returns a fresh set of top-level commands. Flag sets keep state
// across Parse calls, so every invocation gets new ones.
func commands(a *app) []*Command {
	return []*Command{
		InitCmd(a),
		InfoCmd(a),
		ModifyCmd(a),
		AddDBCmd(a),
		RmDBCmd(a),
		DBsCmd(a),
		SetCmd(a),
		UnsetCmd(a),
		EditCmd(a),
		IDCmd(a),
		QueryCmd(a),
		FormatCmd(a),
		ShellCmd(a),
		PrintConfigCmd(a),
	}
}

func findCommand(cmds []*Command, name string) *Command {
	for _, c := range cmds {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// Run is the main entry point. Returns exit code.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	o := NewIO(out, errOut)

	globals := flag.NewFlagSet("jsondb", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})

	workDir := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globals.StringP("config", "c", "", "Use the given config `file`")
	home := globals.String("home", "", "Home `dir` holding the registry (overrides config)")
	help := globals.BoolP("help", "h", false, "Show help")
	version := globals.BoolP("version", "v", false, "Show version")

	if len(args) < 2 {
		printUsage(out, globals)

		return 0
	}

	err := globals.Parse(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, globals)

		return 1
	}

	if *help {
		printUsage(out, globals)

		return 0
	}

	if *version {
		fprintln(out, "jsondb", jsondb.Version)

		return 0
	}

	rest := globals.Args()
	if len(rest) == 0 {
		printUsage(out, globals)

		return 0
	}

	input := config.LoadInput{WorkDir: *workDir, ConfigPath: *configPath, Env: env}
	if globals.Changed("home") {
		input.HomeOverride = home
	}

	cfg, err := config.Load(input)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	o.SuppressWarnings(cfg.SuppressWarnings)

	fsys := fs.NewReal()
	a := &app{cfg: cfg, workDir: *workDir, fs: fsys, reg: registry.Open(cfg.HomeDir, fsys), in: in, out: out}

	cmd := findCommand(commands(a), rest[0])
	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		fprintln(errOut)
		printUsage(errOut, globals)

		return 1
	}

	return o.Finish(cmd.Run(context.Background(), o, rest[1:]))
}

// dbConfig returns the store configuration for this invocation, with
// warnings routed to o.
func (a *app) dbConfig(o *IO) jsondb.Config {
	keep := a.cfg.BackupKeepCount
	if keep == 0 {
		keep = jsondb.KeepNoBackups
	}

	return jsondb.Config{
		Dir:             a.cfg.HomeDir,
		BackupKeepCount: keep,
		Warn:            o.Warn,
		FS:              a.fs,
	}
}

// locate returns the path registered under name and checks the file is
// still there.
func (a *app) locate(name string) (string, error) {
	path, err := a.reg.Find(name)
	if err != nil {
		return "", err
	}

	exists, err := a.fs.Exists(path)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}

	if !exists {
		return "", fmt.Errorf("%w: the registered database %q at %s", errDatabaseMissing, name, path)
	}

	return path, nil
}

// open runs fn inside [jsondb.Open] on the database registered as name.
func (a *app) open(o *IO, name string, fn func(db *jsondb.DB) error) error {
	path, err := a.locate(name)
	if err != nil {
		return err
	}

	return jsondb.Open(path, a.dbConfig(o), fn)
}

// abs resolves path against the --cwd directory, or the process working
// directory when --cwd is not set.
func (a *app) abs(path string) (string, error) {
	if filepath.IsAbs(path) || a.workDir == "" {
		return filepath.Abs(path)
	}

	return filepath.Abs(filepath.Join(a.workDir, path))
}

// nameArg splits the leading database name off args.
func nameArg(args []string) (string, []string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", nil, errNameRequired
	}

	return args[0], args[1:], nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globals *flag.FlagSet) {
	fprintln(w, `jsondb - small tagged record databases

Usage: jsondb [global flags] <command> [args]

Global flags:`)
	fprintln(w, strings.TrimRight(globals.FlagUsages(), "\n"))
	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range commands(&app{}) {
		fprintln(w, c.HelpLine())
	}

	fprintln(w)
	fprintln(w, `Environment:
  JSONDB_HOME                 Home directory (default $HOME/Documents/jsondb)
  JSONDB_BACKUP_KEEP_COUNT    Backups kept per database (default 50)
  JSONDB_SUPPRESS_WARNINGS    Suppress all warnings when non-empty

Run 'jsondb <command> --help' for details on a command.`)
}
