package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/peterh/liner"

	"github.com/calvinalkan/jsondb/internal/fs"
	"github.com/calvinalkan/jsondb/pkg/jsondb"

	flag "github.com/spf13/pflag"
)

const historyFileName = ".jsondb_history"

// ShellCmd returns the shell command.
func ShellCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell <name>",
		Short: "Interactive prompt for one database",
		Long: `Start an interactive prompt for one database.

Commands are entered without 'jsondb' and without the database name, for
example: set "buy milk" -t todo. Arguments may be quoted. Enter 'help' for
the list of commands, 'exit' or 'quit' to leave.`,
		ExecDB: func(ctx context.Context, io *IO, name string, _ []string) error {
			return runShell(ctx, io, a, name)
		},
	}
}

// prompter reads one line of input per call.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

func runShell(ctx context.Context, o *IO, a *app, name string) error {
	_, err := a.locate(name)
	if err != nil {
		return err
	}

	p := a.newPrompter()

	defer func() {
		_ = p.Close()
	}()

	// Commands inside the shell never read the shell's own input.
	inner := *a
	inner.in = nil

	o.Println("jsondb", jsondb.Version, "shell")
	o.Println("Enter 'help' for the list of commands.")

	for {
		line, err := p.Prompt(fmt.Sprintf("(%s) $ ", name))
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			o.Println()

			return nil
		}

		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		p.AppendHistory(line)

		words, err := shlex.Split(line)
		if err != nil || len(words) == 0 {
			o.ErrPrintln("error: cannot parse line:", err)

			continue
		}

		cmds := shellCommands(&inner)

		switch cmdName := words[0]; cmdName {
		case "exit", "quit":
			return nil
		case "help":
			printShellHelp(o, cmds)
		default:
			cmd := findCommand(cmds, cmdName)
			if cmd == nil {
				o.Printf("Invalid command %s. Enter 'help' for more info.\n", cmdName)

				continue
			}

			o.Finish(cmd.RunOn(ctx, o, name, words[1:]))
		}
	}
}

// shellCommands returns fresh database commands except shell itself. The
// shell supplies their database name.
func shellCommands(a *app) []*Command {
	var out []*Command

	for _, c := range commands(a) {
		if c.OnDatabase() && c.Name() != "shell" {
			out = append(out, c)
		}
	}

	return out
}

func printShellHelp(o *IO, cmds []*Command) {
	o.Println("Commands run against the open database; leave out 'jsondb' and the name.")
	o.Println()
	o.Println("Commands:")

	for _, c := range cmds {
		o.Printf("  %-10s %s\n", c.Name(), c.Short)
	}

	o.Println("  help       Show this help")
	o.Println("  exit, quit Leave the shell")
	o.Println()
	o.Println("Example:")
	o.Println("  info -s size")
}

// newPrompter returns a line-editing prompter on an interactive stdin, and
// a plain line reader otherwise.
func (a *app) newPrompter() prompter {
	if f, ok := a.in.(*os.File); ok && f == os.Stdin {
		return newLinerPrompter(a.fs, filepath.Join(a.cfg.HomeDir, historyFileName))
	}

	in := a.in
	if in == nil {
		in = strings.NewReader("")
	}

	return &readerPrompter{r: bufio.NewReader(in), out: a.out}
}

type linerPrompter struct {
	state   *liner.State
	fs      fs.FS
	history string
}

func newLinerPrompter(fsys fs.FS, history string) *linerPrompter {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completeShell)

	if raw, err := fsys.ReadFile(history); err == nil {
		_, _ = state.ReadHistory(bytes.NewReader(raw))
	}

	return &linerPrompter{state: state, fs: fsys, history: history}
}

func (l *linerPrompter) Prompt(prompt string) (string, error) {
	return l.state.Prompt(prompt)
}

func (l *linerPrompter) AppendHistory(line string) {
	l.state.AppendHistory(line)
}

// Close saves the history and restores the terminal.
func (l *linerPrompter) Close() error {
	var buf bytes.Buffer

	_, writeErr := l.state.WriteHistory(&buf)
	if writeErr == nil {
		writeErr = l.fs.WriteFileAtomic(l.history, buf.Bytes(), 0o600)
	}

	return errors.Join(writeErr, l.state.Close())
}

func completeShell(line string) []string {
	var out []string

	words := []string{"help", "exit", "quit"}
	for _, c := range shellCommands(&app{}) {
		words = append(words, c.Name())
	}

	for _, c := range words {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}

	return out
}

type readerPrompter struct {
	r   *bufio.Reader
	out io.Writer
}

func (p *readerPrompter) Prompt(prompt string) (string, error) {
	_, _ = io.WriteString(p.out, prompt)

	line, err := p.r.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func (p *readerPrompter) AppendHistory(string) {}

func (p *readerPrompter) Close() error { return nil }
