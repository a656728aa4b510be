package cli_test

import (
	"strings"
	"testing"

	"github.com/calvinalkan/jsondb/internal/cli"
	"github.com/calvinalkan/jsondb/pkg/jsondb"
)

func Test_Shell_Runs_Commands_When_Invoked(t *testing.T) {
	t.Parallel()

	c := newNotes(t)

	input := strings.Join([]string{
		`set "call mom" -t phone -a "note:after 6pm"`,
		`format 2 -f '%data()|%attrs("=",",")'`,
		"",
		"id mom --contains",
		"exit",
		"set never-reached",
	}, "\n")

	stdout, stderr, code := c.RunWithInput(input, "shell", "notes")
	if code != 0 {
		t.Fatalf("exitCode=%d, stderr=%s", code, stderr)
	}

	if stderr != "" {
		t.Errorf("stderr=%q, want empty", stderr)
	}

	cli.AssertContains(t, stdout, "jsondb "+jsondb.Version+" shell")
	cli.AssertContains(t, stdout, "(notes) $ 2\n")
	cli.AssertContains(t, stdout, "call mom|note=after 6pm")
	cli.AssertContains(t, stdout, "(notes) $ (notes) $ 2\n")

	if got, want := c.LoadDB("notes").Len(), 3; got != want {
		t.Errorf("len=%d, want=%d", got, want)
	}
}

func Test_Shell_Keeps_Going_After_Errors_When_Invoked(t *testing.T) {
	t.Parallel()

	c := newNotes(t)

	input := "unset 9\nbogus\nset 'unterminated\nmodify --enforce-tags --no-enforce-tags\nquit\n"

	stdout, stderr, code := c.RunWithInput(input, "shell", "notes")
	if code != 0 {
		t.Fatalf("exitCode=%d, stderr=%s", code, stderr)
	}

	cli.AssertContains(t, stderr, "error: index does not exist: 9")
	cli.AssertContains(t, stdout, "Invalid command bogus. Enter 'help' for more info.")
	cli.AssertContains(t, stderr, "error: cannot parse line:")
	cli.AssertContains(t, stderr, "mutually exclusive")
}

func Test_Shell_Help_When_Invoked(t *testing.T) {
	t.Parallel()

	c := newNotes(t)

	stdout, _, code := c.RunWithInput("help\n", "shell", "notes")
	if code != 0 {
		t.Fatalf("exitCode=%d", code)
	}

	cli.AssertContains(t, stdout, "info       Show information about a database")
	cli.AssertContains(t, stdout, "exit, quit Leave the shell")
	cli.AssertNotContains(t, stdout, "init")
	cli.AssertNotContains(t, stdout, "print-config")
}

func Test_Shell_Only_Offers_Database_Commands_When_Invoked(t *testing.T) {
	t.Parallel()

	c := newNotes(t)

	stdout, _, code := c.RunWithInput("init other\ndbs\n", "shell", "notes")
	if code != 0 {
		t.Fatalf("exitCode=%d", code)
	}

	cli.AssertContains(t, stdout, "Invalid command init.")
	cli.AssertContains(t, stdout, "Invalid command dbs.")
}

func Test_Shell_Ends_On_EOF_When_Invoked(t *testing.T) {
	t.Parallel()

	c := newNotes(t)

	stdout, stderr, code := c.RunWithInput("info -s size", "shell", "notes")
	if code != 0 {
		t.Fatalf("exitCode=%d, stderr=%s", code, stderr)
	}

	cli.AssertContains(t, stdout, "(notes) $ 2\n(notes) $ \n")
}

func Test_Shell_Warnings_Printed_Per_Command_When_Invoked(t *testing.T) {
	t.Parallel()

	c := newNotes(t)

	_, stderr, code := c.RunWithInput("modify -t x --clear-tags\nexit\n", "shell", "notes")
	if code != 0 {
		t.Fatalf("exitCode=%d, stderr=%s", code, stderr)
	}

	if got := strings.Count(stderr, "warning:"); got != 1 {
		t.Errorf("warnings=%d, want=1\nstderr:\n%s", got, stderr)
	}
}

func Test_Shell_Unregistered_Database_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("shell", "ghost")
	cli.AssertContains(t, stderr, `database "ghost" is not registered`)
}
