package cli_test

import (
	"bytes"
	"testing"

	"github.com/calvinalkan/jsondb/internal/cli"
	"github.com/calvinalkan/jsondb/pkg/jsondb"
)

func Test_Invalid_Global_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("--invalid-flag", "dbs")

	if got, want := exitCode, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stdout, ""; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stderr, "unknown flag")
	cli.AssertContains(t, stderr, "--invalid-flag")

	// Should show valid global options
	cli.AssertContains(t, stderr, "Global flags:")
	cli.AssertContains(t, stderr, "--help")
	cli.AssertContains(t, stderr, "--cwd")
	cli.AssertContains(t, stderr, "--config")
	cli.AssertContains(t, stderr, "--home")
}

func Test_Bare_Command_When_Invoked(t *testing.T) {
	t.Parallel()

	// Call Run directly without test helper (which adds --cwd)
	var stdout, stderr bytes.Buffer

	exitCode := cli.Run(nil, &stdout, &stderr, []string{"jsondb"}, nil)

	if got, want := exitCode, 0; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stderr.String(), ""; got != want {
		t.Errorf("stderr=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stdout.String(), "jsondb - small tagged record databases")
	cli.AssertContains(t, stdout.String(), "init <name> [-p dir]")
	cli.AssertContains(t, stdout.String(), "JSONDB_BACKUP_KEEP_COUNT")
}

func Test_Version_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	if got, want := c.MustRun("--version"), "jsondb "+jsondb.Version; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Unknown_Command_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("browse", "notes")
	cli.AssertContains(t, stderr, "unknown command: browse")
}

func Test_Command_Help_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("format", "--help")

	cli.AssertContains(t, stdout, "Usage: jsondb format <name>")
	cli.AssertContains(t, stdout, "%attrs(")
	cli.AssertContains(t, stdout, "--use-real-ids")
	cli.AssertContains(t, stdout, "alias --real-ids")
}

func Test_Command_Bad_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("set", "notes", "x", "--nope")

	if got, want := exitCode, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "error: unknown flag: --nope")
	cli.AssertContains(t, stdout, "Usage: jsondb set")
}

func Test_Missing_Name_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	for _, cmd := range []string{"init", "info", "modify", "set", "unset", "edit", "id", "query", "format", "shell", "rm-db"} {
		stderr := c.MustFail(cmd)
		cli.AssertContains(t, stderr, "database name is required")
	}
}

func Test_Unregistered_Name_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("info", "ghost")
	cli.AssertContains(t, stderr, `database "ghost" is not registered`)
}
