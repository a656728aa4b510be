package cli

import (
	"context"
	"strconv"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and where it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execPrintConfig(io, a)
		},
	}
}

func execPrintConfig(io *IO, a *app) error {
	cfg := a.cfg

	io.Println("home_dir=" + cfg.HomeDir)
	io.Println("backup_keep_count=" + strconv.Itoa(cfg.BackupKeepCount))
	io.Println("suppress_warnings=" + strconv.FormatBool(cfg.SuppressWarnings))

	if cfg.Format != "" {
		io.Println("format=" + cfg.Format)
	}

	io.Println("")
	io.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Explicit == "" && len(cfg.Sources.Env) == 0 {
		io.Println("(defaults only)")

		return nil
	}

	if cfg.Sources.Global != "" {
		io.Println("global_config=" + cfg.Sources.Global)
	}

	if cfg.Sources.Explicit != "" {
		io.Println("config=" + cfg.Sources.Explicit)
	}

	for _, name := range cfg.Sources.Env {
		io.Println("env=" + name)
	}

	return nil
}
