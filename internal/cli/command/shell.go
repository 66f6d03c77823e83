package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/toptube-go/internal/cli/config"
	"github.com/yndnr/toptube-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Start an interactive shell",
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	history := repl.NewHistory(cfg.Shell.HistoryFile, cfg.Shell.HistorySize)
	if err := history.Load(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: load history: %v\n", err)
	}

	shell := repl.New(shellExecutor(c),
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithCompleter(repl.NewCompleter(commandPaths(App().Commands))),
		repl.WithHistory(history),
	)
	runErr := shell.Run(c.Context)

	if err := history.Save(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: save history: %v\n", err)
	}
	return runErr
}

// shellExecutor runs each shell line as a fresh CLI invocation carrying
// the global flags the shell was started with.
func shellExecutor(parent *cli.Context) repl.Executor {
	flags := ParseGlobalFlags(parent)
	base := []string{parent.App.Name,
		"--server", flags.Server,
		"--output", string(flags.Output),
	}
	if flags.Wide {
		base = append(base, "--wide")
	}
	if flags.CAFile != "" {
		base = append(base, "--ca-file", flags.CAFile)
	}
	if cfgPath := parent.String("config"); cfgPath != "" {
		base = append(base, "--config", cfgPath)
	}

	return func(ctx context.Context, args []string) error {
		if args[0] == "shell" {
			return errors.New("already in shell")
		}

		app := App()
		app.Reader = parent.App.Reader
		app.Writer = parent.App.Writer
		app.ErrWriter = parent.App.ErrWriter

		argv := append(append([]string(nil), base...), args...)
		return app.RunContext(ctx, argv)
	}
}

// commandPaths lists runnable command paths such as "snapshot latest".
func commandPaths(cmds []*cli.Command) []string {
	var paths []string
	for _, cmd := range cmds {
		if cmd.Name == "shell" {
			continue
		}
		if len(cmd.Subcommands) == 0 {
			paths = append(paths, cmd.Name)
			continue
		}
		for _, sub := range cmd.Subcommands {
			paths = append(paths, cmd.Name+" "+sub.Name)
		}
	}
	return paths
}
