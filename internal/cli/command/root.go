package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/toptube-go/internal/cli/config"
	"github.com/yndnr/toptube-go/internal/cli/connection"
	"github.com/yndnr/toptube-go/internal/cli/output"
	"github.com/yndnr/toptube-go/internal/infra/buildinfo"
	"github.com/yndnr/toptube-go/internal/infra/tlsroots"
)

// DefaultServer is the server address used when neither --server nor
// TOPTUBE_SERVER is set.
const DefaultServer = "http://127.0.0.1:8080"

// requestTimeout bounds each command's network calls.
const requestTimeout = 30 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "toptube-cli",
		Usage:   "Query and load toptube leaderboard snapshots",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			RegionsCommand(),
			SnapshotCommand(),
			SystemCommand(),
			StoreCommand(),
			ShellCommand(),
		},
		Before: applyConfig,
	}
}

// applyConfig fills global flags the user did not set from the CLI
// config file, then validates the output format.
func applyConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	defaults := map[string]string{
		"server":  cfg.Server,
		"output":  cfg.Output,
		"ca-file": cfg.CAFile,
	}
	if cfg.Wide {
		defaults["wide"] = "true"
	}
	for name, value := range defaults {
		if value == "" || c.IsSet(name) {
			continue
		}
		if err := c.Set(name, value); err != nil {
			return fmt.Errorf("apply config %s: %w", name, err)
		}
	}

	_, err = output.ParseFormat(c.String("output"))
	return err
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "toptube server address",
			EnvVars: []string{"TOPTUBE_SERVER"},
			Value:   DefaultServer,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file (default ~/.toptube/cli.yaml)",
			EnvVars: []string{"TOPTUBE_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM CA bundle trusted for https servers",
			EnvVars: []string{"TOPTUBE_CA_FILE"},
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server string
	Output output.Format
	Wide   bool
	CAFile string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		format = output.FormatTable
	}
	return &GlobalFlags{
		Server: c.String("server"),
		Output: format,
		Wide:   c.Bool("wide"),
		CAFile: c.String("ca-file"),
	}
}

// newClient returns an HTTP client for the --server address.
func newClient(c *cli.Context) (*connection.HTTPClient, error) {
	flags := ParseGlobalFlags(c)
	if flags.CAFile == "" {
		return connection.NewHTTPClient(flags.Server), nil
	}

	tlsConfig, err := tlsroots.ClientTLSConfig(flags.CAFile)
	if err != nil {
		return nil, fmt.Errorf("load ca file: %w", err)
	}
	return connection.NewHTTPClient(flags.Server, connection.WithTLSConfig(tlsConfig)), nil
}

func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, requestTimeout)
}

// render writes data to the app writer in the selected format.
func render(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	return output.NewFormatter(flags.Output, flags.Wide).Format(c.App.Writer, data)
}

// isTable reports whether table output is selected.
func isTable(c *cli.Context) bool {
	return ParseGlobalFlags(c).Output == output.FormatTable
}

// requireArgs fails unless exactly n positional arguments were given.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d (usage: %s %s)",
			c.Command.Name, n, c.NArg(), c.Command.HelpName, c.Command.ArgsUsage)
	}
	return nil
}
