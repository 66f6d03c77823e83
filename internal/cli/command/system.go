package command

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/toptube-go/internal/cli/connection"
	"github.com/yndnr/toptube-go/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server status commands",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server health and readiness",
				Action: systemHealth,
			},
			{
				Name:   "version",
				Usage:  "Show client and server versions",
				Action: systemVersion,
			},
		},
	}
}

type apiHealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Time    string `json:"time"`
	Version string `json:"version"`
}

type healthView struct {
	Server  string `json:"server"`
	Service string `json:"service"`
	Version string `json:"version"`
	Time    string `json:"time"`
	Ready   bool   `json:"ready"`
	Reason  string `json:"reason,omitempty"`
}

func systemHealth(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var health apiHealthResponse
	if err := client.GetJSON(ctx, "/api/health", nil, &health); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	view := healthView{
		Server:  client.BaseURL(),
		Service: health.Service,
		Version: health.Version,
		Time:    health.Time,
		Ready:   true,
	}

	err = client.GetJSON(ctx, "/ready", nil, nil)
	var apiErr *connection.APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable:
		view.Ready = false
		view.Reason = apiErr.Reason()
	default:
		return fmt.Errorf("readiness check failed: %w", err)
	}

	if err := render(c, view); err != nil {
		return err
	}
	if !view.Ready {
		return fmt.Errorf("server %s is not ready", view.Server)
	}
	return nil
}

type versionView struct {
	Client        buildinfo.Info `json:"client"`
	ServerVersion string         `json:"server_version"`
}

func systemVersion(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	view := versionView{Client: buildinfo.Get(), ServerVersion: "unreachable"}

	client, err := newClient(c)
	if err != nil {
		return err
	}

	var health apiHealthResponse
	if err := client.GetJSON(ctx, "/api/health", nil, &health); err == nil {
		view.ServerVersion = health.Version
	}

	if !isTable(c) {
		return render(c, view)
	}

	fmt.Fprintf(c.App.Writer, "Client: %s\n", buildinfo.String())
	fmt.Fprintf(c.App.Writer, "Server: %s\n", view.ServerVersion)
	return nil
}
