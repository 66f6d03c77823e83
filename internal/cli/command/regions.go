package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/toptube-go/internal/cli/output"
)

// RegionsCommand returns the regions command.
func RegionsCommand() *cli.Command {
	return &cli.Command{
		Name:   "regions",
		Usage:  "List regions that have a latest snapshot",
		Action: listRegions,
	}
}

type regionsResponse struct {
	Regions []string `json:"regions"`
}

func listRegions(c *cli.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	client, err := newClient(c)
	if err != nil {
		return err
	}

	var resp regionsResponse
	if err := client.GetJSON(ctx, "/api/regions", nil, &resp); err != nil {
		return err
	}
	if resp.Regions == nil {
		resp.Regions = []string{}
	}

	if !isTable(c) {
		return render(c, resp)
	}

	table := &output.Table{}
	table.SetHeaders("REGION")
	for _, r := range resp.Regions {
		table.AddRow(r)
	}
	return render(c, table)
}
