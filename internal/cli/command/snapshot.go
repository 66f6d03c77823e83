package command

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/toptube-go/internal/core/domain"
)

// SnapshotCommand returns the snapshot subcommand group.
func SnapshotCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "Leaderboard snapshot commands",
		Subcommands: []*cli.Command{
			{
				Name:      "latest",
				Usage:     "Show the latest snapshot of a region",
				ArgsUsage: "REGION",
				Action:    snapshotLatest,
			},
			{
				Name:      "get",
				Usage:     "Show the snapshot of a region on a date",
				ArgsUsage: "REGION DATE",
				Action:    snapshotGet,
			},
			{
				Name:      "history",
				Usage:     "List the snapshot dates of a region, newest first",
				ArgsUsage: "REGION",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of entries (server default when 0)",
					},
				},
				Action: snapshotHistory,
			},
		},
	}
}

// itemRow is the table view of a ranked item.
type itemRow struct {
	Rank        int    `json:"rank"`
	Title       string `json:"title"`
	Channel     string `json:"channel" table:"wide"`
	Views       int64  `json:"view_count" table:"count"`
	Subscribers *int64 `json:"subscriber_count" table:"count"`
	URL         string `json:"url" table:"wide"`
}

func snapshotLatest(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	query := url.Values{"region": {c.Args().Get(0)}}
	return showSnapshot(c, "/api/snapshots/latest", query)
}

func snapshotGet(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	path := "/api/snapshots/" + url.PathEscape(c.Args().Get(0)) + "/" + url.PathEscape(c.Args().Get(1))
	return showSnapshot(c, path, nil)
}

func showSnapshot(c *cli.Context, path string, query url.Values) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	client, err := newClient(c)
	if err != nil {
		return err
	}

	var snap domain.Snapshot
	if err := client.GetJSON(ctx, path, query, &snap); err != nil {
		return err
	}

	if !isTable(c) {
		return render(c, snap)
	}

	fmt.Fprintf(c.App.Writer, "Region: %s  Date: %s  Items: %d\n\n", snap.Region, snap.Date, snap.Count)
	if len(snap.Items) == 0 {
		fmt.Fprintln(c.App.Writer, "(no items)")
		return nil
	}
	return render(c, itemRows(snap.Items))
}

func itemRows(items []domain.RankedItem) []itemRow {
	rows := make([]itemRow, len(items))
	for i, it := range items {
		rows[i] = itemRow{
			Rank:        it.Rank,
			Title:       it.Title,
			Channel:     it.ChannelTitle,
			Views:       it.ViewCount,
			Subscribers: it.SubscriberCount,
			URL:         it.VideoURL,
		}
	}
	return rows
}

type historyResponse struct {
	Region string                `json:"region"`
	List   []domain.HistoryEntry `json:"list"`
}

func snapshotHistory(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}

	query := url.Values{"region": {c.Args().Get(0)}}
	if limit := c.Int("limit"); limit != 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	client, err := newClient(c)
	if err != nil {
		return err
	}

	var resp historyResponse
	if err := client.GetJSON(ctx, "/api/snapshots", query, &resp); err != nil {
		return err
	}
	if resp.List == nil {
		resp.List = []domain.HistoryEntry{}
	}

	if !isTable(c) {
		return render(c, resp)
	}
	if len(resp.List) == 0 {
		fmt.Fprintf(c.App.Writer, "No snapshots for region %s\n", resp.Region)
		return nil
	}
	return render(c, resp.List)
}
