package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/toptube-go/internal/cli/output"
	"github.com/yndnr/toptube-go/internal/core/domain"
	"github.com/yndnr/toptube-go/internal/core/service"
	"github.com/yndnr/toptube-go/internal/storage"
	"github.com/yndnr/toptube-go/internal/telemetry/logger"
)

// StoreCommand returns the store subcommand group. Its commands work on
// a data directory directly and never contact a server.
func StoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Offline data directory commands",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import snapshots and latest pointers from JSON files",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data-dir",
						Aliases:  []string{"d"},
						Usage:    "Badger data directory",
						EnvVars:  []string{"TOPTUBE_STORAGE_DATA_DIR"},
						Required: true,
					},
					&cli.StringFlag{
						Name:  "snapshots-collection",
						Usage: "Collection holding snapshot documents",
						Value: service.DefaultSnapshotsCollection,
					},
					&cli.StringFlag{
						Name:  "latest-collection",
						Usage: "Collection holding latest pointers",
						Value: service.DefaultLatestCollection,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Validate the files without writing",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Log storage engine activity",
					},
				},
				Action: storeImport,
			},
		},
	}
}

// importFile is the layout of an import file. Documents are kept raw so
// fields the server does not model survive the import.
type importFile struct {
	Snapshots []json.RawMessage `json:"snapshots"`
	Latest    []json.RawMessage `json:"latest"`
}

// importDoc is one document bound for a collection.
type importDoc struct {
	collection string
	id         string
	data       []byte
}

type importResult struct {
	DataDir   string `json:"data_dir"`
	Files     int    `json:"files"`
	Snapshots int    `json:"snapshots" table:"count"`
	Pointers  int    `json:"pointers" table:"count"`
	DryRun    bool   `json:"dry_run"`
}

func storeImport(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("import: at least one FILE is required")
	}

	colls := service.Collections{
		Snapshots: c.String("snapshots-collection"),
		Latest:    c.String("latest-collection"),
	}

	var snapshots, pointers []importDoc
	for _, path := range c.Args().Slice() {
		s, p, err := readImportFile(path, colls)
		if err != nil {
			return err
		}
		snapshots = append(snapshots, s...)
		pointers = append(pointers, p...)
	}

	result := importResult{
		DataDir:   c.String("data-dir"),
		Files:     c.NArg(),
		Snapshots: len(snapshots),
		Pointers:  len(pointers),
		DryRun:    c.Bool("dry-run"),
	}

	if !result.DryRun {
		level := "warn"
		if c.Bool("verbose") {
			level = "info"
		}
		log, err := logger.New(logger.Config{Level: level, Format: "text", Output: c.App.ErrWriter})
		if err != nil {
			return err
		}

		// Pointers go last so a reader never sees a pointer to a
		// snapshot that is not stored yet.
		docs := make([]importDoc, 0, len(snapshots)+len(pointers))
		docs = append(docs, snapshots...)
		docs = append(docs, pointers...)
		if err := writeDocuments(c.Context, result.DataDir, docs, log, c.App.ErrWriter); err != nil {
			return err
		}
	}

	return render(c, result)
}

// readImportFile parses one file and derives document ids: snapshots are
// keyed REGION_DATE, pointers by REGION.
func readImportFile(path string, colls service.Collections) (snapshots, pointers []importDoc, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	var f importFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, raw := range f.Snapshots {
		region, date, err := regionAndDate(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: snapshots[%d]: %w", path, i, err)
		}
		if date == "" {
			return nil, nil, fmt.Errorf("%s: snapshots[%d]: date is required", path, i)
		}
		region = domain.NormalizeRegion(region)
		if raw, err = withRegion(raw, region); err != nil {
			return nil, nil, fmt.Errorf("%s: snapshots[%d]: %w", path, i, err)
		}
		id := domain.CompositeID(region, date)
		snapshots = append(snapshots, importDoc{collection: colls.Snapshots, id: id, data: raw})
	}

	for i, raw := range f.Latest {
		region, date, err := regionAndDate(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: latest[%d]: %w", path, i, err)
		}
		if date == "" {
			return nil, nil, fmt.Errorf("%s: latest[%d]: date is required", path, i)
		}
		region = domain.NormalizeRegion(region)
		if raw, err = withRegion(raw, region); err != nil {
			return nil, nil, fmt.Errorf("%s: latest[%d]: %w", path, i, err)
		}
		pointers = append(pointers, importDoc{collection: colls.Latest, id: region, data: raw})
	}

	return snapshots, pointers, nil
}

// withRegion rewrites the body's region field to region. History
// queries match that field exactly, so it must agree with the id.
func withRegion(raw json.RawMessage, region string) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("not a document: %w", err)
	}

	current, _ := json.Marshal(region)
	if string(fields["region"]) == string(current) {
		return raw, nil
	}
	fields["region"] = current
	return json.Marshal(fields)
}

func regionAndDate(raw json.RawMessage) (region, date string, err error) {
	var fields struct {
		Region string `json:"region"`
		Date   string `json:"date"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", "", fmt.Errorf("not a document: %w", err)
	}
	if fields.Region == "" {
		return "", "", fmt.Errorf("region is required")
	}
	return fields.Region, fields.Date, nil
}

// writeDocuments stores docs in order into the Badger directory dir.
func writeDocuments(ctx context.Context, dir string, docs []importDoc, log logger.Logger, progress io.Writer) (err error) {
	cfg := storage.DefaultKVConfig(dir)
	cfg.Badger.GCInterval = 0
	cfg.Badger.SyncWrites = true

	engine, err := storage.NewBadgerEngine(cfg, log.Slog())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	store := storage.NewDocumentStore(engine)
	bar := output.NewProgressBar(progress, "Importing", "documents")
	bar.SetTotal(int64(len(docs)))

	for _, d := range docs {
		if err = store.Put(ctx, d.collection, d.id, d.data); err != nil {
			return err
		}
		bar.Increment(1)
	}
	bar.Finish()
	return nil
}
