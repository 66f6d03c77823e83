package command

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/toptube-go/internal/core/service"
	"github.com/yndnr/toptube-go/internal/server/httpserver"
	"github.com/yndnr/toptube-go/internal/server/httpserver/handler"
	"github.com/yndnr/toptube-go/internal/storage"
	"github.com/yndnr/toptube-go/internal/storage/memory"
)

const (
	usSnapshot = `{"region":"US","date":"2024-06-01","items":[` +
		`{"title":"Big Video","channel_title":"Big Channel","view_count":1234567,"video_url":"https://youtu.be/big","rank":1,"subscriber_count":98000},` +
		`{"title":"Small Video","channel_title":"Small Channel","view_count":42,"video_url":"https://youtu.be/small","rank":2}]}`
	usOlderSnapshot = `{"region":"US","date":"2024-05-31","items":[]}`
	gbSnapshot      = `{"region":"GB","date":"2024-06-01","items":[]}`
)

// newTestServer starts the real API router over an in-memory store seeded
// with US and GB data.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	kv := memory.New()
	t.Cleanup(func() { kv.Close() })
	docs := storage.NewDocumentStore(kv)

	ctx := context.Background()
	seed := []struct{ coll, id, body string }{
		{service.DefaultSnapshotsCollection, "US_2024-06-01", usSnapshot},
		{service.DefaultSnapshotsCollection, "US_2024-05-31", usOlderSnapshot},
		{service.DefaultSnapshotsCollection, "GB_2024-06-01", gbSnapshot},
		{service.DefaultLatestCollection, "US", `{"region":"US","date":"2024-06-01"}`},
		{service.DefaultLatestCollection, "GB", `{"region":"GB","date":"2024-06-01"}`},
	}
	for _, s := range seed {
		if err := docs.Put(ctx, s.coll, s.id, []byte(s.body)); err != nil {
			t.Fatalf("seed %s/%s: %v", s.coll, s.id, err)
		}
	}

	collections := service.DefaultCollections()
	h := handler.New(handler.Config{
		Resolver:    service.NewSnapshotResolver(docs, collections),
		Regions:     service.NewRegionDirectory(docs, collections),
		History:     service.NewSnapshotHistory(docs, collections, service.HistoryLimits{}),
		Store:       docs,
		ServiceName: "toptube-server",
		Version:     "9.9.9",
	})

	srv := httptest.NewServer(httpserver.NewRouter(httpserver.RouterConfig{Handler: h}))
	t.Cleanup(srv.Close)
	return srv
}

// runApp runs the CLI with args and returns what it wrote to stdout and
// stderr. HOME points at a temp dir so user config and history are
// never touched.
func runApp(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return runAppWithInput(t, "", args...)
}

func runAppWithInput(t *testing.T, input string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TOPTUBE_CLI_CONFIG", filepath.Join(home, "cli.yaml"))

	var out, errOut bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(input)
	app.Writer = &out
	app.ErrWriter = &errOut

	err = app.Run(append([]string{"toptube-cli"}, args...))
	return out.String(), errOut.String(), err
}
