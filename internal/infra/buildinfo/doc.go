// Package buildinfo exposes version metadata for toptube-server and toptube-cli.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/toptube-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/toptube-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// When a value is not injected, Get falls back to the module's embedded
// VCS settings.
package buildinfo
