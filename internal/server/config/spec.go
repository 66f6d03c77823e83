package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// ServerConfig is the root configuration for toptube-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Storage   StorageSection   `koanf:"storage"`
	API       APISection       `koanf:"api"`
	Log       LogSection       `koanf:"log"`
	Telemetry TelemetrySection `koanf:"telemetry"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// CORSAllowedOrigins lists origins allowed to call the API.
	// "*" allows any origin; empty disables CORS headers.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// RateLimit is the per-client request rate (requests per second).
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the per-client burst size.
	RateBurst int `koanf:"rate_burst"`

	// TrustedProxies lists proxy addresses or CIDRs whose
	// X-Forwarded-For and X-Real-IP headers are believed. Empty trusts
	// no proxy and keys clients by peer address.
	TrustedProxies []string `koanf:"trusted_proxies"`

	// CacheMaxAge is the max-age advertised for snapshot responses.
	CacheMaxAge time.Duration `koanf:"cache_max_age"`

	TLS TLSConfig `koanf:"tls"`
}

// TLSConfig enables HTTPS. The key pair is reloaded when either file
// changes on disk.
type TLSConfig struct {
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
}

// Enabled reports whether a key pair is configured.
func (c TLSConfig) Enabled() bool {
	return c.CertFile != "" || c.KeyFile != ""
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a
// single-host prefix.
func (c HTTPConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("server.http.trusted_proxies %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("server.http.trusted_proxies %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// StorageSection configures the snapshot store.
type StorageSection struct {
	// Engine selects the KV engine: "badger" or "memory".
	Engine  string `koanf:"engine"`
	DataDir string `koanf:"data_dir"`

	// ReadOnly opens Badger without write access so that an offline
	// import can share the directory.
	ReadOnly bool `koanf:"read_only"`

	GCInterval  time.Duration `koanf:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold"`
	CacheSize   int64         `koanf:"cache_size"`

	Collections CollectionsConfig `koanf:"collections"`
}

// CollectionsConfig names the store collections.
type CollectionsConfig struct {
	Snapshots string `koanf:"snapshots"`
	Latest    string `koanf:"latest"`
}

// APISection configures API behavior.
type APISection struct {
	HistoryDefaultLimit int `koanf:"history_default_limit"`
	HistoryMaxLimit     int `koanf:"history_max_limit"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`

	// File enables rotated file output instead of stdout.
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

// TelemetrySection configures metrics and tracing.
type TelemetrySection struct {
	MetricsEnabled bool   `koanf:"metrics_enabled"`
	ServiceName    string `koanf:"service_name"`

	// OTLPEndpoint enables tracing when set (host:port of an OTLP/HTTP
	// collector).
	OTLPEndpoint string            `koanf:"otlp_endpoint"`
	OTLPInsecure bool              `koanf:"otlp_insecure"`
	OTLPHeaders  map[string]string `koanf:"otlp_headers"`
	SampleRatio  float64           `koanf:"sample_ratio"`
}
