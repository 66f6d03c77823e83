package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// Verify validates the configuration. It also normalizes list values
// that arrive as a single comma-separated string from the environment.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyAPI(&cfg.API); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	return verifyTelemetry(&cfg.Telemetry)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err)
	}

	if cfg.HTTP.ReadTimeout < 0 || cfg.HTTP.WriteTimeout < 0 || cfg.HTTP.IdleTimeout < 0 {
		return errors.New("server.http timeouts must not be negative")
	}

	if cfg.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateBurst < 1 {
		return errors.New("server.http.rate_burst must be at least 1 when rate limiting is enabled")
	}

	if cfg.HTTP.CacheMaxAge < 0 {
		return errors.New("server.http.cache_max_age must not be negative")
	}

	if tls := cfg.HTTP.TLS; tls.Enabled() && (tls.CertFile == "" || tls.KeyFile == "") {
		return errors.New("server.http.tls requires both cert_file and key_file")
	}

	cfg.HTTP.CORSAllowedOrigins = splitList(cfg.HTTP.CORSAllowedOrigins)
	cfg.HTTP.TrustedProxies = splitList(cfg.HTTP.TrustedProxies)
	if _, err := cfg.HTTP.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case "badger":
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required for the badger engine")
		}
		if !cfg.ReadOnly {
			if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
				return errors.New("cannot create data directory: " + err.Error())
			}
		}
	case "memory":
	default:
		return fmt.Errorf("storage.engine %q: must be badger or memory", cfg.Engine)
	}

	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		return errors.New("storage.gc_threshold must be between 0 and 1 (exclusive)")
	}
	if cfg.GCInterval < 0 {
		return errors.New("storage.gc_interval must not be negative")
	}

	if cfg.Collections.Snapshots == "" || cfg.Collections.Latest == "" {
		return errors.New("storage.collections.snapshots and storage.collections.latest are required")
	}
	if cfg.Collections.Snapshots == cfg.Collections.Latest {
		return errors.New("storage.collections.snapshots and storage.collections.latest must differ")
	}
	if strings.Contains(cfg.Collections.Snapshots, "/") || strings.Contains(cfg.Collections.Latest, "/") {
		return errors.New("storage.collections names must not contain '/'")
	}

	return nil
}

func verifyAPI(cfg *APISection) error {
	if cfg.HistoryMaxLimit < 1 {
		return errors.New("api.history_max_limit must be at least 1")
	}
	if cfg.HistoryDefaultLimit < 1 || cfg.HistoryDefaultLimit > cfg.HistoryMaxLimit {
		return fmt.Errorf("api.history_default_limit must be between 1 and %d", cfg.HistoryMaxLimit)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q: must be debug, info, warn or error", cfg.Level)
	}

	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q: must be json or text", cfg.Format)
	}

	return nil
}

func verifyTelemetry(cfg *TelemetrySection) error {
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return errors.New("telemetry.sample_ratio must be between 0 and 1")
	}
	if cfg.OTLPEndpoint != "" && cfg.ServiceName == "" {
		return errors.New("telemetry.service_name is required when tracing is enabled")
	}
	return nil
}

// splitList expands comma-separated entries and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
