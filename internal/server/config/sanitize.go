package config

import (
	"net/url"
	"strings"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if len(cfg.Telemetry.OTLPHeaders) > 0 {
		headers := make(map[string]string, len(cfg.Telemetry.OTLPHeaders))
		for k, v := range cfg.Telemetry.OTLPHeaders {
			headers[k] = maskSecret(v)
		}
		sanitized.Telemetry.OTLPHeaders = headers
	}

	sanitized.Telemetry.OTLPEndpoint = maskUserinfo(cfg.Telemetry.OTLPEndpoint)

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// maskUserinfo masks the password of an endpoint URL.
func maskUserinfo(endpoint string) string {
	if !strings.Contains(endpoint, "@") {
		return endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.User == nil {
		return endpoint
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
