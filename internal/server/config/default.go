package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr         = "127.0.0.1:8080"
	DefaultReadTimeout      = 10 * time.Second
	DefaultWriteTimeout     = 15 * time.Second
	DefaultIdleTimeout      = 60 * time.Second
	DefaultRateLimit        = 20.0
	DefaultRateBurst        = 40
	DefaultCacheMaxAge      = 5 * time.Minute
	DefaultStorageEngine    = "badger"
	DefaultDataDir          = "/var/lib/toptube-server/data"
	DefaultGCInterval       = 10 * time.Minute
	DefaultGCThreshold      = 0.5
	DefaultCacheSize        = 64 << 20
	DefaultSnapshotsColl    = "snapshots"
	DefaultLatestColl       = "latest_pointers"
	DefaultHistoryLimit     = 7
	DefaultHistoryMaxLimit  = 100
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultLogMaxSizeMB     = 100
	DefaultLogMaxBackups    = 5
	DefaultLogMaxAgeDays    = 28
	DefaultServiceName      = "toptube-server"
	DefaultTraceSampleRatio = 1.0
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:               DefaultHTTPAddr,
				ReadTimeout:        DefaultReadTimeout,
				WriteTimeout:       DefaultWriteTimeout,
				IdleTimeout:        DefaultIdleTimeout,
				CORSAllowedOrigins: []string{"*"},
				RateLimit:          DefaultRateLimit,
				RateBurst:          DefaultRateBurst,
				CacheMaxAge:        DefaultCacheMaxAge,
			},
		},
		Storage: StorageSection{
			Engine:      DefaultStorageEngine,
			DataDir:     DefaultDataDir,
			GCInterval:  DefaultGCInterval,
			GCThreshold: DefaultGCThreshold,
			CacheSize:   DefaultCacheSize,
			Collections: CollectionsConfig{
				Snapshots: DefaultSnapshotsColl,
				Latest:    DefaultLatestColl,
			},
		},
		API: APISection{
			HistoryDefaultLimit: DefaultHistoryLimit,
			HistoryMaxLimit:     DefaultHistoryMaxLimit,
		},
		Log: LogSection{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
		Telemetry: TelemetrySection{
			MetricsEnabled: true,
			ServiceName:    DefaultServiceName,
			SampleRatio:    DefaultTraceSampleRatio,
		},
	}
}
