package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/yndnr/toptube-go/internal/core/service"
	"github.com/yndnr/toptube-go/internal/infra/buildinfo"
	"github.com/yndnr/toptube-go/internal/infra/confloader"
	"github.com/yndnr/toptube-go/internal/infra/shutdown"
	"github.com/yndnr/toptube-go/internal/infra/tlsroots"
	"github.com/yndnr/toptube-go/internal/server/config"
	"github.com/yndnr/toptube-go/internal/server/httpserver"
	"github.com/yndnr/toptube-go/internal/server/httpserver/handler"
	"github.com/yndnr/toptube-go/internal/storage"
	"github.com/yndnr/toptube-go/internal/storage/memory"
	"github.com/yndnr/toptube-go/internal/telemetry/logger"
	"github.com/yndnr/toptube-go/internal/telemetry/metric"
	"github.com/yndnr/toptube-go/internal/telemetry/tracer"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("toptube-server " + buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := logger.OpenOutput(logger.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   true,
	})

	log, err := initLogger(cfg, out)
	if err != nil {
		out.Close()
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting toptube-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx := context.Background()
	sh := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(log.Slog()))

	// Hooks run in reverse: log output closes last.
	sh.OnShutdown("log output", func(context.Context) error { return out.Close() })

	// fail releases everything registered so far.
	fail := func(err error) error {
		sh.Trigger("startup failed")
		if herr := sh.Wait(ctx); herr != nil {
			log.Error("cleanup after failed startup", "error", herr)
		}
		return err
	}

	kv, err := initStorage(cfg, log)
	if err != nil {
		return fail(fmt.Errorf("init storage: %w", err))
	}
	sh.OnShutdown("storage", func(context.Context) error {
		log.Info("closing storage engine")
		return kv.Close()
	})
	docs := storage.NewDocumentStore(kv)

	var reg *metric.Registry
	if cfg.Telemetry.MetricsEnabled {
		reg = metric.NewRegistry()
		reg.Registerer().MustRegister(metric.NewStoreCollector(docs, cfg.Storage.Engine))
	}

	tp, err := tracer.New(ctx, tracer.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: info.Version,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.OTLPInsecure,
		Headers:        cfg.Telemetry.OTLPHeaders,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fail(fmt.Errorf("init tracer: %w", err))
	}
	sh.OnShutdown("tracer", tp.Shutdown)

	var tr trace.Tracer
	if tp.Enabled() {
		tr = tp.Tracer()
		log.Info("tracing enabled", "endpoint", cfg.Telemetry.OTLPEndpoint)
	}

	h := handler.New(initHandlerConfig(cfg, docs, reg, info.Version))

	trusted, err := cfg.Server.HTTP.TrustedProxyPrefixes()
	if err != nil {
		return fail(err)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Handler:            h,
		Logger:             log,
		Metrics:            reg,
		Tracer:             tr,
		CORSAllowedOrigins: cfg.Server.HTTP.CORSAllowedOrigins,
		RateLimit:          cfg.Server.HTTP.RateLimit,
		RateBurst:          cfg.Server.HTTP.RateBurst,
		TrustedProxies:     trusted,
		EnableAudit:        true,
	})

	httpCfg := cfg.Server.HTTP
	srv := httpserver.New(httpCfg.Addr, router,
		httpserver.WithTimeouts(httpCfg.ReadTimeout, httpCfg.WriteTimeout, httpCfg.IdleTimeout))

	// Bind before reporting readiness so that address errors fail startup.
	ln, err := net.Listen("tcp", httpCfg.Addr)
	if err != nil {
		return fail(fmt.Errorf("listen on %s: %w", httpCfg.Addr, err))
	}
	if httpCfg.TLS.Enabled() {
		tlsLn, stop, err := initTLS(httpCfg.TLS, ln, log)
		if err != nil {
			ln.Close()
			return fail(fmt.Errorf("init tls: %w", err))
		}
		sh.OnShutdown("tls reloader", func(context.Context) error { stop(); return nil })
		ln = tlsLn
	}
	sh.OnShutdown("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return srv.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String(), "tls", httpCfg.TLS.Enabled())
		if err := srv.Serve(ln); err != nil {
			log.Error("HTTP server error", "error", err)
			sh.Trigger("http server failed")
		}
	}()

	if *configFile != "" {
		w, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			sh.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, file, .env and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithDotEnv(".env")}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger creates the process logger and installs it as the default.
func initLogger(cfg *config.ServerConfig, out io.Writer) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: out,
	})
	if err != nil {
		return nil, err
	}

	logger.SetDefault(log)
	return log, nil
}

// initStorage opens the configured KV engine.
func initStorage(cfg *config.ServerConfig, log logger.Logger) (storage.KVEngine, error) {
	switch cfg.Storage.Engine {
	case storage.EngineMemory:
		log.Warn("using in-memory storage engine; data is not persisted")
		return memory.New(), nil

	case storage.EngineBadger, "":
		kvCfg := storage.DefaultKVConfig(cfg.Storage.DataDir)
		kvCfg.ReadOnly = cfg.Storage.ReadOnly
		kvCfg.Badger.GCInterval = cfg.Storage.GCInterval
		if cfg.Storage.GCThreshold > 0 {
			kvCfg.Badger.GCThreshold = cfg.Storage.GCThreshold
		}
		if cfg.Storage.CacheSize > 0 {
			kvCfg.Badger.CacheSize = cfg.Storage.CacheSize
		}

		engine, err := storage.NewBadgerEngine(kvCfg, log.Slog())
		if err != nil {
			return nil, err
		}
		log.Info("badger storage opened", "dir", cfg.Storage.DataDir, "read_only", kvCfg.ReadOnly)
		return engine, nil

	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Storage.Engine)
	}
}

// initHandlerConfig wires the snapshot services to the HTTP handler.
func initHandlerConfig(cfg *config.ServerConfig, docs *storage.DocumentStore, reg *metric.Registry, version string) handler.Config {
	collections := service.Collections{
		Snapshots: cfg.Storage.Collections.Snapshots,
		Latest:    cfg.Storage.Collections.Latest,
	}

	return handler.Config{
		Resolver: service.NewSnapshotResolver(docs, collections),
		Regions:  service.NewRegionDirectory(docs, collections),
		History: service.NewSnapshotHistory(docs, collections, service.HistoryLimits{
			Default: cfg.API.HistoryDefaultLimit,
			Max:     cfg.API.HistoryMaxLimit,
		}),
		Store:       docs,
		Metrics:     reg,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     version,
		CacheMaxAge: cfg.Server.HTTP.CacheMaxAge,
	}
}

// initTLS wraps ln in TLS served from a reloading key pair. stop ends
// the file watcher.
func initTLS(cfg config.TLSConfig, ln net.Listener, log logger.Logger) (net.Listener, func(), error) {
	reloader, err := tlsroots.NewKeyPairReloader(cfg.CertFile, cfg.KeyFile, tlsroots.WithLogger(log.Slog()))
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := reloader.Run(ctx); err != nil {
			log.Warn("certificate reload disabled", "error", err)
		}
	}()

	return tls.NewListener(ln, reloader.ServerTLSConfig()), cancel, nil
}

// watchConfig re-applies the log level whenever the config file changes.
// Other settings need a restart.
func watchConfig(path string, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(changed string) {
		cfg, err := loadConfig(changed)
		if err != nil {
			log.Warn("config reload failed", "file", changed, "error", err)
			return
		}
		if logger.SetLevel(cfg.Log.Level) {
			log.Info("log level updated", "level", logger.Level())
		}
	})
	w.StartAsync()

	return w, nil
}
