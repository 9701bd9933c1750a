package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"textgend/internal/config"
	"textgend/internal/engine"
	"textgend/internal/generator"
	"textgend/internal/httpapi"
	"textgend/internal/logging"
	"textgend/internal/rpcapi"
)

type serveFlags struct {
	configPath  string
	addr        string
	adminAddr   string
	workers     int
	queueDepth  int
	maxLength   int
	intervalMs  int
	engineKind  string
	model       string
	modelsDir   string
	serverURL   string
	logLevel    string
	logFormat   string
	logFile     string
	corsEnabled bool
	corsOrigins string
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC text generation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, *f)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	bindServeFlags(cmd, f)
	return cmd
}

func bindServeFlags(cmd *cobra.Command, f *serveFlags) {
	d := config.Default()
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "Path to config file (.yaml|.yml|.json|.toml)")
	fl.StringVar(&f.addr, "addr", d.Addr, "gRPC listen address")
	fl.StringVar(&f.adminAddr, "admin-addr", d.AdminAddr, "Admin HTTP listen address (empty disables)")
	fl.IntVar(&f.workers, "workers", d.Workers, "Concurrent generations")
	fl.IntVar(&f.queueDepth, "queue-depth", d.QueueDepth, "Requests allowed to wait for a worker")
	fl.IntVar(&f.maxLength, "default-max-length", d.DefaultMaxLength, "max_length used when a request omits it")
	fl.IntVar(&f.intervalMs, "default-interval-ms", d.DefaultIntervalMs, "Fragment interval used when a request omits it")
	fl.StringVar(&f.engineKind, "engine", d.Engine.Kind, "Engine kind: llama|llama-server")
	fl.StringVar(&f.model, "model", d.Engine.Model, "Model file or id (llama), or model name (llama-server)")
	fl.StringVar(&f.modelsDir, "models-dir", d.Engine.ModelsDir, "Directory to scan for *.gguf model files")
	fl.StringVar(&f.serverURL, "server-url", d.Engine.ServerURL, "llama.cpp server base URL")
	fl.StringVar(&f.logLevel, "log-level", d.Log.Level, "Log level: debug|info|warn|error")
	fl.StringVar(&f.logFormat, "log-format", d.Log.Format, "Log format: auto|console|json")
	fl.StringVar(&f.logFile, "log-file", d.Log.File, "Also write JSON logs to this rotated file")
	fl.BoolVar(&f.corsEnabled, "cors", d.CORS.Enabled, "Enable CORS on the admin server")
	fl.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins")
}

// loadServeConfig layers defaults, the config file and explicitly set flags.
func loadServeConfig(cmd *cobra.Command, f serveFlags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		c, err := config.Load(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	set := cmd.Flags().Changed
	if set("addr") {
		cfg.Addr = f.addr
	}
	if set("admin-addr") {
		cfg.AdminAddr = f.adminAddr
	}
	if set("workers") {
		cfg.Workers = f.workers
	}
	if set("queue-depth") {
		cfg.QueueDepth = f.queueDepth
	}
	if set("default-max-length") {
		cfg.DefaultMaxLength = f.maxLength
	}
	if set("default-interval-ms") {
		cfg.DefaultIntervalMs = f.intervalMs
	}
	if set("engine") {
		cfg.Engine.Kind = f.engineKind
	}
	if set("model") {
		cfg.Engine.Model = f.model
	}
	if set("models-dir") {
		cfg.Engine.ModelsDir = f.modelsDir
	}
	if set("server-url") {
		cfg.Engine.ServerURL = f.serverURL
	}
	if set("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if set("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if set("log-file") {
		cfg.Log.File = f.logFile
	}
	if set("cors") {
		cfg.CORS.Enabled = f.corsEnabled
	}
	if set("cors-origins") {
		cfg.CORS.Origins = splitCSV(f.corsOrigins)
	}
	return cfg, cfg.Validate()
}

func setLoggers(l zerolog.Logger) {
	engine.SetLogger(l)
	generator.SetLogger(l)
	rpcapi.SetLogger(l)
	httpapi.SetLogger(l)
}

// newGenerator builds the generator serving eng. On failure eng is closed,
// since nothing else owns it yet.
func newGenerator(cfg config.Config, eng engine.Engine) (*generator.Generator, error) {
	gen, err := generator.New(generator.Config{
		Engine:         eng,
		EngineKind:     cfg.Engine.Kind,
		Model:          cfg.Engine.Model,
		Workers:        cfg.Workers,
		MaxQueueDepth:  cfg.QueueDepth,
		FragmentBuffer: cfg.FragmentBuffer,
		MaxLengthLimit: cfg.MaxLengthLimit,
		Defaults: generator.Defaults{
			MaxLength: cfg.DefaultMaxLength,
			Interval:  time.Duration(cfg.DefaultIntervalMs) * time.Millisecond,
		},
		Publisher: generator.LogPublisher{},
	})
	if err != nil {
		if c, ok := eng.(engine.Closer); ok {
			_ = c.Close()
		}
		return nil, fmt.Errorf("generator: %w", err)
	}
	return gen, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	log, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	setLoggers(log)

	eng, err := engine.New(engine.Config{
		Kind:           cfg.Engine.Kind,
		Model:          cfg.Engine.Model,
		ModelsDir:      cfg.Engine.ModelsDir,
		ServerURL:      cfg.Engine.ServerURL,
		APIKey:         cfg.Engine.APIKey,
		RequestTimeout: time.Duration(cfg.Engine.RequestTimeoutMs) * time.Millisecond,
		ContextSize:    cfg.Engine.ContextSize,
		Threads:        cfg.Engine.Threads,
	})
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	gen, err := newGenerator(cfg, eng)
	if err != nil {
		return err
	}
	shutdownTimeout := time.Duration(cfg.ShutdownTimeoutMs) * time.Millisecond

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		_ = gen.Close(0)
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	rpc := rpcapi.NewServer(gen)

	var admin *http.Server
	if cfg.AdminAddr != "" {
		httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, cfg.CORS.Methods, cfg.CORS.Headers)
		admin = &http.Server{
			Addr:              cfg.AdminAddr,
			Handler:           httpapi.NewMux(adminService{gen: gen, modelsDir: cfg.Engine.ModelsDir}),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	log.Info().Str("addr", cfg.Addr).Str("admin_addr", cfg.AdminAddr).Str("engine", cfg.Engine.Kind).
		Int("workers", cfg.Workers).Int("default_max_length", cfg.DefaultMaxLength).
		Int("default_interval_ms", cfg.DefaultIntervalMs).Msg("textgend starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rpc.Serve(lis) })
	if admin != nil {
		g.Go(func() error {
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if admin != nil {
			if err := admin.Shutdown(sctx); err != nil {
				log.Warn().Err(err).Msg("admin shutdown")
			}
		}
		rpc.Shutdown(sctx)
		return gen.Close(shutdownTimeout)
	})
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
