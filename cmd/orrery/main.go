package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/signalsfoundry/orrery/internal/config"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/scene"
	"github.com/signalsfoundry/orrery/internal/surface"
	"github.com/signalsfoundry/orrery/kb"
	"github.com/signalsfoundry/orrery/timectrl"
)

func main() {
	fs := pflag.NewFlagSet("orrery", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.Load("", fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orrery: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log, prometheus.DefaultRegisterer)
	stop()
	if err != nil {
		log.Error(context.Background(), "orrery exited with error", logging.Err(err))
		os.Exit(1)
	}
}

// run wires every component from cfg and blocks until the frame loop ends.
// All acquired resources are released before it returns.
func run(ctx context.Context, cfg config.Config, log logging.Logger, reg prometheus.Registerer) error {
	ctx, log = logging.WithRunLogger(ctx, log)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewRenderCollector(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if srv := serveMetrics(cfg.Metrics.Addr, collector, log); srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	log.Info(ctx, "loaded body catalog", logging.Int("bodies", catalog.Len()), logging.Any("names", catalog.Names()))

	surf, err := surface.New(cfg, collector, log)
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	defer func() {
		if err := surf.Close(); err != nil {
			log.Warn(context.Background(), "closing surface failed", logging.Err(err))
		}
	}()

	mode, err := timectrl.ParseMode(cfg.Clock.Mode)
	if err != nil {
		return fmt.Errorf("clock: %w", err)
	}
	loop := &scene.Loop{
		Composer:       scene.NewComposer(catalog, scene.OptionsFromConfig(cfg)),
		Surface:        surf,
		Clock:          timectrl.New(mode, cfg.Clock.Tick),
		Metrics:        collector,
		Log:            log.With(logging.String("clock", mode.String())),
		Title:          cfg.Window.Title,
		Epoch:          cfg.Clock.Epoch,
		SimYearSeconds: cfg.Scale.SimYearSeconds,
	}
	_, err = loop.Run(ctx)
	return err
}

// loadCatalog picks the catalog file, then inline bodies, then the built-in
// solar system.
func loadCatalog(cfg config.Config) (*kb.Catalog, error) {
	if cfg.Catalog != "" {
		catalog, err := kb.LoadCatalogFile(cfg.Catalog)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", cfg.Catalog, err)
		}
		return catalog, nil
	}
	if len(cfg.Bodies) == 0 {
		return kb.SolarSystem(), nil
	}
	catalog, err := kb.NewCatalog(cfg.Bodies...)
	if err != nil {
		return nil, fmt.Errorf("load configured bodies: %w", err)
	}
	return catalog, nil
}

func serveMetrics(addr string, collector *observability.RenderCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
