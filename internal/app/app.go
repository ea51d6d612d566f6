// Package app runs the bundled surface-effects demo: it loads the catalogs
// and effect tuning, drives a scripted contact scenario on a fixed tick and
// serves diagnostics.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	servernet "surfacefx/internal/net"
	"surfacefx/internal/net/ws"
	"surfacefx/internal/resolve"
	"surfacefx/internal/telemetry"
	"surfacefx/logging"
	loggingSinks "surfacefx/logging/sinks"
	"surfacefx/surface/catalog"
)

const shutdownTimeout = 5 * time.Second

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}
	cfg = withEnvironment(cfg, telemetryLogger)

	fileCfg, err := LoadFileConfig(cfg.ConfigPath)
	if err != nil {
		return err
	}

	sounds, err := catalog.Load(cfg.CatalogPaths...)
	if err != nil {
		return fmt.Errorf("failed to load surface catalog: %w", err)
	}
	catalogs := []servernet.Reloader{sounds}
	var particles resolve.Snapshotter
	if particleCatalog, err := catalog.Load(cfg.ParticlePaths...); err != nil {
		telemetryLogger.Printf("particles disabled: %v", err)
	} else {
		particles = particleCatalog
		catalogs = append(catalogs, particleCatalog)
	}

	counters := &logging.Metrics{}
	namedSinks, closeOutputs, err := buildSinks(fileCfg.Logging, os.Stdout)
	if err != nil {
		return err
	}
	router, err := logging.NewRouter(logging.ClockFunc(time.Now), fileCfg.Logging, namedSinks, counters)
	if err != nil {
		closeOutputs()
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
		closeOutputs()
	}()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		reportMetrics(closeCtx, reader, telemetryLogger)
		if cerr := provider.Shutdown(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to shut down meter provider: %v", cerr)
		}
	}()
	metrics := telemetry.Tee(
		telemetry.WrapMetrics(counters),
		telemetry.NewOTelMetrics(provider.Meter("surfacefx"), "surfacefx", telemetryLogger),
	)

	world, err := NewWorld(WorldConfig{
		TickRate:  cfg.TickRate,
		Effects:   fileCfg.Effects,
		Sounds:    sounds,
		Particles: particles,
		Publisher: router,
		Metrics:   metrics,
		Counters:  counters,
		Bodies:    DemoScripts(),
	})
	if err != nil {
		return err
	}
	defer world.Close()

	serveErr := make(chan error, 1)
	if cfg.Addr != "" {
		handler := servernet.NewHTTPHandler(world, servernet.HTTPHandlerConfig{
			Logger:   telemetryLogger,
			Stream:   ws.NewHandler(world, ws.HandlerConfig{Logger: telemetryLogger}),
			Catalogs: catalogs,
		})
		srv := &http.Server{Addr: cfg.Addr, Handler: handler}
		telemetryLogger.Printf("diagnostics listening on %s", srv.Addr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			srv.Shutdown(closeCtx)
		}()
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.TickRate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-serveErr:
			return fmt.Errorf("server failed: %w", err)
		case <-ticker.C:
			world.Step(ctx)
			if cfg.Ticks > 0 && world.Tick() >= cfg.Ticks {
				return nil
			}
		}
	}
}

// buildSinks returns the sinks enabled in cfg and a func closing any files
// they write to.
func buildSinks(cfg logging.Config, stdout io.Writer) ([]logging.NamedSink, func(), error) {
	var named []logging.NamedSink
	var files []*os.File
	closeFiles := func() {
		for _, f := range files {
			f.Close()
		}
	}

	if cfg.HasSink("console") {
		named = append(named, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsoleSink(stdout, cfg.Console)})
	}
	if cfg.HasSink("json") {
		var w io.Writer = stdout
		if cfg.JSON.FilePath != "" {
			f, err := os.OpenFile(cfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				closeFiles()
				return nil, func() {}, fmt.Errorf("failed to open json log %s: %w", cfg.JSON.FilePath, err)
			}
			files = append(files, f)
			w = f
		}
		named = append(named, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(w, cfg.JSON.FlushInterval)})
	}
	return named, closeFiles, nil
}

// reportMetrics logs the final value of every OpenTelemetry instrument.
func reportMetrics(ctx context.Context, reader sdkmetric.Reader, logger telemetry.Logger) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		logger.Printf("failed to collect metrics: %v", err)
		return
	}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				logger.Printf("metric %s=%d", m.Name, total)
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					logger.Printf("metric %s=%d", m.Name, dp.Value)
				}
			}
		}
	}
}
