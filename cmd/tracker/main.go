package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"tracker/internal/amqp"
	"tracker/internal/backend"
	"tracker/internal/cli"
	"tracker/internal/config"
	"tracker/internal/console"
	apphttp "tracker/internal/http"
	"tracker/internal/log"
	"tracker/internal/services"
	gsheet "tracker/internal/sheets/google"
	"tracker/internal/shutdown"
)

const (
	httpShutdownTimeout = 10 * time.Second
	eventDrainTimeout   = 2 * time.Second
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		cli.Fatal(nil, "Failed to load .env file", err)
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(nil, "Configuration validation failed", err)
	}

	logger, err := cli.SetupLogger(cfg, log.ComponentApp)
	if err != nil {
		cli.Fatal(nil, "Failed to build logger", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tracker",
		log.Operation(log.OpStartup),
		zap.String("backend", cfg.DataBackend),
		zap.Bool("http", cfg.HTTPAddr != ""),
		zap.Bool("amqp", cfg.AMQPURL != ""),
		zap.Bool("sheets", cfg.GoogleSpreadsheetID != ""))

	ctx, stop := cli.GracefulShutdown(context.Background(), logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize storage backend", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to close storage backend", zap.Error(err))
		}
	}()

	trackerOpts := []services.Option{services.WithLogger(logger)}
	if publisher := newPublisher(cfg, logger); publisher != nil {
		defer publisher.Close()
		trackerOpts = append(trackerOpts, services.WithPublisher(publisher))
	}

	tracker := services.Load(ctx, result.Gateway, trackerOpts...)

	var srv *apphttp.Server
	if cfg.HTTPAddr != "" {
		srv = apphttp.NewServer(cfg.HTTPAddr, tracker, logger)
		if err := srv.Start(); err != nil {
			logger.Error("Failed to start HTTP server", zap.Error(err), zap.String("addr", cfg.HTTPAddr))
			srv = nil
		}
	}

	consoleOpts := []console.Option{console.WithLogger(logger)}
	if exporter := newExporter(ctx, cfg, logger); exporter != nil {
		consoleOpts = append(consoleOpts, console.WithExporter(exporter))
	}
	session := console.New(tracker, os.Stdin, os.Stdout, consoleOpts...)

	consoleDone := make(chan error, 1)
	go func() { consoleDone <- session.Run(ctx) }()

	select {
	case err := <-consoleDone:
		if err != nil && ctx.Err() == nil {
			logger.Error("Console stopped", zap.Error(err))
		}
	case <-ctx.Done():
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}
		cancel()
	}

	guard := shutdown.NewGuard(tracker, result.Gateway, cfg.SaveTimeout, logger)
	if err := guard.Save(context.Background()); err != nil {
		logger.Error("Session not saved", log.Operation(log.OpShutdown), zap.Error(err))
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), eventDrainTimeout)
	if err := tracker.Close(drainCtx); err != nil {
		logger.Warn("Pending record events not published", zap.Error(err))
	}
	cancel()
	logger.Info("Tracker stopped", log.Operation(log.OpShutdown))
}

// newPublisher connects to the broker when configured. Publishing is best
// effort, so a failed connection only disables it.
func newPublisher(cfg *config.Config, logger *log.Logger) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		logger.Warn("AMQP unavailable, record events disabled", zap.Error(err))
		return nil
	}
	return client
}

func newExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) *gsheet.Client {
	if cfg.GoogleSpreadsheetID == "" {
		return nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Warn("Google Sheets unavailable, export disabled", zap.Error(err))
		return nil
	}
	return client
}
