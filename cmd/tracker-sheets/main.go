package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"go.uber.org/zap"

	"tracker/internal/backend"
	"tracker/internal/cli"
	"tracker/internal/log"
	gsheet "tracker/internal/sheets/google"
	"tracker/internal/storage"
)

const exportTimeout = 30 * time.Second

func main() {
	interval := flag.Duration("interval", 0, "repeat the export at this interval until interrupted; 0 exports once")
	flag.Parse()

	if err := cli.LoadEnvFile(); err != nil {
		cli.Fatal(nil, "Failed to load .env file", err)
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(nil, "Configuration validation failed", err)
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentSheets)
	if err != nil {
		cli.Fatal(nil, "Failed to build logger", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.GoogleSpreadsheetID == "" {
		cli.Fatal(logger, "Google Sheets export not configured", errors.New("GOOGLE_SPREADSHEET_ID is empty"))
	}

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
	defer func() { _ = result.Cleanup() }()

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}

	if err := export(ctx, result.Gateway, client, logger); err != nil {
		if *interval == 0 {
			cli.Fatal(logger, "Export failed", err)
		}
		logger.Error("Export failed", zap.Error(err))
	}
	if *interval == 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Export loop stopped", log.Operation(log.OpShutdown))
			return
		case <-ticker.C:
			if err := export(ctx, result.Gateway, client, logger); err != nil {
				logger.Error("Periodic export failed", zap.Error(err))
			}
		}
	}
}

// export pushes the saved expense list. A load error aborts instead of
// overwriting the sheet with an empty list.
func export(ctx context.Context, gw storage.Gateway, client *gsheet.Client, logger *log.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	expenses, err := gw.LoadExpenses(ctx)
	if err != nil {
		return err
	}
	rows, err := client.ExportExpenses(ctx, expenses)
	if err != nil {
		return err
	}
	logger.Info("Exported expenses", log.Operation(log.OpExport), zap.Int("rows", rows))
	return nil
}
