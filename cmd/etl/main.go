// Command etl runs one full warehouse refresh: raw extracts in, star
// schema out.
//
// Exit codes: 0 on success, 1 when the run finished with skipped
// sources or failed tables, 2 when nothing reached the warehouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"salesdw/internal/config"
	"salesdw/internal/infrastructure"
	"salesdw/internal/pipeline"
	"salesdw/internal/warehouse"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "config.yaml", "path to the configuration file")
		inputDir   = flag.String("in", "", "override the raw extract directory")
		outputDir  = flag.String("out", "", "override the processed output directory")
		logLevel   = flag.String("log-level", "", "override the log level (debug, info, warn, error)")
		skipLoad   = flag.Bool("skip-load", false, "build the model and extracts without touching the warehouse")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 2
	}
	if *inputDir != "" {
		cfg.Paths.InputDir = *inputDir
	}
	if *outputDir != "" {
		cfg.Paths.OutputDir = *outputDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, closeLogger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization failed: %v\n", err)
		return 2
	}
	defer closeLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store pipeline.Store
	if *skipLoad {
		store = discardStore{logger: logger}
	} else {
		wh, err := warehouse.Open(cfg.Warehouse, logger)
		if err != nil {
			logger.Error("warehouse open failed", slog.Any("error", err))
			return 2
		}
		defer wh.Close()

		if err := wh.Ping(ctx); err != nil {
			logger.Error("warehouse unreachable", slog.Any("error", err))
			return 2
		}
		if cfg.Warehouse.Migrate {
			if err := wh.Migrate(); err != nil {
				logger.Error("schema migration failed", slog.Any("error", err))
				return 2
			}
		}
		store = wh
	}

	report := pipeline.New(cfg, logger, store).Run(ctx)
	return report.ExitCode()
}
