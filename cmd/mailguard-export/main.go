package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mikey/mailguard/internal/adapters/export"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/factory"
	"github.com/mikey/mailguard/internal/logging"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	out := flag.String("out", "", "Output CSV file (stdout if not specified)")
	since := flag.String("since", "", "Only export records created at or after this time (RFC 3339 or YYYY-MM-DD)")
	limit := flag.Int("limit", 0, "Maximum number of records to export (0 for all)")
	flag.Parse()

	logger, err := logging.InitConsoleLogger(false, false)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*configFile, *out, *since, *limit, logger); err != nil {
		logger.Error("Export failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(configFile, out, since string, limit int, logger *zap.Logger) error {
	cfg, err := config.NewFromFile(configFile)
	if err != nil {
		return err
	}

	opts := core.ListOptions{Limit: limit}
	if since != "" {
		if opts.Since, err = export.ParseSince(since); err != nil {
			return err
		}
	}

	store, err := factory.NewStoreFactory(cfg, logger).CreateRecordStore()
	if err != nil {
		return err
	}
	defer store.Close()

	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := export.WriteCSV(ctx, store, opts, w)
	if err != nil {
		return err
	}
	logger.Info("Export complete", zap.Int("records", n), zap.String("out", out))
	return nil
}
