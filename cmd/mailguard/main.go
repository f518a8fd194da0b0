package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/mailguard/internal/blocklist"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/di"
	"github.com/mikey/mailguard/internal/ports"
	"github.com/mikey/mailguard/internal/scoring"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	frontend ports.Frontend,
	engine *scoring.Engine,
	matcher *blocklist.Matcher,
	store core.RecordStore,
) error {
	defer logger.Sync()

	malicious, benign := matcher.Snapshot().Sizes()
	logger.Info("Starting mailguard",
		zap.String("scoring_state", engine.State().String()),
		zap.Int("malicious_domains", malicious),
		zap.Int("benign_domains", benign))

	// Start the frontend
	if err := frontend.Start(); err != nil {
		logger.Error("Failed to start frontend", zap.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigCh {
		if sig != syscall.SIGHUP {
			break
		}
		if err := matcher.Reload(); err != nil {
			logger.Error("Failed to reload blocklists", zap.Error(err))
		}
	}
	logger.Info("Shutting down...")

	// Stop the frontend
	if err := frontend.Stop(); err != nil {
		logger.Error("Failed to stop frontend", zap.Error(err))
	}

	if err := store.Close(); err != nil {
		logger.Error("Failed to close record store", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
