package di

import (
	"github.com/joho/godotenv"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/blocklist"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/factory"
	"github.com/mikey/mailguard/internal/logging"
	"github.com/mikey/mailguard/internal/metrics"
	"github.com/mikey/mailguard/internal/ports"
	"github.com/mikey/mailguard/internal/scoring"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer(configFile string) (*dig.Container, error) {
	// A .env file is optional and only fills variables not already set
	_ = godotenv.Load()

	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.NewFromFile(configFile)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(func(cfg *config.Config) *metrics.Recorder {
		if !cfg.GetBool("metrics.enabled") {
			return nil
		}
		return metrics.NewRecorder()
	}); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register record store
	if err := container.Provide(func(f *factory.StoreFactory) (core.RecordStore, error) {
		return f.CreateRecordStore()
	}); err != nil {
		return nil, err
	}

	// Register attachment store
	if err := container.Provide(func(f *factory.StoreFactory) (core.AttachmentStore, error) {
		return f.CreateAttachmentStore()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCommon registers the components shared by the service and the CLI
func provideCommon(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewScoringFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return err
	}

	// Register scoring engine and blocklist
	if err := container.Provide(func(f *factory.ScoringFactory) *scoring.Engine {
		return f.CreateEngine()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ScoringFactory) *blocklist.Matcher {
		return f.CreateMatcher()
	}); err != nil {
		return err
	}

	// Register analysis service
	if err := container.Provide(func(
		store core.RecordStore,
		attachments core.AttachmentStore,
		matcher *blocklist.Matcher,
		engine *scoring.Engine,
		recorder *metrics.Recorder,
		logger *zap.Logger,
	) ports.Analyzer {
		var opts []core.ServiceOption
		if attachments != nil {
			opts = append(opts, core.WithAttachmentStore(attachments))
		}
		if recorder != nil {
			opts = append(opts, core.WithObserver(recorder))
		}
		return core.NewAnalysisService(store, matcher, engine, logger, opts...)
	}); err != nil {
		return err
	}

	// Register frontend
	return container.Provide(func(f *factory.FrontendFactory) (ports.Frontend, error) {
		return f.CreateFrontend()
	})
}
