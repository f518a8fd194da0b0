package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/factory"
	"github.com/mikey/mailguard/internal/logging"
	"github.com/mikey/mailguard/internal/metrics"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Scoring flags
	ModelPath string

	// Blocklist flags
	MaliciousPath string
	BenignPath    string

	// Input flags
	InputFile      string
	MessageID      string
	OCRFiles       string
	ForceRecompute bool
	Verbose        bool
	JSONLog        bool
	ConfigFile     string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.ModelPath, "model", "", "Model artifact path or s3://bucket/key (rule-based fallback if empty)")
	flag.StringVar(&flags.MaliciousPath, "malicious", "data/malicious_domains.txt", "Malicious domain list")
	flag.StringVar(&flags.BenignPath, "benign", "data/benign_domains.txt", "Benign domain list")

	flag.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	flag.StringVar(&flags.MessageID, "message-id", "", "Override the message id taken from the Message-ID header")
	flag.StringVar(&flags.OCRFiles, "ocr", "", "Comma separated text files holding OCR output of attachments")
	flag.BoolVar(&flags.ForceRecompute, "force", false, "Recompute even if a record exists")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			cfg.GetViper().Set("server.frontend", "cli")
			cfg.GetViper().Set("cli.verbose", flags.Verbose)
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// No metrics endpoint for one-shot runs
	if err := container.Provide(func() *metrics.Recorder { return nil }); err != nil {
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

	// Attachments are not persisted from the CLI
	if err := container.Provide(func() core.AttachmentStore { return nil }); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("server.frontend", "cli")
	v.Set("cli.verbose", flags.Verbose)
	v.Set("store.type", "memory")
	v.Set("attachments.enabled", false)
	v.Set("metrics.enabled", false)

	v.Set("scoring.model_path", flags.ModelPath)
	v.Set("blocklist.malicious_path", flags.MaliciousPath)
	v.Set("blocklist.benign_path", flags.BenignPath)

	return config.NewFromViper(v)
}
