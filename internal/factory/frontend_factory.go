package factory

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mikey/mailguard/internal/adapters/cli"
	"github.com/mikey/mailguard/internal/adapters/httpapi"
	"github.com/mikey/mailguard/internal/blocklist"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/metrics"
	"github.com/mikey/mailguard/internal/ports"
	"github.com/mikey/mailguard/internal/scoring"
	"go.uber.org/zap"
)

// FrontendFactory creates frontends based on configuration
type FrontendFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	analyzer ports.Analyzer
	records  core.RecordStore
	engine   *scoring.Engine
	matcher  *blocklist.Matcher
	recorder *metrics.Recorder
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(
	cfg *config.Config,
	logger *zap.Logger,
	analyzer ports.Analyzer,
	records core.RecordStore,
	engine *scoring.Engine,
	matcher *blocklist.Matcher,
	recorder *metrics.Recorder,
) *FrontendFactory {
	return &FrontendFactory{
		cfg:      cfg,
		logger:   logger,
		analyzer: analyzer,
		records:  records,
		engine:   engine,
		matcher:  matcher,
		recorder: recorder,
	}
}

// CreateFrontend creates a frontend based on the configuration
func (f *FrontendFactory) CreateFrontend() (ports.Frontend, error) {
	sc := f.cfg.GetServer()

	switch sc.Frontend {
	case "http":
		opts := []httpapi.Option{httpapi.WithReadiness(f.readiness)}
		if f.recorder != nil {
			opts = append(opts, httpapi.WithMetricsHandler(f.recorder.Handler()))
		}
		return httpapi.NewServer(httpapi.Config{
			ListenAddress:   sc.ListenAddress,
			ReadTimeout:     sc.ReadTimeout,
			WriteTimeout:    sc.WriteTimeout,
			ShutdownTimeout: sc.ShutdownTimeout,
			Mode:            sc.Mode,
		}, f.analyzer, f.records, f.logger, opts...), nil
	case "cli":
		return cli.NewFrontend(f.analyzer, f.logger, f.cfg.GetBool("cli.verbose")), nil
	default:
		return nil, fmt.Errorf("unsupported frontend: %s", sc.Frontend)
	}
}

func (f *FrontendFactory) readiness() gin.H {
	malicious, benign := f.matcher.Snapshot().Sizes()
	return gin.H{
		"scoring_state":     f.engine.State().String(),
		"malicious_domains": malicious,
		"benign_domains":    benign,
	}
}
