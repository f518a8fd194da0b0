package factory

import (
	"github.com/mikey/mailguard/internal/blocklist"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/scoring"
	"go.uber.org/zap"
)

// ScoringFactory creates the scoring engine and the blocklist matcher
type ScoringFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScoringFactory creates a new scoring factory
func NewScoringFactory(cfg *config.Config, logger *zap.Logger) *ScoringFactory {
	return &ScoringFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEngine creates the scoring engine, loading the model eagerly when preload is set
func (f *ScoringFactory) CreateEngine() *scoring.Engine {
	sc := f.cfg.GetScoring()
	loader := &scoring.ArtifactLoader{
		Locator: sc.ModelPath,
		Timeout: sc.LoadTimeout,
		Files:   scoring.FileOpener{},
		S3:      &scoring.S3Opener{Region: sc.S3Region},
		Logger:  f.logger,
	}

	engine := scoring.NewEngine(loader, f.logger)
	if sc.Preload {
		state := engine.Preload()
		f.logger.Info("Scoring engine preloaded", zap.String("state", state.String()))
	}
	return engine
}

// CreateMatcher creates the blocklist matcher from the configured files
func (f *ScoringFactory) CreateMatcher() *blocklist.Matcher {
	bc := f.cfg.GetBlocklist()
	if len(bc.BenignDomains) > 0 {
		f.logger.Info("Loaded configured benign domains", zap.Strings("domains", bc.BenignDomains))
	}
	return blocklist.NewMatcher(&blocklist.FileSource{
		MaliciousPath: bc.MaliciousPath,
		BenignPath:    bc.BenignPath,
		ExtraBenign:   bc.BenignDomains,
		Logger:        f.logger,
	}, f.logger)
}
