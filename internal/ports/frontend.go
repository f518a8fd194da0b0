package ports

import (
	"context"

	"github.com/mikey/mailguard/internal/core"
)

// Analyzer runs the analysis pipeline for one message
type Analyzer interface {
	Analyze(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisRecord, error)
}

// Frontend accepts messages from the outside world and hands them to an Analyzer
type Frontend interface {
	// Process analyzes a single message and returns its record
	Process(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisRecord, error)

	// Start starts the frontend
	Start() error

	// Stop stops the frontend
	Stop() error
}
