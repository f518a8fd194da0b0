package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/ports"
	"github.com/mikey/mailguard/internal/utils"
	"go.uber.org/zap"
)

const bodyPreviewSize = 500

// Frontend analyzes messages given on the command line and prints a summary
type Frontend struct {
	analyzer ports.Analyzer
	logger   *zap.Logger
	verbose  bool
	out      io.Writer
}

// NewFrontend creates a new CLI frontend writing to stdout
func NewFrontend(analyzer ports.Analyzer, logger *zap.Logger, verbose bool) *Frontend {
	return &Frontend{
		analyzer: analyzer,
		logger:   logger,
		verbose:  verbose,
		out:      os.Stdout,
	}
}

// SetOutput redirects the printed summary
func (f *Frontend) SetOutput(w io.Writer) {
	f.out = w
}

// Process analyzes a message and prints the results
func (f *Frontend) Process(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisRecord, error) {
	f.logger.Debug("Processing message", zap.String("message_id", req.MessageID))

	fmt.Fprintf(f.out, "\n=== Message ===\n")
	fmt.Fprintf(f.out, "Message-ID: %s\n", req.MessageID)
	fmt.Fprintf(f.out, "From: %s\n", req.Sender)
	fmt.Fprintf(f.out, "Subject: %s\n", req.Subject)
	fmt.Fprintf(f.out, "Body length: %d bytes\n", len(req.Body))
	if len(req.AttachmentTexts) > 0 {
		fmt.Fprintf(f.out, "OCR texts: %d\n", len(req.AttachmentTexts))
	}
	if f.verbose {
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", utils.TruncateText(req.Body, bodyPreviewSize))
	}

	start := time.Now()
	rec, err := f.analyzer.Analyze(ctx, req)
	if err != nil {
		f.logger.Error("Failed to analyze message", zap.Error(err))
		fmt.Fprintf(f.out, "Error: %v\n", err)
		return nil, err
	}

	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Verdict: %s\n", rec.Verdict)
	if rec.Score != nil {
		fmt.Fprintf(f.out, "Score: %.3f\n", *rec.Score)
	}
	fmt.Fprintf(f.out, "Blocklist: %s", rec.Blocklist.Status)
	if len(rec.Blocklist.Hosts) > 0 {
		fmt.Fprintf(f.out, " (%s)", strings.Join(rec.Blocklist.Hosts, ", "))
	}
	fmt.Fprintln(f.out)
	if rec.UsedModel {
		fmt.Fprintf(f.out, "Scorer: %s\n", rec.ModelKind)
	} else {
		fmt.Fprintf(f.out, "Scorer: skipped\n")
	}
	fmt.Fprintf(f.out, "Reasons: %s\n", strings.Join(rec.Reasons, ", "))
	fmt.Fprintf(f.out, "Cached: %t\n", rec.Cached)
	fmt.Fprintf(f.out, "Processing time: %v\n", time.Since(start))

	return rec, nil
}

// Start is a no-op for the CLI frontend
func (f *Frontend) Start() error {
	return nil
}

// Stop is a no-op for the CLI frontend
func (f *Frontend) Stop() error {
	return nil
}
