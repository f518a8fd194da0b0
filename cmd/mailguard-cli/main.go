package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/mailguard/internal/adapters/eml"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/di"
	"github.com/mikey/mailguard/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *di.CLIFlags, logger *zap.Logger, frontend ports.Frontend, store core.RecordStore) error {
	defer logger.Sync()
	defer store.Close()

	// Read email from file or stdin
	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	req, err := eml.Parse(emailReader)
	if err != nil {
		return err
	}
	if flags.MessageID != "" {
		req.MessageID = flags.MessageID
	}
	req.ForceRecompute = flags.ForceRecompute

	if flags.OCRFiles != "" {
		for _, path := range strings.Split(flags.OCRFiles, ",") {
			text, err := os.ReadFile(strings.TrimSpace(path))
			if err != nil {
				return fmt.Errorf("failed to read OCR text: %w", err)
			}
			req.AttachmentTexts = append(req.AttachmentTexts, string(text))
		}
	}

	_, err = frontend.Process(context.Background(), req)
	return err
}
