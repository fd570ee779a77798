package backend

import (
	"context"
	"fmt"

	"backoffice/internal/log"
	gsheet "backoffice/internal/sheets/google"
	"backoffice/internal/sheets/memory"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentExport)}
}

func (f *DefaultFactory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid export backend: %q", cfg.Type)
	}

	switch cfg.Type {
	case SheetsBackend:
		return f.createSheets(ctx, cfg)
	default:
		return f.createMemory(), nil
	}
}

func (f *DefaultFactory) createSheets(ctx context.Context, cfg Config) (*Result, error) {
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.SpreadsheetID,
		SheetName:       cfg.SheetName,
		CredentialsJSON: cfg.CredentialsJSON,
		CredentialsFile: cfg.CredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets exporter: %w", err)
	}

	f.logger.Info("Initialized Google Sheets exporter",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.SheetName)

	return &Result{Exporter: client, Type: SheetsBackend}, nil
}

func (f *DefaultFactory) createMemory() *Result {
	f.logger.Warn("Using in-memory exporter, summaries are lost on restart")
	return &Result{Exporter: memory.New(), Type: MemoryBackend}
}
