package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"backoffice/internal/storage"
)

// PendingSource lists documents whose latest version has not been exported
// and parks versions that cannot be exported.
type PendingSource interface {
	PendingSync(ctx context.Context, limit int) ([]storage.PendingDocument, error)
	FailSync(ctx context.Context, id, version int64) error
}

// Exporter writes one pending document to the export backend and
// acknowledges it.
type Exporter interface {
	Export(ctx context.Context, doc storage.PendingDocument) error
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending documents (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of documents exported per poll cycle (default: 10)
	BatchSize int

	// MaxAttempts is how many polls may fail on one document version before
	// it is parked (default: 5)
	MaxAttempts int
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    10,
		MaxAttempts:  5,
	}
}

// SyncProcessor is the backstop for lost AMQP messages: it periodically
// exports whatever the record store still reports as pending.
type SyncProcessor struct {
	source   PendingSource
	exporter Exporter
	config   SyncProcessorConfig

	mu       sync.Mutex
	running  bool
	failures map[failureKey]int
}

type failureKey struct {
	id, version int64
}

func NewSyncProcessor(source PendingSource, exporter Exporter, config SyncProcessorConfig) *SyncProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSyncProcessorConfig().BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultSyncProcessorConfig().MaxAttempts
	}
	return &SyncProcessor{
		source:   source,
		exporter: exporter,
		config:   config,
		failures: make(map[failureKey]int),
	}
}

// Run processes one batch immediately, then one per poll interval until ctx
// is cancelled. It returns an error if the processor is already running.
func (p *SyncProcessor) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		if _, _, err := p.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "Sync batch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Sync processor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// ProcessBatch exports up to BatchSize pending documents. A failed export is
// left pending for the next cycle until it has failed MaxAttempts times, then
// the version is parked.
func (p *SyncProcessor) ProcessBatch(ctx context.Context) (synced, failed int, err error) {
	pending, err := p.source.PendingSync(ctx, p.config.BatchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending documents: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	for _, doc := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		if err := p.exporter.Export(ctx, doc); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending document",
				"id", doc.ID, "kind", doc.Kind, "version", doc.Version, "error", err)
			p.handleFailure(ctx, doc)
			failed++
			continue
		}
		p.forget(doc)
		synced++
	}

	slog.InfoContext(ctx, "Sync batch completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return synced, failed, nil
}

func (p *SyncProcessor) handleFailure(ctx context.Context, doc storage.PendingDocument) {
	key := failureKey{doc.ID, doc.Version}
	p.mu.Lock()
	p.failures[key]++
	attempts := p.failures[key]
	p.mu.Unlock()

	if attempts < p.config.MaxAttempts {
		return
	}
	if err := p.source.FailSync(ctx, doc.ID, doc.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to park document",
			"id", doc.ID, "version", doc.Version, "error", err)
		return
	}
	slog.WarnContext(ctx, "Document parked after repeated export failures",
		"id", doc.ID, "kind", doc.Kind, "version", doc.Version, "attempts", attempts)
	p.forget(doc)
}

func (p *SyncProcessor) forget(doc storage.PendingDocument) {
	p.mu.Lock()
	delete(p.failures, failureKey{doc.ID, doc.Version})
	p.mu.Unlock()
}
