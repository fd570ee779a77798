// Package worker exports document summaries out of the record store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/amqp"
	"backoffice/internal/documents"
	"backoffice/internal/log"
	"backoffice/internal/observability"
	"backoffice/internal/recordclient"
	"backoffice/internal/sheets"
	"backoffice/internal/storage"
)

// DocumentSource reads documents and acknowledges exported versions.
// *recordclient.Client satisfies it.
type DocumentSource interface {
	GetDocument(ctx context.Context, kind documents.Kind, id int64) (documents.Document, error)
	AckSync(ctx context.Context, id, version int64) error
}

// ExportWorker keeps the summary sheet in line with the record store. Both
// the AMQP consumer and the pending poller funnel into Export.
type ExportWorker struct {
	source  DocumentSource
	writer  sheets.SummaryWriter
	metrics *observability.Metrics
	logger  *log.Logger
}

// NewExportWorker builds a worker; metrics may be nil.
func NewExportWorker(source DocumentSource, writer sheets.SummaryWriter, metrics *observability.Metrics) *ExportWorker {
	return &ExportWorker{
		source:  source,
		writer:  writer,
		metrics: metrics,
		logger:  log.Default().WithComponent(log.ComponentWorker),
	}
}

// Handle processes one change message from the broker.
func (w *ExportWorker) Handle(ctx context.Context, msg amqp.DocumentChangedMessage) error {
	return w.Export(ctx, storage.PendingDocument{
		ID:      msg.ID,
		Kind:    msg.Kind,
		Version: msg.Version,
		Deleted: msg.Action == amqp.ActionDelete,
	})
}

// Export writes or removes the summary row of p and acknowledges the
// exported version. Upserts always export the latest stored version, so an
// out of date notification still converges.
func (w *ExportWorker) Export(ctx context.Context, p storage.PendingDocument) error {
	if p.Deleted {
		return w.remove(ctx, p.Kind, p.ID, p.Version, true)
	}

	started := time.Now()
	doc, err := w.source.GetDocument(ctx, p.Kind, p.ID)
	if errors.Is(err, recordclient.ErrNotFound) {
		// Deleted after the change was queued; its own delete entry acks it.
		return w.remove(ctx, p.Kind, p.ID, p.Version, false)
	}
	if err != nil {
		w.metrics.ObserveExport(amqp.ActionUpsert, started, err)
		return fmt.Errorf("get document %s/%d: %w", p.Kind, p.ID, err)
	}

	row := sheets.NewSummaryRow(doc, doc.Sheet())
	err = w.writer.UpsertSummary(ctx, row)
	w.metrics.ObserveExport(amqp.ActionUpsert, started, err)
	if err != nil {
		return fmt.Errorf("upsert summary %s: %w", row.Key(), err)
	}

	if err := w.source.AckSync(ctx, doc.ID, doc.Version); err != nil {
		return fmt.Errorf("ack document %d version %d: %w", doc.ID, doc.Version, err)
	}

	w.logger.InfoContext(ctx, "Summary exported",
		log.FieldDocumentID, doc.ID,
		log.FieldKind, doc.Kind,
		log.FieldVersion, doc.Version,
		"net_profit", row.NetProfit)
	return nil
}

func (w *ExportWorker) remove(ctx context.Context, kind documents.Kind, id, version int64, ack bool) error {
	started := time.Now()
	err := w.writer.DeleteSummary(ctx, kind, id)
	w.metrics.ObserveExport(amqp.ActionDelete, started, err)
	if err != nil {
		return fmt.Errorf("delete summary %s: %w", sheets.RowKey(kind, id), err)
	}
	if ack {
		if err := w.source.AckSync(ctx, id, version); err != nil {
			return fmt.Errorf("ack document %d version %d: %w", id, version, err)
		}
	}

	w.logger.InfoContext(ctx, "Summary removed",
		log.FieldDocumentID, id,
		log.FieldKind, kind,
		log.FieldVersion, version)
	return nil
}
