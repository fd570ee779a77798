package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"backoffice/internal/amqp"
	"backoffice/internal/core"
	"backoffice/internal/documents"
)

// DocumentStore is the part of the record store the document service needs.
// *storage.SQLiteRepository satisfies it.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *documents.Document) error
	GetDocument(ctx context.Context, kind documents.Kind, id int64) (documents.Document, error)
	ListDocuments(ctx context.Context, kind documents.Kind) ([]documents.Document, error)
	UpdateDocument(ctx context.Context, doc *documents.Document) error
	SoftDeleteDocument(ctx context.Context, kind documents.Kind, id int64) (int64, error)
}

// Publisher announces document changes to the summary worker.
type Publisher interface {
	PublishDocumentChanged(ctx context.Context, msg amqp.DocumentChangedMessage) error
}

// DocumentService orchestrates document operations across SQLite and AMQP.
// Writes are committed locally first; the change notification is best effort
// because the worker's poller picks up anything a lost message leaves behind.
type DocumentService struct {
	store     DocumentStore
	publisher Publisher
	reporting core.Currency
}

// NewDocumentService builds the service. publisher may be nil when no broker
// is configured. reporting is applied to documents saved without a reporting
// currency.
func NewDocumentService(store DocumentStore, publisher Publisher, reporting core.Currency) *DocumentService {
	if !reporting.Valid() {
		reporting = core.EGP
	}
	return &DocumentService{store: store, publisher: publisher, reporting: reporting}
}

// Create validates and stores a new document.
func (s *DocumentService) Create(ctx context.Context, doc documents.Document) (documents.Document, error) {
	if err := s.prepare(&doc); err != nil {
		return documents.Document{}, err
	}
	if err := s.store.CreateDocument(ctx, &doc); err != nil {
		return documents.Document{}, fmt.Errorf("save document: %w", err)
	}
	s.publish(ctx, doc.ID, doc.Kind, doc.Version, amqp.ActionUpsert)
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, kind documents.Kind, id int64) (documents.Document, error) {
	return s.store.GetDocument(ctx, kind, id)
}

// List returns every live document of kind; an empty kind lists all.
func (s *DocumentService) List(ctx context.Context, kind documents.Kind) ([]documents.Document, error) {
	return s.store.ListDocuments(ctx, kind)
}

// Update replaces a stored document. doc.Version, when set, must match the
// stored version.
func (s *DocumentService) Update(ctx context.Context, doc documents.Document) (documents.Document, error) {
	if err := s.prepare(&doc); err != nil {
		return documents.Document{}, err
	}
	if err := s.store.UpdateDocument(ctx, &doc); err != nil {
		return documents.Document{}, fmt.Errorf("update document: %w", err)
	}
	s.publish(ctx, doc.ID, doc.Kind, doc.Version, amqp.ActionUpsert)
	return doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, kind documents.Kind, id int64) error {
	version, err := s.store.SoftDeleteDocument(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}
	s.publish(ctx, id, kind, version, amqp.ActionDelete)
	return nil
}

// Settle marks the pending expense line identified by key as paid.
func (s *DocumentService) Settle(ctx context.Context, kind documents.Kind, id int64, key string) (documents.Document, error) {
	doc, err := s.store.GetDocument(ctx, kind, id)
	if err != nil {
		return documents.Document{}, err
	}
	if err := doc.Settle(key); err != nil {
		return documents.Document{}, err
	}
	if err := s.store.UpdateDocument(ctx, &doc); err != nil {
		return documents.Document{}, fmt.Errorf("settle line: %w", err)
	}
	s.publish(ctx, doc.ID, doc.Kind, doc.Version, amqp.ActionUpsert)
	return doc, nil
}

// Summary recomputes a stored document's sheet. An empty currency means the
// document's own reporting currency.
func (s *DocumentService) Summary(ctx context.Context, kind documents.Kind, id int64, currency core.Currency) (documents.Document, documents.Sheet, error) {
	doc, err := s.store.GetDocument(ctx, kind, id)
	if err != nil {
		return documents.Document{}, documents.Sheet{}, err
	}
	if currency == "" {
		return doc, doc.Sheet(), nil
	}
	if !currency.Valid() {
		return documents.Document{}, documents.Sheet{}, invalidCurrency(currency)
	}
	return doc, doc.SheetIn(currency), nil
}

// Preview computes the sheet of an unsaved draft. Only the ledger is
// validated since drafts are usually incomplete.
func (s *DocumentService) Preview(draft documents.Document) (documents.Sheet, error) {
	if draft.ReportingCurrency == "" {
		draft.ReportingCurrency = s.reporting
	}
	if !draft.ReportingCurrency.Valid() {
		return documents.Sheet{}, invalidCurrency(draft.ReportingCurrency)
	}
	if err := documents.ValidateLedger(draft.Ledger); err != nil {
		return documents.Sheet{}, err
	}
	return draft.Sheet(), nil
}

// Dues lists the amounts still owed to suppliers across all documents.
func (s *DocumentService) Dues(ctx context.Context, currency core.Currency) (documents.DuesReport, error) {
	if currency == "" {
		currency = s.reporting
	}
	if !currency.Valid() {
		return documents.DuesReport{}, invalidCurrency(currency)
	}
	docs, err := s.store.ListDocuments(ctx, "")
	if err != nil {
		return documents.DuesReport{}, err
	}
	return documents.BuildDues(docs, currency), nil
}

func (s *DocumentService) prepare(doc *documents.Document) error {
	if doc.ReportingCurrency == "" {
		doc.ReportingCurrency = s.reporting
	}
	if err := documents.Validate(*doc); err != nil {
		return err
	}
	doc.Ledger.AssignKeys()
	return nil
}

func (s *DocumentService) publish(ctx context.Context, id int64, kind documents.Kind, version int64, action string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP publisher not available, skipping change message", "id", id, "kind", kind)
		return
	}
	msg := amqp.NewDocumentChangedMessage(id, kind, version, action)
	if err := s.publisher.PublishDocumentChanged(ctx, msg); err != nil {
		level := slog.LevelError
		if errors.Is(err, amqp.ErrCircuitOpen) {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Failed to publish document change",
			"id", id, "kind", kind, "version", version, "action", action, "error", err)
	}
}

func invalidCurrency(c core.Currency) error {
	return &documents.ValidationError{Fields: []documents.FieldError{
		{Field: "currency", Message: fmt.Sprintf("unsupported currency %q", c)},
	}}
}
