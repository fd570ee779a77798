package worker

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"backoffice/internal/amqp"
	"backoffice/internal/core"
	"backoffice/internal/documents"
	"backoffice/internal/observability"
	"backoffice/internal/recordclient"
	"backoffice/internal/sheets/memory"
	"backoffice/internal/storage"
)

type ack struct{ id, version int64 }

type fakeSource struct {
	docs map[int64]documents.Document
	acks []ack
	err  error
}

func (f *fakeSource) GetDocument(_ context.Context, kind documents.Kind, id int64) (documents.Document, error) {
	if f.err != nil {
		return documents.Document{}, f.err
	}
	doc, ok := f.docs[id]
	if !ok || doc.Kind != kind {
		return documents.Document{}, &recordclient.APIError{Status: http.StatusNotFound, Title: "Not Found"}
	}
	return doc, nil
}

func (f *fakeSource) AckSync(_ context.Context, id, version int64) error {
	f.acks = append(f.acks, ack{id, version})
	return nil
}

func invoice() documents.Document {
	return documents.Document{
		ID:                5,
		Kind:              documents.KindInvoice,
		Reference:         "INV-5",
		ReportingCurrency: core.EGP,
		Version:           3,
		Invoice: &documents.InvoiceDetails{
			Number:      "2026/005",
			MainInvoice: core.Money{Amount: 500, Currency: core.USD, ExchangeRate: 50},
			PaidAmount:  documents.Payment{Amount: 5000, Currency: core.EGP},
		},
		Ledger: documents.Ledger{
			MainTransaction: []documents.IncomeLine{{Description: "Tour", Amount: core.Money{Amount: 500, Currency: core.USD, ExchangeRate: 50}}},
			Guides:          []documents.GuideLine{{Guide: "Ali", Cost: core.Money{Amount: 4000, Currency: core.EGP}, Status: core.StatusPending}},
		},
	}
}

func TestHandleUpsertExportsLatestVersion(t *testing.T) {
	source := &fakeSource{docs: map[int64]documents.Document{5: invoice()}}
	store := memory.New()
	w := NewExportWorker(source, store, observability.NewMetrics())

	msg := amqp.NewDocumentChangedMessage(5, documents.KindInvoice, 2, amqp.ActionUpsert)
	if err := w.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	rows, _ := store.ListSummaries(context.Background())
	if len(rows) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	row := rows[0]
	if row.Version != 3 || row.Income != 25000 || row.Expenses != 4000 || row.NetProfit != 21000 || row.OwedToSuppliers != 4000 {
		t.Fatalf("row = %+v", row)
	}
	if row.Outstanding == nil || *row.Outstanding != 20000 {
		t.Fatalf("outstanding = %v", row.Outstanding)
	}
	if len(source.acks) != 1 || source.acks[0] != (ack{5, 3}) {
		t.Fatalf("acks = %+v", source.acks)
	}
}

func TestHandleDeleteRemovesRow(t *testing.T) {
	source := &fakeSource{docs: map[int64]documents.Document{5: invoice()}}
	store := memory.New()
	w := NewExportWorker(source, store, nil)
	ctx := context.Background()

	if err := w.Export(ctx, storage.PendingDocument{ID: 5, Kind: documents.KindInvoice, Version: 3}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if err := w.Handle(ctx, amqp.NewDocumentChangedMessage(5, documents.KindInvoice, 4, amqp.ActionDelete)); err != nil {
		t.Fatalf("Handle delete: %v", err)
	}
	rows, _ := store.ListSummaries(ctx)
	if len(rows) != 0 {
		t.Fatalf("rows after delete = %+v", rows)
	}
	if last := source.acks[len(source.acks)-1]; last != (ack{5, 4}) {
		t.Fatalf("delete ack = %+v", last)
	}
}

func TestExportVanishedDocument(t *testing.T) {
	source := &fakeSource{docs: map[int64]documents.Document{}}
	w := NewExportWorker(source, memory.New(), nil)

	if err := w.Export(context.Background(), storage.PendingDocument{ID: 8, Kind: documents.KindBooking, Version: 1}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(source.acks) != 0 {
		t.Fatalf("a vanished document must not be acked: %+v", source.acks)
	}
}

func TestExportSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("connection refused")}
	w := NewExportWorker(source, memory.New(), nil)
	if err := w.Export(context.Background(), storage.PendingDocument{ID: 1, Kind: documents.KindBooking, Version: 1}); err == nil {
		t.Fatal("expected error")
	}
	if len(source.acks) != 0 {
		t.Fatal("failed export must not be acked")
	}
}
