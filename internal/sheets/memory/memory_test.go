package memory

import (
	"context"
	"testing"

	"backoffice/internal/documents"
	ports "backoffice/internal/sheets"
)

func TestStoreUpsertDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	rows := []ports.SummaryRow{
		{Kind: documents.KindInvoice, DocumentID: 2, Version: 1, Income: 100},
		{Kind: documents.KindBooking, DocumentID: 1, Version: 1, Income: 50},
		{Kind: documents.KindInvoice, DocumentID: 2, Version: 3, Income: 300},
		{Kind: documents.KindInvoice, DocumentID: 2, Version: 2, Income: 200},
	}
	for _, r := range rows {
		if err := s.UpsertSummary(ctx, r); err != nil {
			t.Fatalf("UpsertSummary: %v", err)
		}
	}

	got, _ := s.ListSummaries(ctx)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].Key() != "booking/1" || got[1].Key() != "invoice/2" {
		t.Fatalf("unexpected order %s, %s", got[0].Key(), got[1].Key())
	}
	if got[1].Version != 3 || got[1].Income != 300 {
		t.Fatalf("stale upsert overwrote newer row: %+v", got[1])
	}

	if err := s.DeleteSummary(ctx, documents.KindInvoice, 2); err != nil {
		t.Fatalf("DeleteSummary: %v", err)
	}
	if err := s.DeleteSummary(ctx, documents.KindInvoice, 99); err != nil {
		t.Fatalf("deleting a missing row: %v", err)
	}
	got, _ = s.ListSummaries(ctx)
	if len(got) != 1 {
		t.Fatalf("got %d rows after delete, want 1", len(got))
	}
}
