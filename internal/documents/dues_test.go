package documents

import (
	"testing"

	"backoffice/internal/core"
)

func TestBuildDues(t *testing.T) {
	first := Document{ID: 1, Kind: KindBooking, Reference: "BK-1", Ledger: sampleLedger()}
	second := Document{ID: 2, Kind: KindAccounting, Reference: "AC-7", Ledger: Ledger{
		Guides: []GuideLine{
			{Guide: "Omar", Supplier: "Guides Co", Cost: core.Money{Amount: 20, Currency: core.USD, ExchangeRate: 50}, Status: core.StatusPending},
		},
		EntranceTickets: []TicketLine{
			{Site: "Karnak", Amount: core.Money{Amount: 600, Currency: core.EGP}, Status: core.StatusPending},
		},
	}}

	report := BuildDues([]Document{first, second}, core.EGP)

	if report.Currency != core.EGP {
		t.Fatalf("currency = %s", report.Currency)
	}
	wantTotal := first.Ledger.Summary(core.EGP).TotalOwedToSuppliers + second.Ledger.Summary(core.EGP).TotalOwedToSuppliers
	if report.Total != wantTotal {
		t.Fatalf("total = %v, want %v", report.Total, wantTotal)
	}

	names := make([]string, 0, len(report.Suppliers))
	for _, s := range report.Suppliers {
		names = append(names, s.Supplier)
	}
	want := []string{"Guides Co", "Luxor Hotels", UnassignedSupplier}
	if len(names) != len(want) {
		t.Fatalf("suppliers = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("suppliers = %v, want %v", names, want)
		}
	}

	guides := report.Suppliers[0]
	if guides.Total != 1800 || len(guides.Lines) != 2 {
		t.Fatalf("Guides Co dues = %+v", guides)
	}
	if guides.Lines[1].DocumentID != 2 || guides.Lines[1].Reference != "AC-7" {
		t.Fatalf("second guide line should reference AC-7: %+v", guides.Lines[1])
	}
}

func TestBuildDuesEmpty(t *testing.T) {
	report := BuildDues(nil, core.USD)
	if report.Total != 0 || report.Suppliers == nil || len(report.Suppliers) != 0 {
		t.Fatalf("empty report = %+v", report)
	}
}
