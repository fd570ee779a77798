// Package documents holds the bookings, invoices and accounting entries the
// back office edits. Each document owns a Ledger; every total shown to the
// user is recomputed from it through package core.
package documents

import (
	"errors"
	"time"

	"backoffice/internal/core"
)

const (
	KindBooking    Kind = "booking"
	KindInvoice    Kind = "invoice"
	KindAccounting Kind = "accounting"
)

var (
	ErrUnknownKind  = errors.New("unknown document kind")
	ErrLineNotFound = errors.New("no pending expense line with that key")
)

type (
	Kind string

	BookingDetails struct {
		Arrival     string `json:"arrival,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Departure   string `json:"departure,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Pax         int    `json:"pax" validate:"gte=0"`
		Nationality string `json:"nationality,omitempty" validate:"max=100"`
		Notes       string `json:"notes,omitempty" validate:"max=2000"`
	}

	InvoiceDetails struct {
		Number      string     `json:"number" validate:"required,max=64"`
		MainInvoice core.Money `json:"main_invoice"`
		PaidAmount  Payment    `json:"paid_amount"`
	}

	// Payment is money already received against an invoice. Unlike line
	// amounts it may be zero.
	Payment core.Money

	Document struct {
		ID                int64           `json:"id"`
		Kind              Kind            `json:"kind" validate:"required,oneof=booking invoice accounting"`
		Reference         string          `json:"reference" validate:"required,max=64"`
		Client            string          `json:"client,omitempty" validate:"max=200"`
		Date              string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
		ReportingCurrency core.Currency   `json:"reporting_currency" validate:"required,oneof=EGP USD"`
		Booking           *BookingDetails `json:"booking,omitempty" validate:"required_if=Kind booking"`
		Invoice           *InvoiceDetails `json:"invoice,omitempty" validate:"required_if=Kind invoice"`
		Ledger            Ledger          `json:"ledger"`
		Version           int64           `json:"version"`
		CreatedAt         time.Time       `json:"created_at"`
		UpdatedAt         time.Time       `json:"updated_at"`
	}

	// Sheet is the derived financial view of a document. It is never stored.
	Sheet struct {
		Currency    core.Currency                          `json:"currency"`
		Categories  map[core.Category]core.CategoryTotals `json:"categories"`
		Summary     core.FinancialSummary                  `json:"summary"`
		Outstanding *float64                               `json:"outstanding,omitempty"`
	}
)

// ParseKind accepts both the singular kind and the plural used in URLs.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "booking", "bookings":
		return KindBooking, nil
	case "invoice", "invoices":
		return KindInvoice, nil
	case "accounting":
		return KindAccounting, nil
	default:
		return "", ErrUnknownKind
	}
}

// Money returns the payment as a core amount.
func (p Payment) Money() core.Money {
	return core.Money(p)
}

func (k Kind) String() string {
	return string(k)
}

// Sheet recomputes the document's totals in its reporting currency.
func (d Document) Sheet() Sheet {
	return d.SheetIn(d.ReportingCurrency)
}

// SheetIn recomputes the document's totals in the given currency.
// Invoices also get their outstanding balance, main invoice minus paid amount.
func (d Document) SheetIn(reporting core.Currency) Sheet {
	totals := d.Ledger.Totals(reporting)
	sheet := Sheet{
		Currency:   reporting,
		Categories: totals,
		Summary:    core.Summarize(totals, core.DefaultKinds()),
	}
	if d.Kind == KindInvoice && d.Invoice != nil {
		rest := core.Outstanding(d.Invoice.MainInvoice.In(reporting), d.Invoice.PaidAmount.Money().In(reporting))
		sheet.Outstanding = &rest
	}
	return sheet
}

// Settle marks a pending expense line paid.
func (d *Document) Settle(key string) error {
	id, err := parseKey(key)
	if err != nil {
		return err
	}
	if !d.Ledger.Settle(id) {
		return ErrLineNotFound
	}
	return nil
}
