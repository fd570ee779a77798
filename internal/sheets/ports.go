// Package sheets defines where document summaries are exported for the
// accountants' spreadsheet. Implementations live in the google and memory
// subpackages.
package sheets

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/documents"
)

// SummaryRow is one exported line: the identity of a document version and
// its recomputed grand totals.
type SummaryRow struct {
	Kind            documents.Kind `json:"kind"`
	DocumentID      int64          `json:"document_id"`
	Version         int64          `json:"version"`
	Reference       string         `json:"reference"`
	Client          string         `json:"client"`
	Date            string         `json:"date"`
	Currency        core.Currency  `json:"currency"`
	Income          float64        `json:"income"`
	Expenses        float64        `json:"expenses"`
	NetProfit       float64        `json:"net_profit"`
	OwedToSuppliers float64        `json:"owed_to_suppliers"`
	Outstanding     *float64       `json:"outstanding,omitempty"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Ports for outbound adapters.
type (
	SummaryWriter interface {
		// UpsertSummary inserts or replaces the row of row's document. A row
		// older than the stored one is ignored.
		UpsertSummary(ctx context.Context, row SummaryRow) error
		// DeleteSummary removes the row of a document. Missing rows are not
		// an error.
		DeleteSummary(ctx context.Context, kind documents.Kind, id int64) error
	}

	SummaryLister interface {
		ListSummaries(ctx context.Context) ([]SummaryRow, error)
	}
)

// NewSummaryRow flattens a document and its sheet into an export row.
func NewSummaryRow(doc documents.Document, sheet documents.Sheet) SummaryRow {
	return SummaryRow{
		Kind:            doc.Kind,
		DocumentID:      doc.ID,
		Version:         doc.Version,
		Reference:       doc.Reference,
		Client:          doc.Client,
		Date:            doc.Date,
		Currency:        sheet.Currency,
		Income:          sheet.Summary.TotalIncome,
		Expenses:        sheet.Summary.TotalExpenses,
		NetProfit:       sheet.Summary.NetProfit,
		OwedToSuppliers: sheet.Summary.TotalOwedToSuppliers,
		Outstanding:     sheet.Outstanding,
		UpdatedAt:       doc.UpdatedAt,
	}
}

// RowKey identifies a document across kinds, e.g. "invoice/12".
func RowKey(kind documents.Kind, id int64) string {
	return fmt.Sprintf("%s/%d", kind, id)
}

func (r SummaryRow) Key() string {
	return RowKey(r.Kind, r.DocumentID)
}
