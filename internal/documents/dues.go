package documents

import (
	"sort"

	"backoffice/internal/core"
)

// UnassignedSupplier groups pending lines recorded without a supplier.
const UnassignedSupplier = "Unassigned"

type (
	DueEntry struct {
		DocumentID int64  `json:"document_id"`
		Kind       Kind   `json:"kind"`
		Reference  string `json:"reference"`
		DueLine
	}

	SupplierDues struct {
		Supplier string     `json:"supplier"`
		Total    float64    `json:"total"`
		Lines    []DueEntry `json:"lines"`
	}

	// DuesReport lists everything still owed to suppliers across documents.
	DuesReport struct {
		Currency  core.Currency  `json:"currency"`
		Suppliers []SupplierDues `json:"suppliers"`
		Total     float64        `json:"total"`
	}
)

// BuildDues groups the pending expense lines of docs by supplier. The grand
// total equals the sum of every document's TotalOwedToSuppliers in the same
// reporting currency.
func BuildDues(docs []Document, reporting core.Currency) DuesReport {
	bySupplier := map[string]*SupplierDues{}
	report := DuesReport{Currency: reporting, Suppliers: []SupplierDues{}}
	for _, d := range docs {
		for _, line := range d.Ledger.PendingLines(reporting) {
			name := line.Supplier
			if name == "" {
				name = UnassignedSupplier
			}
			sd, ok := bySupplier[name]
			if !ok {
				sd = &SupplierDues{Supplier: name}
				bySupplier[name] = sd
			}
			sd.Lines = append(sd.Lines, DueEntry{
				DocumentID: d.ID,
				Kind:       d.Kind,
				Reference:  d.Reference,
				DueLine:    line,
			})
			sd.Total += line.Amount
			report.Total += line.Amount
		}
	}
	for _, sd := range bySupplier {
		report.Suppliers = append(report.Suppliers, *sd)
	}
	sort.Slice(report.Suppliers, func(i, j int) bool {
		return report.Suppliers[i].Supplier < report.Suppliers[j].Supplier
	})
	return report
}
