// Package report builds the printable model of a document: what the voucher
// and invoice renderers draw. Every number comes from the document's Sheet;
// nothing here aggregates on its own.
package report

import (
	"math"

	"backoffice/internal/core"
	"backoffice/internal/documents"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const notANumber = "n/a"

var printer = message.NewPrinter(language.English)

type (
	// Amount is a figure in the report currency. Fixed is rounded half away
	// from zero to two places; Display adds thousands separators for print.
	Amount struct {
		Value   float64 `json:"value"`
		Fixed   string  `json:"fixed"`
		Display string  `json:"display"`
	}

	Row struct {
		Label    string      `json:"label"`
		Supplier string      `json:"supplier,omitempty"`
		Status   core.Status `json:"status,omitempty"`
		Original string      `json:"original"`
		Amount   Amount      `json:"amount"`
	}

	Section struct {
		Category   core.Category `json:"category"`
		Title      string        `json:"title"`
		Kind       core.Kind     `json:"kind"`
		Rows       []Row         `json:"rows"`
		Sum        Amount        `json:"sum"`
		PendingSum Amount        `json:"pending_sum"`
	}

	Totals struct {
		Income          Amount `json:"income"`
		Expenses        Amount `json:"expenses"`
		NetProfit       Amount `json:"net_profit"`
		OwedToSuppliers Amount `json:"owed_to_suppliers"`
		// Margin is empty when the document has no income.
		Margin string `json:"margin,omitempty"`
	}

	Report struct {
		Reference   string         `json:"reference"`
		Client      string         `json:"client,omitempty"`
		Kind        documents.Kind `json:"kind"`
		Date        string         `json:"date,omitempty"`
		Currency    core.Currency  `json:"currency"`
		Sections    []Section      `json:"sections"`
		Totals      Totals         `json:"totals"`
		Outstanding *Amount        `json:"outstanding,omitempty"`
	}
)

// Build lays out doc for printing. sheet must have been computed from doc;
// its currency is the report currency.
func Build(doc documents.Document, sheet documents.Sheet) Report {
	rows := map[core.Category][]Row{}
	for _, line := range doc.Ledger.Lines() {
		rows[line.Category] = append(rows[line.Category], Row{
			Label:    line.Label,
			Supplier: line.Supplier,
			Status:   line.Status,
			Original: original(line.Money),
			Amount:   amount(line.Money.In(sheet.Currency)),
		})
	}

	kinds := core.DefaultKinds()
	r := Report{
		Reference: doc.Reference,
		Client:    doc.Client,
		Kind:      doc.Kind,
		Date:      doc.Date,
		Currency:  sheet.Currency,
		Sections:  make([]Section, 0, len(core.Categories())),
	}
	for _, cat := range core.Categories() {
		t := sheet.Categories[cat]
		r.Sections = append(r.Sections, Section{
			Category:   cat,
			Title:      cat.Label(),
			Kind:       kinds[cat],
			Rows:       rows[cat],
			Sum:        amount(t.Sum),
			PendingSum: amount(t.PendingSum),
		})
	}

	s := sheet.Summary
	r.Totals = Totals{
		Income:          amount(s.TotalIncome),
		Expenses:        amount(s.TotalExpenses),
		NetProfit:       amount(s.NetProfit),
		OwedToSuppliers: amount(s.TotalOwedToSuppliers),
	}
	if m, ok := Margin(s); ok {
		r.Totals.Margin = decimal.NewFromFloat(m * 100).StringFixed(1) + "%"
	}
	if sheet.Outstanding != nil {
		o := amount(*sheet.Outstanding)
		r.Outstanding = &o
	}
	return r
}

// Margin returns net profit as a fraction of income. It reports false when
// income is zero or either figure is not a finite number.
func Margin(s core.FinancialSummary) (float64, bool) {
	if s.TotalIncome == 0 || !finite(s.TotalIncome) || !finite(s.NetProfit) {
		return 0, false
	}
	return s.NetProfit / s.TotalIncome, true
}

func amount(v float64) Amount {
	return Amount{Value: v, Fixed: Format(v), Display: Group(v)}
}

// Format renders v with two decimals. Non-finite values, which the
// arithmetic lets through, render as "n/a".
func Format(v float64) string {
	if !finite(v) {
		return notANumber
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Group renders v rounded to two decimals with thousands separators.
func Group(v float64) string {
	if !finite(v) {
		return notANumber
	}
	rounded := decimal.NewFromFloat(v).Round(2).InexactFloat64()
	return printer.Sprint(number.Decimal(rounded, number.Scale(2)))
}

func original(m core.Money) string {
	s := Format(m.Amount) + " " + m.Currency.String()
	if m.Currency == core.USD && core.UsableRate(m.ExchangeRate) {
		s += " @ " + decimal.NewFromFloat(m.ExchangeRate).String()
	}
	return s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
