package core

import "sort"

// FinancialSummary is the grand total of a document's ledger. It has no
// identity: it is recomputed from the current line items on every read.
type FinancialSummary struct {
	TotalIncome          float64 `json:"total_income"`
	TotalExpenses        float64 `json:"total_expenses"`
	NetProfit            float64 `json:"net_profit"`
	TotalOwedToSuppliers float64 `json:"total_owed_to_suppliers"`
}

// Summarize combines category totals into grand totals. Categories missing
// from kinds contribute nothing. Only expense categories add to the amount
// owed to suppliers. NetProfit may be negative. No ratios are computed here:
// callers deriving margins must guard against a zero TotalIncome.
func Summarize(totals map[Category]CategoryTotals, kinds map[Category]Kind) FinancialSummary {
	var s FinancialSummary
	for _, cat := range summaryOrder(totals) {
		t := totals[cat]
		switch kinds[cat] {
		case Income:
			s.TotalIncome += t.Sum
		case Expense:
			s.TotalExpenses += t.Sum
			s.TotalOwedToSuppliers += t.PendingSum
		}
	}
	s.NetProfit = s.TotalIncome - s.TotalExpenses
	return s
}

// summaryOrder lists the keys of totals in a stable order: the fixed
// categories first, then any other key sorted by name. Float addition is not
// associative, so the order fixes the result.
func summaryOrder(totals map[Category]CategoryTotals) []Category {
	order := make([]Category, 0, len(totals))
	known := make(map[Category]bool, len(totals))
	for _, cat := range Categories() {
		known[cat] = true
		if _, ok := totals[cat]; ok {
			order = append(order, cat)
		}
	}
	var extra []Category
	for cat := range totals {
		if !known[cat] {
			extra = append(extra, cat)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(order, extra...)
}

// Outstanding returns what the client still owes on an invoice.
// Extra incoming income does not change the balance.
func Outstanding(mainInvoice, paid float64) float64 {
	return mainInvoice - paid
}
