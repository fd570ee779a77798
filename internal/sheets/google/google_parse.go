package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/documents"
	ports "backoffice/internal/sheets"
)

// Column layout, A to N.
const lastColumn = "N"

const (
	colKey = iota
	colKind
	colID
	colVersion
	colReference
	colClient
	colDate
	colCurrency
	colIncome
	colExpenses
	colNetProfit
	colOwed
	colOutstanding
	colUpdatedAt
)

func header() []any {
	return []any{"Key", "Kind", "Document", "Version", "Reference", "Client", "Date", "Currency",
		"Income", "Expenses", "Net profit", "Owed to suppliers", "Outstanding", "Updated at"}
}

func toValues(r ports.SummaryRow) []any {
	outstanding := any("")
	if r.Outstanding != nil {
		outstanding = *r.Outstanding
	}
	updated := ""
	if !r.UpdatedAt.IsZero() {
		updated = r.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return []any{
		r.Key(), string(r.Kind), r.DocumentID, r.Version, r.Reference, r.Client, r.Date,
		string(r.Currency), r.Income, r.Expenses, r.NetProfit, r.OwedToSuppliers, outstanding, updated,
	}
}

// findRow returns the 1-based sheet row holding key and the version stored
// there. The header row is never matched.
func findRow(values [][]any, key string) (int, int64, bool) {
	for i, v := range values {
		if i == 0 || len(v) == 0 || cell(v, colKey) != key {
			continue
		}
		version, _ := parseInt(cell(v, colVersion))
		return i + 1, version, true
	}
	return 0, 0, false
}

func parseRow(v []any) (ports.SummaryRow, error) {
	var r ports.SummaryRow
	kind, err := documents.ParseKind(cell(v, colKind))
	if err != nil {
		return r, err
	}
	r.Kind = kind
	if r.DocumentID, err = parseInt(cell(v, colID)); err != nil {
		return r, fmt.Errorf("document id: %w", err)
	}
	if r.Version, err = parseInt(cell(v, colVersion)); err != nil {
		return r, fmt.Errorf("version: %w", err)
	}
	r.Reference = cell(v, colReference)
	r.Client = cell(v, colClient)
	r.Date = cell(v, colDate)
	r.Currency = core.Currency(cell(v, colCurrency))

	for col, dst := range map[int]*float64{
		colIncome:    &r.Income,
		colExpenses:  &r.Expenses,
		colNetProfit: &r.NetProfit,
		colOwed:      &r.OwedToSuppliers,
	} {
		if *dst, err = parseFloat(cell(v, col)); err != nil {
			return r, fmt.Errorf("column %d: %w", col+1, err)
		}
	}
	if s := cell(v, colOutstanding); s != "" {
		o, err := parseFloat(s)
		if err != nil {
			return r, fmt.Errorf("outstanding: %w", err)
		}
		r.Outstanding = &o
	}
	if s := cell(v, colUpdatedAt); s != "" {
		if r.UpdatedAt, err = time.Parse(time.RFC3339, s); err != nil {
			return r, fmt.Errorf("updated at: %w", err)
		}
	}
	return r, nil
}

func cell(v []any, i int) string {
	if i >= len(v) || v[i] == nil {
		return ""
	}
	switch x := v[i].(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
