package documents

import (
	"backoffice/internal/core"

	"github.com/google/uuid"
)

// Ledger holds the line items of a document, one slice per category.
type Ledger struct {
	MainTransaction []IncomeLine        `json:"main_transaction" validate:"dive"`
	ExtraIncoming   []IncomeLine        `json:"extra_incoming" validate:"dive"`
	Accommodation   []AccommodationLine `json:"accommodation" validate:"dive"`
	DomesticFlights []FlightLine        `json:"domestic_flights" validate:"dive"`
	EntranceTickets []TicketLine        `json:"entrance_tickets" validate:"dive"`
	Guides          []GuideLine         `json:"guides" validate:"dive"`
	Transportation  []TransportLine     `json:"transportation" validate:"dive"`
}

// DueLine is a pending expense line, as listed on the dues screen.
type DueLine struct {
	Key      uuid.UUID     `json:"key"`
	Category core.Category `json:"category"`
	Label    string        `json:"label"`
	Supplier string        `json:"supplier"`
	Original core.Money    `json:"original"`
	Amount   float64       `json:"amount"`
}

// Totals aggregates every category in the reporting currency.
func (l Ledger) Totals(reporting core.Currency) map[core.Category]core.CategoryTotals {
	return map[core.Category]core.CategoryTotals{
		core.MainTransaction: core.Aggregate(l.MainTransaction, selectIncome, reporting),
		core.ExtraIncoming:   core.Aggregate(l.ExtraIncoming, selectIncome, reporting),
		core.Accommodation:   core.Aggregate(l.Accommodation, selectAccommodation, reporting),
		core.DomesticFlights: core.Aggregate(l.DomesticFlights, selectFlight, reporting),
		core.EntranceTickets: core.Aggregate(l.EntranceTickets, selectTicket, reporting),
		core.Guides:          core.Aggregate(l.Guides, selectGuide, reporting),
		core.Transportation:  core.Aggregate(l.Transportation, selectTransport, reporting),
	}
}

// Summary recomputes the grand totals from the current line items.
func (l Ledger) Summary(reporting core.Currency) core.FinancialSummary {
	return core.Summarize(l.Totals(reporting), core.DefaultKinds())
}

// AssignKeys gives every line without a key a fresh one. Keys are only used
// to address lines in list operations; they carry no meaning.
func (l *Ledger) AssignKeys() {
	for i := range l.MainTransaction {
		ensureKey(&l.MainTransaction[i].Key)
	}
	for i := range l.ExtraIncoming {
		ensureKey(&l.ExtraIncoming[i].Key)
	}
	for i := range l.Accommodation {
		ensureKey(&l.Accommodation[i].Key)
	}
	for i := range l.DomesticFlights {
		ensureKey(&l.DomesticFlights[i].Key)
	}
	for i := range l.EntranceTickets {
		ensureKey(&l.EntranceTickets[i].Key)
	}
	for i := range l.Guides {
		ensureKey(&l.Guides[i].Key)
	}
	for i := range l.Transportation {
		ensureKey(&l.Transportation[i].Key)
	}
}

func ensureKey(k *uuid.UUID) {
	if *k == uuid.Nil {
		*k = uuid.New()
	}
}

// Settle marks the pending expense line with the given key as paid.
// It reports false when no pending expense line has that key.
func (l *Ledger) Settle(key uuid.UUID) bool {
	for i := range l.Accommodation {
		if settle(l.Accommodation[i].Key, &l.Accommodation[i].Status, key) {
			return true
		}
	}
	for i := range l.DomesticFlights {
		if settle(l.DomesticFlights[i].Key, &l.DomesticFlights[i].Status, key) {
			return true
		}
	}
	for i := range l.EntranceTickets {
		if settle(l.EntranceTickets[i].Key, &l.EntranceTickets[i].Status, key) {
			return true
		}
	}
	for i := range l.Guides {
		if settle(l.Guides[i].Key, &l.Guides[i].Status, key) {
			return true
		}
	}
	for i := range l.Transportation {
		if settle(l.Transportation[i].Key, &l.Transportation[i].Status, key) {
			return true
		}
	}
	return false
}

func settle(lineKey uuid.UUID, status *core.Status, key uuid.UUID) bool {
	if lineKey != key || *status != core.StatusPending {
		return false
	}
	*status = core.StatusPaid
	return true
}

// LineView is a category-independent view of a single line item.
type LineView struct {
	Key      uuid.UUID     `json:"key"`
	Category core.Category `json:"category"`
	Label    string        `json:"label"`
	Supplier string        `json:"supplier,omitempty"`
	Status   core.Status   `json:"status,omitempty"`
	Money    core.Money    `json:"money"`
}

// Lines flattens the ledger in category display order.
func (l Ledger) Lines() []LineView {
	var out []LineView
	for _, in := range l.MainTransaction {
		out = append(out, LineView{Key: in.Key, Category: core.MainTransaction, Label: in.Description, Money: in.Amount})
	}
	for _, in := range l.ExtraIncoming {
		out = append(out, LineView{Key: in.Key, Category: core.ExtraIncoming, Label: in.Description, Money: in.Amount})
	}
	for _, a := range l.Accommodation {
		out = append(out, LineView{Key: a.Key, Category: core.Accommodation, Label: a.Hotel, Supplier: a.Supplier, Status: a.Status, Money: a.TotalAmount})
	}
	for _, f := range l.DomesticFlights {
		out = append(out, LineView{Key: f.Key, Category: core.DomesticFlights, Label: f.Route, Supplier: f.Supplier, Status: f.Status, Money: f.Cost})
	}
	for _, t := range l.EntranceTickets {
		out = append(out, LineView{Key: t.Key, Category: core.EntranceTickets, Label: t.Site, Supplier: t.Supplier, Status: t.Status, Money: t.Amount})
	}
	for _, g := range l.Guides {
		out = append(out, LineView{Key: g.Key, Category: core.Guides, Label: g.Guide, Supplier: g.Supplier, Status: g.Status, Money: g.Cost})
	}
	for _, t := range l.Transportation {
		out = append(out, LineView{Key: t.Key, Category: core.Transportation, Label: t.Vehicle, Supplier: t.Supplier, Status: t.Status, Money: t.Cost})
	}
	return out
}

// PendingLines lists pending expense lines with their amounts normalized
// into the reporting currency.
func (l Ledger) PendingLines(reporting core.Currency) []DueLine {
	kinds := core.DefaultKinds()
	var out []DueLine
	for _, line := range l.Lines() {
		if kinds[line.Category] != core.Expense || line.Status != core.StatusPending {
			continue
		}
		out = append(out, DueLine{
			Key:      line.Key,
			Category: line.Category,
			Label:    line.Label,
			Supplier: line.Supplier,
			Original: line.Money,
			Amount:   line.Money.In(reporting),
		})
	}
	return out
}
