package core

const (
	StatusNone    Status = ""
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	MainTransaction Category = "main_transaction"
	ExtraIncoming   Category = "extra_incoming"
	Accommodation   Category = "accommodation"
	DomesticFlights Category = "domestic_flights"
	EntranceTickets Category = "entrance_tickets"
	Guides          Category = "guides"
	Transportation  Category = "transportation"
)

type (
	// Status is the payment state of an expense line. Income lines carry
	// StatusNone.
	Status string

	// Kind tells whether a category counts as income or expense.
	Kind string

	Category string
)

// Valid reports whether s is a known status, including StatusNone.
func (s Status) Valid() bool {
	switch s {
	case StatusNone, StatusPending, StatusPaid:
		return true
	default:
		return false
	}
}

// Categories lists every ledger category in display order.
func Categories() []Category {
	return []Category{
		MainTransaction,
		ExtraIncoming,
		Accommodation,
		DomesticFlights,
		EntranceTickets,
		Guides,
		Transportation,
	}
}

// DefaultKinds returns the fixed category to kind mapping used by bookings,
// invoices and accounting entries.
func DefaultKinds() map[Category]Kind {
	return map[Category]Kind{
		MainTransaction: Income,
		ExtraIncoming:   Income,
		Accommodation:   Expense,
		DomesticFlights: Expense,
		EntranceTickets: Expense,
		Guides:          Expense,
		Transportation:  Expense,
	}
}

// Label returns a human readable name for reports.
func (c Category) Label() string {
	switch c {
	case MainTransaction:
		return "Main transaction"
	case ExtraIncoming:
		return "Extra incoming"
	case Accommodation:
		return "Accommodation"
	case DomesticFlights:
		return "Domestic flights"
	case EntranceTickets:
		return "Entrance tickets"
	case Guides:
		return "Guides"
	case Transportation:
		return "Transportation"
	default:
		return string(c)
	}
}
