package documents

import (
	"backoffice/internal/core"

	"github.com/google/uuid"
)

type (
	// IncomeLine is money received from the client. Income lines carry no
	// payment status.
	IncomeLine struct {
		Key         uuid.UUID  `json:"key"`
		Description string     `json:"description" validate:"max=200"`
		Date        string     `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Amount      core.Money `json:"amount"`
	}

	AccommodationLine struct {
		Key         uuid.UUID   `json:"key"`
		Hotel       string      `json:"hotel" validate:"required,max=200"`
		City        string      `json:"city,omitempty" validate:"max=100"`
		CheckIn     string      `json:"check_in,omitempty" validate:"omitempty,datetime=2006-01-02"`
		CheckOut    string      `json:"check_out,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Rooms       int         `json:"rooms,omitempty" validate:"gte=0"`
		Supplier    string      `json:"supplier,omitempty" validate:"max=200"`
		TotalAmount core.Money  `json:"total_amount"`
		Status      core.Status `json:"status" validate:"required,oneof=pending paid"`
	}

	FlightLine struct {
		Key      uuid.UUID   `json:"key"`
		Route    string      `json:"route" validate:"required,max=200"`
		FlightNo string      `json:"flight_no,omitempty" validate:"max=20"`
		Date     string      `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Supplier string      `json:"supplier,omitempty" validate:"max=200"`
		Cost     core.Money  `json:"cost"`
		Status   core.Status `json:"status" validate:"required,oneof=pending paid"`
	}

	TicketLine struct {
		Key      uuid.UUID   `json:"key"`
		Site     string      `json:"site" validate:"required,max=200"`
		Date     string      `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Pax      int         `json:"pax,omitempty" validate:"gte=0"`
		Supplier string      `json:"supplier,omitempty" validate:"max=200"`
		Amount   core.Money  `json:"amount"`
		Status   core.Status `json:"status" validate:"required,oneof=pending paid"`
	}

	GuideLine struct {
		Key      uuid.UUID   `json:"key"`
		Guide    string      `json:"guide" validate:"required,max=200"`
		Language string      `json:"language,omitempty" validate:"max=50"`
		Date     string      `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Supplier string      `json:"supplier,omitempty" validate:"max=200"`
		Cost     core.Money  `json:"cost"`
		Status   core.Status `json:"status" validate:"required,oneof=pending paid"`
	}

	TransportLine struct {
		Key      uuid.UUID   `json:"key"`
		Vehicle  string      `json:"vehicle" validate:"required,max=100"`
		From     string      `json:"from,omitempty" validate:"max=200"`
		To       string      `json:"to,omitempty" validate:"max=200"`
		Date     string      `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Supplier string      `json:"supplier,omitempty" validate:"max=200"`
		Cost     core.Money  `json:"cost"`
		Status   core.Status `json:"status" validate:"required,oneof=pending paid"`
	}
)

// Selectors resolving each line type's amount field.

func selectIncome(l IncomeLine) (core.Money, core.Status) {
	return l.Amount, core.StatusNone
}

func selectAccommodation(l AccommodationLine) (core.Money, core.Status) {
	return l.TotalAmount, l.Status
}

func selectFlight(l FlightLine) (core.Money, core.Status) {
	return l.Cost, l.Status
}

func selectTicket(l TicketLine) (core.Money, core.Status) {
	return l.Amount, l.Status
}

func selectGuide(l GuideLine) (core.Money, core.Status) {
	return l.Cost, l.Status
}

func selectTransport(l TransportLine) (core.Money, core.Status) {
	return l.Cost, l.Status
}
