package documents

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"backoffice/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalid wraps every boundary validation failure.
var ErrInvalid = errors.New("invalid document")

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of a document.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid document: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterStructValidation(validateMoney, core.Money{})
		validate.RegisterStructValidation(validatePayment, Payment{})
	})
	return validate
}

// MaxAmount bounds amounts and exchange rates so every converted total
// stays finite.
const MaxAmount = 1e12

const maxAmountParam = "1e12"

// validateMoney rejects amounts the core would happily propagate: the core
// never validates, so the input boundary has to.
func validateMoney(sl validator.StructLevel) {
	m := sl.Current().Interface().(core.Money)
	switch {
	case math.IsNaN(m.Amount) || math.IsInf(m.Amount, 0) || m.Amount <= 0:
		sl.ReportError(m.Amount, "Amount", "amount", "gt", "0")
	case m.Amount > MaxAmount:
		sl.ReportError(m.Amount, "Amount", "amount", "lte", maxAmountParam)
	}
	checkCurrency(sl, m)
}

func validatePayment(sl validator.StructLevel) {
	m := sl.Current().Interface().(Payment).Money()
	switch {
	case math.IsNaN(m.Amount) || math.IsInf(m.Amount, 0) || m.Amount < 0:
		sl.ReportError(m.Amount, "Amount", "amount", "gte", "0")
	case m.Amount > MaxAmount:
		sl.ReportError(m.Amount, "Amount", "amount", "lte", maxAmountParam)
	}
	checkCurrency(sl, m)
}

func checkCurrency(sl validator.StructLevel, m core.Money) {
	if !m.Currency.Valid() {
		sl.ReportError(m.Currency, "Currency", "currency", "oneof", "EGP USD")
	}
	switch {
	case math.IsNaN(m.ExchangeRate) || math.IsInf(m.ExchangeRate, 0) || m.ExchangeRate < 0:
		sl.ReportError(m.ExchangeRate, "ExchangeRate", "exchange_rate", "gte", "0")
	case m.ExchangeRate > MaxAmount:
		sl.ReportError(m.ExchangeRate, "ExchangeRate", "exchange_rate", "lte", maxAmountParam)
	}
	if m.ExchangeRate != 0 && m.Currency != core.USD {
		sl.ReportError(m.ExchangeRate, "ExchangeRate", "exchange_rate", "usd_only", "")
	}
}

// Validate checks a document at the input boundary.
func Validate(d Document) error {
	err := validatorInstance().Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   strings.TrimPrefix(fe.Namespace(), "Document."),
			Message: describe(fe),
		})
	}
	return out
}

// ValidateLedger checks an unsaved ledger, as posted by an editor asking for
// a live recomputation.
func ValidateLedger(l Ledger) error {
	return Validate(Document{Kind: KindAccounting, Reference: "draft", ReportingCurrency: core.EGP, Ledger: l})
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "usd_only":
		return "is only allowed on USD amounts"
	default:
		return "failed " + fe.Tag()
	}
}

func parseKey(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: line key %q", ErrInvalid, s)
	}
	return id, nil
}
