package core

// CategoryTotals is derived from a category's line items on every read.
type CategoryTotals struct {
	Sum        float64 `json:"sum"`
	PendingSum float64 `json:"pending_sum"`
}

// Selector resolves the category-specific amount field and the payment
// status of a line item.
type Selector[T any] func(item T) (Money, Status)

// Aggregate sums the normalized amounts of items into Sum and, for items whose
// status is pending, into PendingSum. Items are summed as distinct lines even
// when they look identical. An empty list yields the zero value.
func Aggregate[T any](items []T, sel Selector[T], reporting Currency) CategoryTotals {
	var totals CategoryTotals
	for _, item := range items {
		money, status := sel(item)
		amount := money.In(reporting)
		totals.Sum += amount
		if status == StatusPending {
			totals.PendingSum += amount
		}
	}
	return totals
}

// Add combines two totals computed in the same reporting currency.
func (t CategoryTotals) Add(other CategoryTotals) CategoryTotals {
	return CategoryTotals{
		Sum:        t.Sum + other.Sum,
		PendingSum: t.PendingSum + other.PendingSum,
	}
}
