package domain

import "sort"

// BalanceFromEvents derives the spendable balance in minor currency units:
// paid top-ups minus consumptions plus adjustments. Reversed events are not
// excluded here; the reversal engine compensates them with adjustments, so
// the sum needs no knowledge of reversal records.
func BalanceFromEvents(topups []TopUp, consumptions []Consumption, adjustments []Adjustment) int64 {
	var balance int64
	for _, t := range topups {
		if t.Status == TopUpPaid {
			balance += t.Amount
		}
	}
	for _, c := range consumptions {
		balance -= c.PriceAtPurchase
	}
	for _, a := range adjustments {
		balance += a.Delta
	}
	return balance
}

// StatementLines merges an account's events into chronological ledger lines
// with a running balance. Non-paid top-ups are listed with a zero delta so
// the statement stays complete without affecting the running sum.
func StatementLines(topups []TopUp, consumptions []Consumption, adjustments []Adjustment) []LedgerLine {
	lines := make([]LedgerLine, 0, len(topups)+len(consumptions)+len(adjustments))
	for _, t := range topups {
		delta := t.Amount
		if t.Status != TopUpPaid {
			delta = 0
		}
		lines = append(lines, LedgerLine{
			Kind:      "topup " + string(t.Status),
			EventID:   t.ID,
			Detail:    string(t.Provider),
			Delta:     delta,
			CreatedAt: t.CreatedAt,
		})
	}
	for _, c := range consumptions {
		lines = append(lines, LedgerLine{
			Kind:      "consumption",
			EventID:   c.ID,
			Detail:    c.ItemName,
			Delta:     -c.PriceAtPurchase,
			CreatedAt: c.CreatedAt,
		})
	}
	for _, a := range adjustments {
		lines = append(lines, LedgerLine{
			Kind:      "adjustment",
			EventID:   a.ID,
			Detail:    a.Reason,
			Delta:     a.Delta,
			CreatedAt: a.CreatedAt,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].CreatedAt.Before(lines[j].CreatedAt)
	})
	var running int64
	for i := range lines {
		running += lines[i].Delta
		lines[i].Running = running
	}
	return lines
}

// DerivedStock computes the available quantity of a mixed drink as the
// minimum over components of floor(component stock / required quantity).
// Components without a tracked counter do not constrain availability.
func DerivedStock(components []MixedComponent) int {
	available := -1
	for _, c := range components {
		if c.ComponentStock == nil || c.Quantity <= 0 {
			continue
		}
		n := *c.ComponentStock / c.Quantity
		if n < 0 {
			n = 0
		}
		if available < 0 || n < available {
			available = n
		}
	}
	if available < 0 {
		return 0
	}
	return available
}
