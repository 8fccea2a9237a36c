package systems

import (
	"math"

	"github.com/pthm-cable/colony/components"
)

// ResourceLedger maps resources to non-negative quantities.
// No operation leaves an entry negative; failed debits change nothing.
type ResourceLedger struct {
	amounts map[components.Resource]float64
}

// NewResourceLedger creates a ledger seeded with the given quantities.
// Every enumerated resource gets an entry, missing ones start at zero.
func NewResourceLedger(initial components.Amounts) (*ResourceLedger, error) {
	l := &ResourceLedger{amounts: make(map[components.Resource]float64, len(components.AllResources()))}
	for _, r := range components.AllResources() {
		l.amounts[r] = 0
	}
	for r, v := range initial {
		if err := checkAmount(r, v); err != nil {
			return nil, err
		}
		l.amounts[r] = v
	}
	return l, nil
}

// Get returns the stored quantity of r.
func (l *ResourceLedger) Get(r components.Resource) float64 {
	return l.amounts[r]
}

// Snapshot returns a copy of all quantities.
func (l *ResourceLedger) Snapshot() components.Amounts {
	out := make(components.Amounts, len(l.amounts))
	for r, v := range l.amounts {
		out[r] = v
	}
	return out
}

// Credit increases r by amount.
func (l *ResourceLedger) Credit(r components.Resource, amount float64) error {
	if err := checkAmount(r, amount); err != nil {
		return err
	}
	l.amounts[r] += amount
	return nil
}

// CreditAll credits every entry of yields.
func (l *ResourceLedger) CreditAll(yields components.Amounts) error {
	for r, v := range yields {
		if err := checkAmount(r, v); err != nil {
			return err
		}
	}
	for r, v := range yields {
		l.amounts[r] += v
	}
	return nil
}

// Debit decreases r by amount, or fails with *InsufficientResourceError.
func (l *ResourceLedger) Debit(r components.Resource, amount float64) error {
	if err := checkAmount(r, amount); err != nil {
		return err
	}
	if have := l.amounts[r]; have < amount {
		return &InsufficientResourceError{Resource: r, Required: amount, Available: have}
	}
	l.amounts[r] -= amount
	return nil
}

// DebitUpTo removes at most amount of r, stopping at zero. Returns what was removed.
func (l *ResourceLedger) DebitUpTo(r components.Resource, amount float64) (float64, error) {
	if err := checkAmount(r, amount); err != nil {
		return 0, err
	}
	removed := min(amount, l.amounts[r])
	l.amounts[r] -= removed
	return removed, nil
}

// CanDebitAll validates costs without mutating anything.
// Resources are checked in enumeration order so the reported shortfall is stable.
func (l *ResourceLedger) CanDebitAll(costs components.Amounts) error {
	for r, v := range costs {
		if err := checkAmount(r, v); err != nil {
			return err
		}
	}
	for _, r := range components.AllResources() {
		need, ok := costs[r]
		if !ok {
			continue
		}
		if have := l.amounts[r]; have < need {
			return &InsufficientResourceError{Resource: r, Required: need, Available: have}
		}
	}
	return nil
}

// TryDebitAll debits every entry of costs, or nothing at all.
func (l *ResourceLedger) TryDebitAll(costs components.Amounts) error {
	if err := l.CanDebitAll(costs); err != nil {
		return err
	}
	for r, v := range costs {
		l.amounts[r] -= v
	}
	return nil
}

func checkAmount(r components.Resource, amount float64) error {
	if !r.Valid() {
		return preconditionf("unknown resource %q", r)
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return preconditionf("invalid amount %v for %s", amount, r)
	}
	return nil
}
