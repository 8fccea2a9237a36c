// Package components defines the plain data types shared by the colony systems,
// including the ECS components attached to process entities.
package components

// Resource names a ledger entry. Battery charge is tracked by the power system, not here.
type Resource string

const (
	Oxygen      Resource = "oxygen"
	Water       Resource = "water"
	Regolith    Resource = "regolith"
	IronOre     Resource = "iron_ore"
	IronPlates  Resource = "iron_plates"
	Electronics Resource = "electronics"
)

// AllResources lists every ledger resource in display order.
func AllResources() []Resource {
	return []Resource{Oxygen, Water, Regolith, IronOre, IronPlates, Electronics}
}

// Valid reports whether r is one of the enumerated resources.
func (r Resource) Valid() bool {
	switch r {
	case Oxygen, Water, Regolith, IronOre, IronPlates, Electronics:
		return true
	}
	return false
}

// Amounts maps resources to quantities (costs, yields, snapshots).
type Amounts map[Resource]float64

// AmountsFrom converts a config map keyed by resource name.
func AmountsFrom(m map[string]float64) Amounts {
	out := make(Amounts, len(m))
	for k, v := range m {
		out[Resource(k)] = v
	}
	return out
}

// Clone returns a copy of a.
func (a Amounts) Clone() Amounts {
	out := make(Amounts, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
