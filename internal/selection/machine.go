// Package selection implements the quantity-constrained selection state
// machine and its draft persistence.  A Machine tracks how many units of
// each menu item a subscriber has picked and guarantees that the running
// total never exceeds the plan's meals-per-week.  Every mutation is checked
// before it is applied, so an over-capacity map is structurally unreachable
// rather than corrected after the fact.
package selection

import (
    "errors"

    "github.com/platewise/meal-selection/internal/model"
)

// Sentinel errors returned by Machine mutations.  Callers distinguish a
// capacity rejection (the UI disables further "+1" affordances) from misuse
// of the API (adding an item twice, adjusting an unselected item).
var (
    ErrCapacityFull    = errors.New("selection already holds the required number of meals")
    ErrAlreadySelected = errors.New("item already selected; use Adjust to change its quantity")
    ErrNotSelected     = errors.New("item is not part of the selection")
    ErrBadDelta        = errors.New("delta must be +1 or -1")
)

// Machine holds an in-progress selection against a single plan.  It is not
// safe for concurrent use; each client session owns exactly one Machine and
// drives it synchronously, mirroring a single-threaded UI.
type Machine struct {
    plan       model.Plan
    quantities model.SelectionMap
}

// NewMachine returns an empty Machine bound to the given plan.  The plan's
// MealsPerWeek is the capacity invariant for the life of the machine.
func NewMachine(plan model.Plan) *Machine {
    return &Machine{
        plan:       plan,
        quantities: make(model.SelectionMap),
    }
}

// Plan returns the plan the machine was created for.
func (m *Machine) Plan() model.Plan { return m.plan }

// Total returns the number of units currently selected.
func (m *Machine) Total() int { return m.quantities.Total() }

// Ready reports whether the selection holds exactly the required number of
// units.  Submission is only offered in this state.
func (m *Machine) Ready() bool { return m.Total() == m.plan.MealsPerWeek }

// Quantity returns the chosen quantity for an item, zero when unselected.
func (m *Machine) Quantity(itemID uint64) int { return m.quantities[itemID] }

// Quantities returns a copy of the current selection map.  The copy keeps
// callers (draft persistence, submission) from aliasing internal state.
func (m *Machine) Quantities() model.SelectionMap { return m.quantities.Clone() }

// AddFirst selects an item for the first time with quantity one.  It
// rejects with ErrCapacityFull when the selection is already at capacity and
// with ErrAlreadySelected when the item is present; both checks run before
// any state changes.
func (m *Machine) AddFirst(itemID uint64) error {
    if m.Total() >= m.plan.MealsPerWeek {
        return ErrCapacityFull
    }
    if _, ok := m.quantities[itemID]; ok {
        return ErrAlreadySelected
    }
    m.quantities[itemID] = 1
    return nil
}

// Adjust changes the quantity of an already selected item by +1 or -1.
// Increments are rejected at capacity.  A decrement that would reach zero
// removes the key entirely, so the item reverts to the unselected state; a
// zero quantity is never stored.
func (m *Machine) Adjust(itemID uint64, delta int) error {
    if delta != 1 && delta != -1 {
        return ErrBadDelta
    }
    q, ok := m.quantities[itemID]
    if !ok {
        return ErrNotSelected
    }
    if delta == 1 {
        if m.Total() >= m.plan.MealsPerWeek {
            return ErrCapacityFull
        }
        m.quantities[itemID] = q + 1
        return nil
    }
    if q == 1 {
        delete(m.quantities, itemID)
        return nil
    }
    m.quantities[itemID] = q - 1
    return nil
}

// Reset discards the entire selection, returning the machine to its
// just-created state.  Used when the subscriber clears the page or a
// restored draft turns out to belong to a different plan.
func (m *Machine) Reset() {
    m.quantities = make(model.SelectionMap)
}

// Load replaces the machine state with a previously persisted map, for
// example a restored draft.  Entries with non-positive quantities are
// dropped and the load is refused outright when the map would exceed the
// plan capacity, because a draft saved against a bigger plan must not leak
// into a smaller one.
func (m *Machine) Load(quantities model.SelectionMap) error {
    clean := make(model.SelectionMap, len(quantities))
    for id, q := range quantities {
        if q > 0 {
            clean[id] = q
        }
    }
    if clean.Total() > m.plan.MealsPerWeek {
        return ErrCapacityFull
    }
    m.quantities = clean
    return nil
}
