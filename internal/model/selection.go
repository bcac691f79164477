package model

// SelectionMap maps a menu item id to the number of units chosen.  All
// quantities are strictly positive; an item with zero units is removed from
// the map rather than stored as zero.  The map is the canonical client-side
// representation of an in-progress selection.
type SelectionMap map[uint64]int

// Total returns the number of meal units the map accounts for.
func (s SelectionMap) Total() int {
    n := 0
    for _, q := range s {
        n += q
    }
    return n
}

// Clone returns an independent copy of the map.  Handlers hand copies to
// callers so that later mutations cannot alias staged or validated state.
func (s SelectionMap) Clone() SelectionMap {
    out := make(SelectionMap, len(s))
    for id, q := range s {
        out[id] = q
    }
    return out
}

// ValidatedSelection is the server-confirmed form of a SelectionMap.  It is
// produced only by the validation service, never by clients.  Quantities
// holds the accepted map, Units the flattened one-entry-per-unit list kept
// for the downstream checkout consumer, and Items the authoritative catalog
// records fetched during validation, keyed by item id.
//
// Invariants:
//  - the sum of Quantities equals the plan's meals-per-week exactly;
//  - len(Units) equals that sum, with units grouped by item id;
//  - every key of Quantities has an entry in Items marked available.
type ValidatedSelection struct {
    Quantities SelectionMap        `json:"quantities"`
    Units      []uint64            `json:"units"`
    Items      map[uint64]MenuItem `json:"items"`
}

// TotalCents sums the unit prices of the selection.  The value is display
// information for the checkout page; the plan price remains authoritative
// for billing.
func (v ValidatedSelection) TotalCents() uint32 {
    total := uint32(0)
    for id, q := range v.Quantities {
        if it, ok := v.Items[id]; ok {
            total += it.PriceCents * uint32(q)
        }
    }
    return total
}
