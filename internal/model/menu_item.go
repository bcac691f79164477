package model

// MenuItem is a selectable dish from the weekly menu catalog.  The catalog
// is populated by an external admin tool and consumed read-only by the
// selection flow.  A snapshot of the catalog rendered to a client may go
// stale before submission: an item can be disabled or removed at any time,
// which is why validation re-fetches every referenced item.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name of the dish.
//  PriceCents – unit price in cents.
//  Category   – menu category label (e.g. "vegetarian").
//  Available  – whether the item can currently be selected.
type MenuItem struct {
    ID         uint64 `json:"id"`          // menu_items.id
    Name       string `json:"name"`        // menu_items.name
    PriceCents uint32 `json:"price_cents"` // menu_items.price_cents
    Category   string `json:"category"`    // menu_items.category
    Available  bool   `json:"available"`   // menu_items.is_available
}
