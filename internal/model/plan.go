package model

// Plan is a subscription tier.  It fixes how many meal units a subscriber
// must pick each week and carries the display price for that tier.  Plans
// are maintained by the plan management service and are read-only here:
// nothing in the selection flow ever mutates a plan.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name of the tier (e.g. "Family 12").
//  MealsPerWeek – number of meal units the subscriber must select.
//  PriceCents   – weekly price in cents, shown on the selection page.
type Plan struct {
    ID           uint64 `json:"id"`             // plans.id
    Name         string `json:"name"`           // plans.name
    MealsPerWeek int    `json:"meals_per_week"` // plans.meals_per_week
    PriceCents   uint32 `json:"price_cents"`    // plans.price_cents
}
