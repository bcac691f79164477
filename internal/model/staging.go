package model

import "time"

// CheckoutStaging is the per-user handoff record consumed by the checkout
// step.  It is written atomically by a successful validation and each new
// validation for the same user fully replaces the previous row
// (last-writer-wins, one row per user).  The checkout step reads it once
// and trusts its contents; nothing downstream re-derives quantities.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the staged selection; unique, one row per user.
//  Plan      – the plan the selection was validated against.
//  Selection – the validated quantities, flattened units and hydrated items.
//  Source    – provenance tag naming the producer (e.g. "selection-api").
//  StagedAt  – when the record was written.
type CheckoutStaging struct {
    ID        uint64             `json:"id"`         // checkout_staging.id
    UserID    uint64             `json:"user_id"`    // checkout_staging.user_id
    Plan      Plan               `json:"plan"`       // checkout_staging.plan (JSON column)
    Selection ValidatedSelection `json:"selection"`  // quantities/units/items JSON columns
    Source    string             `json:"source"`     // checkout_staging.source
    StagedAt  time.Time          `json:"staged_at"`  // checkout_staging.staged_at
}
