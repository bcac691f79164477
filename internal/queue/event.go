// Package queue defines message payloads exchanged over the message broker.
package queue

// SelectionStagedEvent is published when a validated selection has been
// staged for checkout.  It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type SelectionStagedEvent struct {
    UserID     uint64   `json:"user_id"`
    PlanID     uint64   `json:"plan_id"`
    PlanName   string   `json:"plan_name"`
    MealCount  int      `json:"meal_count"`
    MealNames  []string `json:"meals"`
    TotalCents uint32   `json:"total_cents"`
    StagedAt   string   `json:"staged_at"`
}
