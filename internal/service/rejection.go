// Package service implements the validation and hydration authority for
// submitted selections, plus the publisher that announces staged
// selections to the message broker.
package service

// Machine-readable reason codes attached to submission rejections.  Clients
// branch on the code; the message is display text only.
const (
    ReasonMalformed        = "malformed_selection"
    ReasonQuantityMismatch = "quantity_mismatch"
    ReasonUnavailable      = "items_unavailable"
)

// Rejection is a recoverable refusal of a submitted selection.  It is
// returned as an error from Propose so handlers can surface the reason code
// and counts verbatim; every rejection leaves previously staged state
// untouched and the subscriber simply edits and resubmits.
type Rejection struct {
    Code     string // one of the Reason* constants
    Message  string // human-readable explanation
    Required int    // units required by the plan (quantity mismatch only)
    Received int    // units actually submitted (quantity mismatch only)
}

// Error implements the error interface.
func (r *Rejection) Error() string { return r.Message }
