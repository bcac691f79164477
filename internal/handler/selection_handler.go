package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/platewise/meal-selection/internal/model"
    "github.com/platewise/meal-selection/internal/repository"
    "github.com/platewise/meal-selection/internal/selection"
    "github.com/platewise/meal-selection/internal/service"
)

// Proposer is the slice of the validation service the handler needs.  The
// concrete implementation is *service.Proposer; tests substitute fakes.
type Proposer interface {
    Propose(ctx context.Context, userID, planID uint64, quantities model.SelectionMap) (*model.CheckoutStaging, error)
}

// SelectionHandler serves the submission endpoint and the draft
// persistence endpoints.  All routes assume the JWT middleware has run;
// requests without an extractable user id are rejected with 401, which is
// how the subsystem refuses submissions without an authenticated identity.
type SelectionHandler struct {
    Plans       service.PlanSource   // resolves plans for draft validation
    Proposer    Proposer             // validation and staging authority
    Drafts      selection.DraftStore // TTL-bounded draft persistence
    CheckoutURL string               // redirect target returned on success
}

// NewSelectionHandler constructs a SelectionHandler.  Plans and Proposer
// must be non-nil; Drafts may be nil when running without Redis, in which
// case the draft endpoints answer as if no draft ever exists.
func NewSelectionHandler(plans service.PlanSource, proposer Proposer, drafts selection.DraftStore, checkoutURL string) *SelectionHandler {
    if plans == nil || proposer == nil {
        panic("nil dependency passed to NewSelectionHandler")
    }
    if checkoutURL == "" {
        checkoutURL = "/v1/checkout"
    }
    return &SelectionHandler{Plans: plans, Proposer: proposer, Drafts: drafts, CheckoutURL: checkoutURL}
}

// selectionBody is the wire form of a submitted or drafted selection.  The
// quantity map arrives as a JSON object with string keys because JSON
// object keys are always strings; parseQuantities converts and validates.
type selectionBody struct {
    Quantities map[string]int `json:"quantities"`
}

// parseQuantities converts the wire map into a SelectionMap.  It reports
// a malformed submission when the map is absent, empty, keyed by anything
// other than positive integers, or contains non-positive quantities.
// Malformed submissions never reach the catalog.
func parseQuantities(raw map[string]int) (model.SelectionMap, bool) {
    if len(raw) == 0 {
        return nil, false
    }
    out := make(model.SelectionMap, len(raw))
    for k, q := range raw {
        id, err := strconv.ParseUint(k, 10, 64)
        if err != nil || id == 0 || q <= 0 {
            return nil, false
        }
        out[id] = q
    }
    return out, true
}

// ProposeSelection handles POST /v1/plans/:id/selection, the single
// "propose selection" action of the submission protocol.  The request
// carries the full quantity map, never a diff, so resubmitting the same
// map is naturally idempotent.  Verdict mapping:
//
//	201 – staged; body carries the checkout redirect target
//	400 – malformed body (rejected before any catalog access)
//	401 – no authenticated user
//	404 – plan does not resolve
//	409 – availability drift (reason code items_unavailable)
//	422 – total does not equal the plan's meal count (quantity_mismatch,
//	      with both numbers so the client can show "select N more/fewer")
//
// Every rejection is recoverable: the client edits the map and resubmits.
func (h *SelectionHandler) ProposeSelection(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    planID, ok := planIDParam(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
    }
    var body selectionBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error":  "invalid request body",
            "reason": service.ReasonMalformed,
        })
    }
    quantities, ok := parseQuantities(body.Quantities)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error":  "quantities must map item ids to positive counts",
            "reason": service.ReasonMalformed,
        })
    }
    staged, err := h.Proposer.Propose(c.Request().Context(), userID, planID, quantities)
    if err != nil {
        var rej *service.Rejection
        if errors.As(err, &rej) {
            return rejectionResponse(c, rej)
        }
        if errors.Is(err, repository.ErrPlanNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to stage selection"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "checkout_url": h.CheckoutURL,
        "staged_at":    staged.StagedAt,
        "total_cents":  staged.Selection.TotalCents(),
        "meal_count":   len(staged.Selection.Units),
    })
}

// rejectionResponse translates a service rejection into its HTTP verdict.
// Quantity mismatches carry both totals; availability drift deliberately
// names no items.
func rejectionResponse(c echo.Context, rej *service.Rejection) error {
    switch rej.Code {
    case service.ReasonQuantityMismatch:
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{
            "error":    rej.Message,
            "reason":   rej.Code,
            "required": rej.Required,
            "received": rej.Received,
        })
    case service.ReasonUnavailable:
        return c.JSON(http.StatusConflict, echo.Map{
            "error":  rej.Message,
            "reason": rej.Code,
        })
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error":  rej.Message,
            "reason": rej.Code,
        })
    }
}

// SaveDraft handles PUT /v1/plans/:id/selection/draft.  It persists the
// in-progress quantity map so an accidental reload can recover it.  The
// map must respect the plan capacity (a draft can be incomplete but never
// over-full); persistence is best effort and each save restarts the
// freshness window.
func (h *SelectionHandler) SaveDraft(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    planID, ok := planIDParam(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
    }
    var body selectionBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    quantities, ok := parseQuantities(body.Quantities)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantities must map item ids to positive counts"})
    }
    ctx := c.Request().Context()
    plan, err := h.Plans.GetByID(ctx, planID)
    if err != nil {
        if errors.Is(err, repository.ErrPlanNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    // Reuse the state machine to enforce the capacity invariant on the
    // incoming map; Load rejects anything over the plan's meal count.
    m := selection.NewMachine(*plan)
    if err := m.Load(quantities); err != nil {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{
            "error":    "draft exceeds the plan's meal count",
            "required": plan.MealsPerWeek,
            "received": quantities.Total(),
        })
    }
    if h.Drafts != nil {
        if err := h.Drafts.Save(ctx, userID, planID, m.Quantities()); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save draft"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{
        "total": m.Total(),
        "ready": m.Ready(),
    })
}

// RestoreDraft handles GET /v1/plans/:id/selection/draft.  It returns the
// persisted quantities when a fresh draft exists for this plan and an
// empty map otherwise; an expired or plan-mismatched draft is silently
// discarded, indistinguishable from a fresh page load.
func (h *SelectionHandler) RestoreDraft(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    planID, ok := planIDParam(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
    }
    quantities := make(model.SelectionMap)
    if h.Drafts != nil {
        restored, err := h.Drafts.Restore(c.Request().Context(), userID, planID)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to restore draft"})
        }
        quantities = restored
    }
    wire := make(map[string]int, len(quantities))
    for id, q := range quantities {
        wire[strconv.FormatUint(id, 10)] = q
    }
    return c.JSON(http.StatusOK, echo.Map{
        "quantities": wire,
        "total":      quantities.Total(),
    })
}

// ClearDraft handles DELETE /v1/plans/:id/selection/draft, the explicit
// "start over" action.  Clearing a nonexistent draft is not an error.
func (h *SelectionHandler) ClearDraft(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if h.Drafts != nil {
        if err := h.Drafts.Clear(c.Request().Context(), userID); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to clear draft"})
        }
    }
    return c.NoContent(http.StatusNoContent)
}
