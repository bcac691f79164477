package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/platewise/meal-selection/internal/repository"
)

// CheckoutHandler exposes the staged selection to the downstream checkout
// step.  The checkout flow reads the record for the authenticated user,
// trusts its contents without re-deriving quantities, and marks it
// consumed when payment begins.
type CheckoutHandler struct {
    StagingRepo *repository.StagingRepo // access to the user-scoped staging row
}

// NewCheckoutHandler constructs a CheckoutHandler and panics on a nil repo.
func NewCheckoutHandler(stagingRepo *repository.StagingRepo) *CheckoutHandler {
    if stagingRepo == nil {
        panic("nil repository passed to NewCheckoutHandler")
    }
    return &CheckoutHandler{StagingRepo: stagingRepo}
}

// GetStaged handles GET /v1/checkout/staging.  It returns the user's
// staged selection: plan, quantity map, flattened units and hydrated item
// records.  404 when nothing has been staged, which the checkout page
// treats as "go pick your meals first".
func (h *CheckoutHandler) GetStaged(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    staged, err := h.StagingRepo.GetByUser(c.Request().Context(), userID)
    if err != nil {
        if errors.Is(err, repository.ErrNoStaging) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no staged selection"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load staged selection"})
    }
    return c.JSON(http.StatusOK, echo.Map{"staging": staged})
}

// ConsumeStaged handles DELETE /v1/checkout/staging.  The checkout step
// calls it after reading the record so a completed purchase cannot be
// staged twice.  Deleting when nothing is staged is a no-op.
func (h *CheckoutHandler) ConsumeStaged(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.StagingRepo.DeleteByUser(c.Request().Context(), userID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to consume staged selection"})
    }
    return c.NoContent(http.StatusNoContent)
}
