// This file defines handlers for the public browsing API.  These routes let
// unauthenticated visitors inspect a plan and its weekly menu before signing
// in to make a selection.  The selection surface refuses to render without a
// resolved plan, so both endpoints 404 when the plan id does not resolve.
package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/platewise/meal-selection/internal/repository"
)

// MenuHandler aggregates the read-only repositories needed for public
// browsing of plans and the menu catalog.
type MenuHandler struct {
    PlanRepo *repository.PlanRepo     // provides access to plan data
    MenuRepo *repository.MenuItemRepo // provides access to the menu catalog
}

// NewMenuHandler constructs a MenuHandler and panics if any dependency is nil.
func NewMenuHandler(planRepo *repository.PlanRepo, menuRepo *repository.MenuItemRepo) *MenuHandler {
    if planRepo == nil || menuRepo == nil {
        panic("nil repository passed to NewMenuHandler")
    }
    return &MenuHandler{PlanRepo: planRepo, MenuRepo: menuRepo}
}

// GetPlan handles GET /v1/plans/:id.  It returns the plan record the
// selection page is rendered against: the required meal count drives the
// client-side capacity invariant and the price is display-only.
func (h *MenuHandler) GetPlan(c echo.Context) error {
    planID, ok := planIDParam(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
    }
    plan, err := h.PlanRepo.GetByID(c.Request().Context(), planID)
    if err != nil {
        if errors.Is(err, repository.ErrPlanNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"plan": plan})
}

// GetMenu handles GET /v1/plans/:id/menu.  It returns the currently
// available menu items plus the distinct category labels used for the
// filter tabs.  An optional ?category= query narrows the item list;
// filtering is purely presentational and has no effect on a selection in
// progress.  The plan is resolved first so the page can refuse to render a
// selection surface for an unknown plan.
func (h *MenuHandler) GetMenu(c echo.Context) error {
    planID, ok := planIDParam(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
    }
    ctx := c.Request().Context()
    plan, err := h.PlanRepo.GetByID(ctx, planID)
    if err != nil {
        if errors.Is(err, repository.ErrPlanNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    items, err := h.MenuRepo.ListAvailable(ctx, c.QueryParam("category"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load menu"})
    }
    cats, err := h.MenuRepo.Categories(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load categories"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "plan":       plan,
        "items":      items,
        "categories": cats,
    })
}
