package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/platewise/meal-selection/internal/handler"    // handlers implementing the endpoints
	"github.com/platewise/meal-selection/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check used by
// load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated browse endpoints.  Guests
// can look at a plan and its weekly menu before signing in; the optional
// cache middleware (pass nil to skip) keeps these hot reads off the
// database.  Selection state never flows through these routes, so caching
// them is safe.
func RegisterPublic(e *echo.Echo, m *handler.MenuHandler, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cache != nil {
		mws = append(mws, cache)
	}
	// Plan details: the required meal count drives the selection page.
	e.GET("/v1/plans/:id", m.GetPlan, mws...)
	// The weekly menu with category labels; ?category= narrows the items.
	e.GET("/v1/plans/:id/menu", m.GetMenu, mws...)
}

// RegisterCustomer registers the subscriber-scoped endpoints under /v1.
// All routes require a valid JWT with the CUSTOMER role.  Subscribers can
// submit a completed selection, manage their in-progress draft, and hand
// a staged selection off to checkout.  The extra middleware (rate limiting)
// is applied to the whole group when provided.
func RegisterCustomer(e *echo.Echo, s *handler.SelectionHandler, co *handler.CheckoutHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	}
	mws = append(mws, extra...)
	g := e.Group("/v1", mws...)

	// The single submission action: propose the full quantity map.
	g.POST("/plans/:id/selection", s.ProposeSelection)

	// Draft persistence so an accidental reload does not lose work.  The
	// draft lives in a TTL-bounded store and is keyed to the plan.
	g.PUT("/plans/:id/selection/draft", s.SaveDraft)
	g.GET("/plans/:id/selection/draft", s.RestoreDraft)
	g.DELETE("/plans/:id/selection/draft", s.ClearDraft)

	// Checkout handoff: the downstream checkout step reads the staged
	// record and deletes it once consumed.
	g.GET("/checkout/staging", co.GetStaged)
	g.DELETE("/checkout/staging", co.ConsumeStaged)
}
