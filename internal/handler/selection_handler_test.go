package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/platewise/meal-selection/internal/model"
	"github.com/platewise/meal-selection/internal/repository"
	"github.com/platewise/meal-selection/internal/selection"
	"github.com/platewise/meal-selection/internal/service"
)

// planSourceFunc adapts a function to service.PlanSource.
type planSourceFunc func(ctx context.Context, id uint64) (*model.Plan, error)

func (f planSourceFunc) GetByID(ctx context.Context, id uint64) (*model.Plan, error) { return f(ctx, id) }

// fakeProposer records calls and returns a canned verdict.
type fakeProposer struct {
	calls  int
	result *model.CheckoutStaging
	err    error
}

func (f *fakeProposer) Propose(ctx context.Context, userID, planID uint64, quantities model.SelectionMap) (*model.CheckoutStaging, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func fourMealPlan(ctx context.Context, id uint64) (*model.Plan, error) {
	if id != 1 {
		return nil, repository.ErrPlanNotFound
	}
	return &model.Plan{ID: 1, Name: "Family 4", MealsPerWeek: 4, PriceCents: 5999}, nil
}

func newTestHandler(p *fakeProposer) *SelectionHandler {
	return NewSelectionHandler(planSourceFunc(fourMealPlan), p, selection.NewMemoryDraftStore(time.Hour), "/v1/checkout")
}

// do runs a request through an Echo context with an optional authenticated
// user and returns the recorder.
func do(t *testing.T, h echo.HandlerFunc, method, target, body string, userID interface{}) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/plans/:id/selection")
	c.SetParamNames("id")
	c.SetParamValues("1")
	if userID != nil {
		c.Set("user_id", userID)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestProposeRequiresIdentity(t *testing.T) {
	p := &fakeProposer{}
	h := newTestHandler(p)
	rec := do(t, h.ProposeSelection, http.MethodPost, "/v1/plans/1/selection", `{"quantities":{"10":4}}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if p.calls != 0 {
		t.Fatalf("proposer called without identity")
	}
}

func TestProposeMalformedBodySkipsValidation(t *testing.T) {
	p := &fakeProposer{}
	h := newTestHandler(p)
	cases := []string{
		`{}`,
		`{"quantities":null}`,
		`{"quantities":{}}`,
		`{"quantities":{"abc":2}}`,
		`{"quantities":{"10":0}}`,
		`{"quantities":{"10":-1}}`,
		`{"quantities":[1,2,3]}`,
	}
	for _, body := range cases {
		rec := do(t, h.ProposeSelection, http.MethodPost, "/v1/plans/1/selection", body, float64(7))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
	if p.calls != 0 {
		t.Fatalf("malformed submissions reached the validation service")
	}
}

func TestProposeSuccessVerdict(t *testing.T) {
	staged := &model.CheckoutStaging{
		UserID: 7,
		Plan:   model.Plan{ID: 1, MealsPerWeek: 4},
		Selection: model.ValidatedSelection{
			Quantities: model.SelectionMap{10: 2, 11: 1, 12: 1},
			Units:      []uint64{10, 10, 11, 12},
			Items: map[uint64]model.MenuItem{
				10: {ID: 10, Name: "Lasagna", PriceCents: 899, Available: true},
				11: {ID: 11, Name: "Pad Thai", PriceCents: 799, Available: true},
				12: {ID: 12, Name: "Tacos", PriceCents: 699, Available: true},
			},
		},
		StagedAt: time.Now().UTC(),
	}
	p := &fakeProposer{result: staged}
	h := newTestHandler(p)
	rec := do(t, h.ProposeSelection, http.MethodPost, "/v1/plans/1/selection", `{"quantities":{"10":2,"11":1,"12":1}}`, float64(7))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		CheckoutURL string `json:"checkout_url"`
		MealCount   int    `json:"meal_count"`
		TotalCents  uint32 `json:"total_cents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.CheckoutURL != "/v1/checkout" {
		t.Fatalf("checkout_url = %q", resp.CheckoutURL)
	}
	if resp.MealCount != 4 || resp.TotalCents != 2*899+799+699 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestProposeQuantityMismatchVerdict(t *testing.T) {
	p := &fakeProposer{err: &service.Rejection{
		Code:     service.ReasonQuantityMismatch,
		Message:  "plan requires 4 meals, selection has 5",
		Required: 4,
		Received: 5,
	}}
	h := newTestHandler(p)
	rec := do(t, h.ProposeSelection, http.MethodPost, "/v1/plans/1/selection", `{"quantities":{"10":3,"11":2}}`, float64(7))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var resp struct {
		Reason   string `json:"reason"`
		Required int    `json:"required"`
		Received int    `json:"received"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Reason != service.ReasonQuantityMismatch || resp.Required != 4 || resp.Received != 5 {
		t.Fatalf("unexpected rejection payload: %+v", resp)
	}
}

func TestProposeAvailabilityDriftVerdict(t *testing.T) {
	p := &fakeProposer{err: &service.Rejection{
		Code:    service.ReasonUnavailable,
		Message: "some items are no longer available",
	}}
	h := newTestHandler(p)
	rec := do(t, h.ProposeSelection, http.MethodPost, "/v1/plans/1/selection", `{"quantities":{"10":4}}`, float64(7))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, service.ReasonUnavailable) {
		t.Fatalf("reason code missing from body: %s", body)
	}
	// The response stays generic; no item ids are enumerated.
	if strings.Contains(body, "\"10\"") {
		t.Fatalf("availability response leaked item ids: %s", body)
	}
}

func TestProposeUnknownPlanVerdict(t *testing.T) {
	p := &fakeProposer{err: repository.ErrPlanNotFound}
	h := newTestHandler(p)
	rec := do(t, h.ProposeSelection, http.MethodPost, "/v1/plans/1/selection", `{"quantities":{"10":4}}`, float64(7))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSaveDraftEnforcesCapacity(t *testing.T) {
	p := &fakeProposer{}
	h := newTestHandler(p)
	rec := do(t, h.SaveDraft, http.MethodPut, "/v1/plans/1/selection/draft", `{"quantities":{"10":3,"11":2}}`, float64(7))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestDraftRoundTripThroughHandlers(t *testing.T) {
	p := &fakeProposer{}
	h := newTestHandler(p)

	rec := do(t, h.SaveDraft, http.MethodPut, "/v1/plans/1/selection/draft", `{"quantities":{"10":2,"11":1}}`, float64(7))
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var saved struct {
		Total int  `json:"total"`
		Ready bool `json:"ready"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("unmarshal save response: %v", err)
	}
	if saved.Total != 3 || saved.Ready {
		t.Fatalf("save response = %+v, want total 3, not ready", saved)
	}

	rec = do(t, h.RestoreDraft, http.MethodGet, "/v1/plans/1/selection/draft", "", float64(7))
	if rec.Code != http.StatusOK {
		t.Fatalf("restore status = %d, want 200", rec.Code)
	}
	var restored struct {
		Quantities map[string]int `json:"quantities"`
		Total      int            `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &restored); err != nil {
		t.Fatalf("unmarshal restore response: %v", err)
	}
	if restored.Total != 3 || restored.Quantities["10"] != 2 || restored.Quantities["11"] != 1 {
		t.Fatalf("unexpected restore payload: %+v", restored)
	}

	rec = do(t, h.ClearDraft, http.MethodDelete, "/v1/plans/1/selection/draft", "", float64(7))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d, want 204", rec.Code)
	}
	rec = do(t, h.RestoreDraft, http.MethodGet, "/v1/plans/1/selection/draft", "", float64(7))
	var afterClear struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &afterClear); err != nil {
		t.Fatalf("unmarshal restore response: %v", err)
	}
	if afterClear.Total != 0 {
		t.Fatalf("draft survived clear: %+v", afterClear)
	}
}
