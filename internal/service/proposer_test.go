package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/platewise/meal-selection/internal/model"
	"github.com/platewise/meal-selection/internal/queue"
	"github.com/platewise/meal-selection/internal/repository"
)

// fakePlans resolves a single plan and reports ErrPlanNotFound otherwise.
type fakePlans struct {
	plan model.Plan
}

func (f *fakePlans) GetByID(ctx context.Context, id uint64) (*model.Plan, error) {
	if id != f.plan.ID {
		return nil, repository.ErrPlanNotFound
	}
	p := f.plan
	return &p, nil
}

// fakeStager mimics the transactional store with an in-memory catalog and
// a single per-user staging slot.
type fakeStager struct {
	catalog map[uint64]model.MenuItem
	staged  map[uint64]*model.CheckoutStaging
	calls   int
}

func newFakeStager(items ...model.MenuItem) *fakeStager {
	cat := make(map[uint64]model.MenuItem, len(items))
	for _, it := range items {
		cat[it.ID] = it
	}
	return &fakeStager{catalog: cat, staged: make(map[uint64]*model.CheckoutStaging)}
}

func (f *fakeStager) HydrateAndStage(ctx context.Context, rec *model.CheckoutStaging, ids []uint64) error {
	f.calls++
	found := make(map[uint64]model.MenuItem, len(ids))
	for _, id := range ids {
		if it, ok := f.catalog[id]; ok && it.Available {
			found[id] = it
		}
	}
	if len(found) != len(ids) {
		return repository.ErrItemsUnavailable
	}
	rec.Selection.Items = found
	cp := *rec
	f.staged[rec.UserID] = &cp
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	events []queue.SelectionStagedEvent
}

func (f *fakePublisher) PublishSelectionStaged(ctx context.Context, ev queue.SelectionStagedEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func item(id uint64, name string, price uint32) model.MenuItem {
	return model.MenuItem{ID: id, Name: name, PriceCents: price, Category: "mains", Available: true}
}

func newTestProposer(stager *fakeStager) (*Proposer, *fakePublisher) {
	plans := &fakePlans{plan: model.Plan{ID: 1, Name: "Family 4", MealsPerWeek: 4, PriceCents: 5999}}
	pub := &fakePublisher{}
	return NewProposer(plans, stager, pub, nil, "selection-api"), pub
}

func TestProposeSuccess(t *testing.T) {
	stager := newFakeStager(item(10, "Lasagna", 899), item(11, "Pad Thai", 799), item(12, "Tacos", 699))
	p, pub := newTestProposer(stager)

	rec, err := p.Propose(context.Background(), 7, 1, model.SelectionMap{10: 2, 11: 1, 12: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantUnits := []uint64{10, 10, 11, 12}
	if !reflect.DeepEqual(rec.Selection.Units, wantUnits) {
		t.Fatalf("units = %v, want %v", rec.Selection.Units, wantUnits)
	}
	if len(rec.Selection.Items) != 3 {
		t.Fatalf("hydration table has %d entries, want 3", len(rec.Selection.Items))
	}
	if rec.Source != "selection-api" {
		t.Fatalf("source = %q", rec.Source)
	}
	staged := stager.staged[7]
	if staged == nil {
		t.Fatalf("nothing staged for user 7")
	}
	if staged.Plan.ID != 1 || staged.UserID != 7 {
		t.Fatalf("staged record owner/plan wrong: %+v", staged)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	if pub.events[0].MealCount != 4 || pub.events[0].TotalCents != 2*899+799+699 {
		t.Fatalf("unexpected event payload: %+v", pub.events[0])
	}
}

func TestProposeQuantityMismatch(t *testing.T) {
	stager := newFakeStager(item(10, "Lasagna", 899), item(11, "Pad Thai", 799))
	p, _ := newTestProposer(stager)

	_, err := p.Propose(context.Background(), 7, 1, model.SelectionMap{10: 3, 11: 2})
	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected *Rejection, got %v", err)
	}
	if rej.Code != ReasonQuantityMismatch {
		t.Fatalf("code = %q, want %q", rej.Code, ReasonQuantityMismatch)
	}
	if rej.Required != 4 || rej.Received != 5 {
		t.Fatalf("required/received = %d/%d, want 4/5", rej.Required, rej.Received)
	}
	if stager.calls != 0 {
		t.Fatalf("catalog touched despite quantity mismatch")
	}
	if len(stager.staged) != 0 {
		t.Fatalf("staging written despite rejection")
	}
}

func TestProposeAvailabilityDrift(t *testing.T) {
	// Item 12 is missing from the catalog, as if disabled after page load.
	stager := newFakeStager(item(10, "Lasagna", 899), item(11, "Pad Thai", 799))
	p, pub := newTestProposer(stager)

	_, err := p.Propose(context.Background(), 7, 1, model.SelectionMap{10: 2, 11: 1, 12: 1})
	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected *Rejection, got %v", err)
	}
	if rej.Code != ReasonUnavailable {
		t.Fatalf("code = %q, want %q", rej.Code, ReasonUnavailable)
	}
	if len(stager.staged) != 0 {
		t.Fatalf("staging written despite availability drift")
	}
	if len(pub.events) != 0 {
		t.Fatalf("event published despite rejection")
	}
}

func TestProposeDriftLeavesPriorStagingIntact(t *testing.T) {
	stager := newFakeStager(item(10, "Lasagna", 899), item(11, "Pad Thai", 799), item(12, "Tacos", 699))
	p, _ := newTestProposer(stager)
	ctx := context.Background()

	if _, err := p.Propose(ctx, 7, 1, model.SelectionMap{10: 2, 11: 1, 12: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := stager.staged[7]

	// Simulate catalog drift, then resubmit a map referencing the gone item.
	delete(stager.catalog, 12)
	if _, err := p.Propose(ctx, 7, 1, model.SelectionMap{10: 2, 11: 1, 12: 1}); err == nil {
		t.Fatalf("expected rejection after drift")
	}
	if stager.staged[7] != before {
		t.Fatalf("rejected submission altered the prior staging record")
	}
}

func TestProposeIdempotentResubmission(t *testing.T) {
	stager := newFakeStager(item(10, "Lasagna", 899), item(11, "Pad Thai", 799), item(12, "Tacos", 699))
	p, _ := newTestProposer(stager)
	ctx := context.Background()
	m := model.SelectionMap{10: 2, 11: 1, 12: 1}

	first, err := p.Propose(ctx, 7, 1, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Propose(ctx, 7, 1, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.Selection.Quantities, second.Selection.Quantities) ||
		!reflect.DeepEqual(first.Selection.Units, second.Selection.Units) ||
		!reflect.DeepEqual(first.Selection.Items, second.Selection.Items) {
		t.Fatalf("resubmission produced different content:\nfirst:  %+v\nsecond: %+v", first.Selection, second.Selection)
	}
	// The slot holds exactly one record, the latest write.
	if len(stager.staged) != 1 || stager.staged[7].StagedAt != second.StagedAt {
		t.Fatalf("staging slot not replaced by the second write")
	}
}

func TestProposeSupersedesPreviousSelection(t *testing.T) {
	stager := newFakeStager(item(10, "Lasagna", 899), item(11, "Pad Thai", 799), item(12, "Tacos", 699), item(13, "Curry", 999))
	p, _ := newTestProposer(stager)
	ctx := context.Background()

	if _, err := p.Propose(ctx, 7, 1, model.SelectionMap{10: 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Propose(ctx, 7, 1, model.SelectionMap{11: 1, 12: 1, 13: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	staged := stager.staged[7]
	if _, ok := staged.Selection.Quantities[10]; ok {
		t.Fatalf("old selection leaked into the new staging record: %v", staged.Selection.Quantities)
	}
	wantUnits := []uint64{11, 12, 13, 13}
	if !reflect.DeepEqual(staged.Selection.Units, wantUnits) {
		t.Fatalf("units = %v, want %v", staged.Selection.Units, wantUnits)
	}
}

func TestProposeMalformedSelections(t *testing.T) {
	stager := newFakeStager(item(10, "Lasagna", 899))
	p, _ := newTestProposer(stager)
	ctx := context.Background()

	cases := []model.SelectionMap{
		nil,
		{},
		{10: 0},
		{10: -1},
		{0: 2},
	}
	for i, m := range cases {
		_, err := p.Propose(ctx, 7, 1, m)
		var rej *Rejection
		if !errors.As(err, &rej) || rej.Code != ReasonMalformed {
			t.Fatalf("case %d: expected malformed rejection, got %v", i, err)
		}
	}
	if stager.calls != 0 {
		t.Fatalf("catalog touched by malformed submissions")
	}
}

func TestProposeUnknownPlan(t *testing.T) {
	stager := newFakeStager(item(10, "Lasagna", 899))
	p, _ := newTestProposer(stager)

	_, err := p.Propose(context.Background(), 7, 99, model.SelectionMap{10: 4})
	if !errors.Is(err, repository.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestFlattenGroupsByItem(t *testing.T) {
	got := Flatten(model.SelectionMap{5: 1, 2: 3, 9: 2})
	want := []uint64{2, 2, 2, 5, 9, 9}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Flatten = %v, want %v", got, want)
	}
}

func TestFlattenEmpty(t *testing.T) {
	if got := Flatten(model.SelectionMap{}); len(got) != 0 {
		t.Fatalf("Flatten of empty map = %v", got)
	}
}
