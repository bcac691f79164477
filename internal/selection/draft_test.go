package selection

import (
	"context"
	"testing"
	"time"

	"github.com/platewise/meal-selection/internal/model"
)

func TestDraftSaveAndRestore(t *testing.T) {
	s := NewMemoryDraftStore(time.Hour)
	ctx := context.Background()
	saved := model.SelectionMap{1: 2, 2: 1}
	if err := s.Save(ctx, 7, 3, saved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Restore(ctx, 7, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total() != 3 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("restored %v, want %v", got, saved)
	}
}

func TestDraftExpiresAfterWindow(t *testing.T) {
	s := NewMemoryDraftStore(time.Hour)
	ctx := context.Background()
	now := time.Now().UTC()
	s.Now = func() time.Time { return now }
	if err := s.Save(ctx, 7, 3, model.SelectionMap{1: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Jump past the freshness window; the draft must behave like a fresh start.
	s.Now = func() time.Time { return now.Add(time.Hour + time.Minute) }
	got, err := s.Restore(ctx, 7, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expired draft restored: %v", got)
	}
}

func TestDraftWithinWindowSurvives(t *testing.T) {
	s := NewMemoryDraftStore(time.Hour)
	ctx := context.Background()
	now := time.Now().UTC()
	s.Now = func() time.Time { return now }
	if err := s.Save(ctx, 7, 3, model.SelectionMap{1: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Now = func() time.Time { return now.Add(59 * time.Minute) }
	got, err := s.Restore(ctx, 7, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[1] != 2 {
		t.Fatalf("fresh draft lost: %v", got)
	}
}

func TestDraftDiscardedOnPlanMismatch(t *testing.T) {
	s := NewMemoryDraftStore(time.Hour)
	ctx := context.Background()
	if err := s.Save(ctx, 7, 3, model.SelectionMap{1: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Restore(ctx, 7, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("draft for plan 3 restored against plan 4: %v", got)
	}
	// The mismatched draft is dropped outright, so restoring against the
	// original plan now also yields an empty map.
	got, err = s.Restore(ctx, 7, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("mismatched draft resurfaced: %v", got)
	}
}

func TestDraftClear(t *testing.T) {
	s := NewMemoryDraftStore(time.Hour)
	ctx := context.Background()
	if err := s.Save(ctx, 7, 3, model.SelectionMap{1: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Clear(ctx, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Restore(ctx, 7, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("cleared draft restored: %v", got)
	}
}

func TestRestoredDraftIsACopy(t *testing.T) {
	s := NewMemoryDraftStore(time.Hour)
	ctx := context.Background()
	if err := s.Save(ctx, 7, 3, model.SelectionMap{1: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := s.Restore(ctx, 7, 3)
	got[1] = 99
	again, _ := s.Restore(ctx, 7, 3)
	if again[1] != 2 {
		t.Fatalf("mutating a restored map leaked into the store: %v", again)
	}
}
