package service

import (
    "context"
    "fmt"
    "log"
    "sort"
    "time"

    "github.com/platewise/meal-selection/internal/model"
    "github.com/platewise/meal-selection/internal/queue"
    "github.com/platewise/meal-selection/internal/repository"
    "github.com/platewise/meal-selection/internal/selection"
)

// PlanSource resolves plan ids to authoritative plan records.
type PlanSource interface {
    GetByID(ctx context.Context, id uint64) (*model.Plan, error)
}

// Stager atomically hydrates the submitted item ids and replaces the
// user's staging row.  repository.SelectionStore is the production
// implementation; tests substitute fakes.
type Stager interface {
    HydrateAndStage(ctx context.Context, rec *model.CheckoutStaging, ids []uint64) error
}

// Publisher announces a staged selection to downstream consumers.  A nil
// Publisher disables publishing; publish failures are logged and ignored
// because the staging row, not the event, is the source of truth.
type Publisher interface {
    PublishSelectionStaged(ctx context.Context, ev queue.SelectionStagedEvent) error
}

// Proposer is the single authority for turning a submitted SelectionMap
// into a staged, validated selection.  It trusts nothing from the client:
// the total is recomputed, every item is re-fetched from the catalog, and
// the result is staged in one transaction.  Because the whole outcome is
// re-derived on every call, resubmitting the same map is idempotent and a
// later submission fully supersedes an earlier one.
type Proposer struct {
    plans     PlanSource
    store     Stager
    publisher Publisher
    drafts    selection.DraftStore
    source    string
}

// NewProposer constructs a Proposer.  plans and store must be non-nil;
// publisher and drafts may be nil, in which case event publishing and
// draft cleanup are skipped.  source becomes the provenance tag written to
// every staging record.
func NewProposer(plans PlanSource, store Stager, publisher Publisher, drafts selection.DraftStore, source string) *Proposer {
    if plans == nil || store == nil {
        panic("nil dependency passed to NewProposer")
    }
    if source == "" {
        source = "selection-api"
    }
    return &Proposer{plans: plans, store: store, publisher: publisher, drafts: drafts, source: source}
}

// Propose validates quantities against the plan, hydrates the items and
// stages the result for checkout.  On success the staged record is
// returned.  Recoverable refusals come back as *Rejection; anything else
// is an infrastructure error.  No rejection path writes to the staging
// store.
func (p *Proposer) Propose(ctx context.Context, userID, planID uint64, quantities model.SelectionMap) (*model.CheckoutStaging, error) {
    if len(quantities) == 0 {
        return nil, &Rejection{Code: ReasonMalformed, Message: "selection is empty"}
    }
    for id, q := range quantities {
        if id == 0 || q <= 0 {
            return nil, &Rejection{Code: ReasonMalformed, Message: "selection contains invalid entries"}
        }
    }
    plan, err := p.plans.GetByID(ctx, planID)
    if err != nil {
        return nil, err
    }
    received := quantities.Total()
    if received != plan.MealsPerWeek {
        return nil, &Rejection{
            Code:     ReasonQuantityMismatch,
            Message:  fmt.Sprintf("plan requires %d meals, selection has %d", plan.MealsPerWeek, received),
            Required: plan.MealsPerWeek,
            Received: received,
        }
    }
    ids := distinctIDs(quantities)
    rec := &model.CheckoutStaging{
        UserID: userID,
        Plan:   *plan,
        Selection: model.ValidatedSelection{
            Quantities: quantities.Clone(),
            Units:      Flatten(quantities),
        },
        Source:   p.source,
        StagedAt: time.Now().UTC(),
    }
    if err := p.store.HydrateAndStage(ctx, rec, ids); err != nil {
        if err == repository.ErrItemsUnavailable {
            return nil, &Rejection{Code: ReasonUnavailable, Message: "some items are no longer available"}
        }
        return nil, err
    }
    // The staged row is committed; draft cleanup and the broker event are
    // best effort from here on.
    if p.drafts != nil {
        if err := p.drafts.Clear(ctx, userID); err != nil {
            log.Printf("proposer: draft cleanup failed for user %d: %v", userID, err)
        }
    }
    if p.publisher != nil {
        if err := p.publisher.PublishSelectionStaged(ctx, stagedEvent(rec)); err != nil {
            log.Printf("proposer: publish staged event failed for user %d: %v", userID, err)
        }
    }
    return rec, nil
}

// Flatten expands a quantity map into the one-entry-per-unit list the
// downstream checkout consumer expects.  Keys are visited in ascending
// order and each id is repeated quantity times, so units stay grouped by
// item for traceability.
func Flatten(quantities model.SelectionMap) []uint64 {
    ids := distinctIDs(quantities)
    units := make([]uint64, 0, quantities.Total())
    for _, id := range ids {
        for i := 0; i < quantities[id]; i++ {
            units = append(units, id)
        }
    }
    return units
}

// distinctIDs returns the map's keys in ascending order.
func distinctIDs(quantities model.SelectionMap) []uint64 {
    ids := make([]uint64, 0, len(quantities))
    for id := range quantities {
        ids = append(ids, id)
    }
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
    return ids
}

// stagedEvent builds the broker payload for a freshly staged selection.
func stagedEvent(rec *model.CheckoutStaging) queue.SelectionStagedEvent {
    names := make([]string, 0, len(rec.Selection.Units))
    for _, id := range rec.Selection.Units {
        if it, ok := rec.Selection.Items[id]; ok {
            names = append(names, it.Name)
        }
    }
    return queue.SelectionStagedEvent{
        UserID:     rec.UserID,
        PlanID:     rec.Plan.ID,
        PlanName:   rec.Plan.Name,
        MealCount:  len(rec.Selection.Units),
        MealNames:  names,
        TotalCents: rec.Selection.TotalCents(),
        StagedAt:   rec.StagedAt.Format(time.RFC3339),
    }
}
