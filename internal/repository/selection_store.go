package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/platewise/meal-selection/internal/model"
)

// ErrItemsUnavailable is returned by HydrateAndStage when one or more of
// the submitted item ids no longer resolve to an available menu item.  The
// service layer maps this to the availability-drift rejection; which items
// are missing is deliberately not reported.
var ErrItemsUnavailable = errors.New("one or more items are no longer available")

// SelectionStore bundles catalog hydration and the staging write behind a
// single transaction.  Re-fetching the items and replacing the staging row
// in one transaction guarantees that a staged record always reflects
// catalog rows that were available at the moment of staging, and that a
// rejected submission leaves any previously staged row untouched.
type SelectionStore struct {
    db      *sql.DB
    items   *MenuItemRepo
    staging *StagingRepo
}

// NewSelectionStore constructs a SelectionStore.  All dependencies must be
// non-nil and bound to the same database.
func NewSelectionStore(db *sql.DB, items *MenuItemRepo, staging *StagingRepo) *SelectionStore {
    if db == nil || items == nil || staging == nil {
        panic("nil dependency passed to NewSelectionStore")
    }
    return &SelectionStore{db: db, items: items, staging: staging}
}

// HydrateAndStage re-fetches the authoritative records for ids and, when
// every id resolves to an available item, fills rec.Selection.Items with
// them and upserts the staging row, all inside one transaction.  When any
// id fails to resolve the transaction is rolled back and
// ErrItemsUnavailable is returned; rec is left with whatever hydration was
// gathered but nothing is persisted.
func (s *SelectionStore) HydrateAndStage(ctx context.Context, rec *model.CheckoutStaging, ids []uint64) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    items, err := s.items.AvailableByIDsTx(ctx, tx, ids)
    if err != nil {
        return err
    }
    if len(items) != len(ids) {
        return ErrItemsUnavailable
    }
    rec.Selection.Items = items
    encoded, err := EncodeStaging(rec)
    if err != nil {
        return err
    }
    if err := s.staging.UpsertTx(ctx, tx, encoded); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}
