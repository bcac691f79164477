package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "time"

    "github.com/platewise/meal-selection/internal/model"
)

// StagingRecord is the persistence model for a staged selection.  The plan
// and the validated selection are stored as JSON columns so the checkout
// reader gets back exactly what validation produced, without re-joining the
// catalog tables (which may have drifted again by checkout time).
type StagingRecord struct {
    ID         uint64    // checkout_staging.id
    UserID     uint64    // checkout_staging.user_id (unique)
    PlanJSON   []byte    // checkout_staging.plan
    QuantJSON  []byte    // checkout_staging.quantities
    UnitsJSON  []byte    // checkout_staging.units
    ItemsJSON  []byte    // checkout_staging.items
    Source     string    // checkout_staging.source
    StagedAt   time.Time // checkout_staging.staged_at
}

// StagingRepo provides access to the checkout_staging table.  The table
// holds at most one row per user; every successful validation overwrites
// that row atomically, so a later submission fully supersedes an earlier
// one and a failed validation never touches it at all.
type StagingRepo struct {
    db *sql.DB
}

// NewStagingRepo returns a new StagingRepo bound to the provided database.
func NewStagingRepo(db *sql.DB) *StagingRepo { return &StagingRepo{db: db} }

// DB exposes the underlying handle for transaction management.
func (r *StagingRepo) DB() *sql.DB { return r.db }

// UpsertTx writes the staging row for a user inside the provided
// transaction, replacing any previous row for the same user.  The unique
// key on user_id turns concurrent submissions from two tabs into ordinary
// last-writer-wins, which is the documented behaviour.  The caller commits
// or rolls back.
func (r *StagingRepo) UpsertTx(ctx context.Context, tx *sql.Tx, rec *StagingRecord) error {
    const q = `INSERT INTO checkout_staging
                   (user_id, plan, quantities, units, items, source, staged_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE
                   plan = VALUES(plan),
                   quantities = VALUES(quantities),
                   units = VALUES(units),
                   items = VALUES(items),
                   source = VALUES(source),
                   staged_at = VALUES(staged_at)`
    _, err := tx.ExecContext(ctx, q,
        rec.UserID, rec.PlanJSON, rec.QuantJSON, rec.UnitsJSON, rec.ItemsJSON,
        rec.Source, rec.StagedAt.UTC().Format("2006-01-02 15:04:05"),
    )
    return err
}

// GetByUser loads the staged selection for a user and decodes the JSON
// columns back into the domain model.  It returns ErrNoStaging when the
// user has nothing staged.
func (r *StagingRepo) GetByUser(ctx context.Context, userID uint64) (*model.CheckoutStaging, error) {
    const q = `SELECT id, user_id, plan, quantities, units, items, source, staged_at
               FROM checkout_staging WHERE user_id = ?`
    var rec StagingRecord
    err := r.db.QueryRowContext(ctx, q, userID).Scan(
        &rec.ID, &rec.UserID, &rec.PlanJSON, &rec.QuantJSON, &rec.UnitsJSON,
        &rec.ItemsJSON, &rec.Source, &rec.StagedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNoStaging
    }
    if err != nil {
        return nil, err
    }
    return decodeStaging(&rec)
}

// DeleteByUser removes a user's staged selection, used when the external
// checkout step reports that it has consumed the record.
func (r *StagingRepo) DeleteByUser(ctx context.Context, userID uint64) error {
    _, err := r.db.ExecContext(ctx, `DELETE FROM checkout_staging WHERE user_id = ?`, userID)
    return err
}

// EncodeStaging converts a domain staging record into its persistence form.
// Encoding happens before the transaction opens so a marshal failure cannot
// abort a half-written row.
func EncodeStaging(s *model.CheckoutStaging) (*StagingRecord, error) {
    planJSON, err := json.Marshal(s.Plan)
    if err != nil {
        return nil, err
    }
    quantJSON, err := json.Marshal(s.Selection.Quantities)
    if err != nil {
        return nil, err
    }
    unitsJSON, err := json.Marshal(s.Selection.Units)
    if err != nil {
        return nil, err
    }
    itemsJSON, err := json.Marshal(s.Selection.Items)
    if err != nil {
        return nil, err
    }
    return &StagingRecord{
        UserID:    s.UserID,
        PlanJSON:  planJSON,
        QuantJSON: quantJSON,
        UnitsJSON: unitsJSON,
        ItemsJSON: itemsJSON,
        Source:    s.Source,
        StagedAt:  s.StagedAt,
    }, nil
}

func decodeStaging(rec *StagingRecord) (*model.CheckoutStaging, error) {
    out := &model.CheckoutStaging{
        ID:       rec.ID,
        UserID:   rec.UserID,
        Source:   rec.Source,
        StagedAt: rec.StagedAt,
    }
    if err := json.Unmarshal(rec.PlanJSON, &out.Plan); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(rec.QuantJSON, &out.Selection.Quantities); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(rec.UnitsJSON, &out.Selection.Units); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(rec.ItemsJSON, &out.Selection.Items); err != nil {
        return nil, err
    }
    return out, nil
}
