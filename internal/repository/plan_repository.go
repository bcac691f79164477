package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/platewise/meal-selection/internal/model"
)

// PlanRepo provides read access to the plans table.  Plans are owned by the
// plan management flow; the selection service only resolves them by id to
// learn the required meal count and display price.
type PlanRepo struct {
    db *sql.DB
}

// NewPlanRepo returns a new PlanRepo bound to the provided database.
func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span multiple repositories.
func (r *PlanRepo) DB() *sql.DB { return r.db }

// GetByID fetches a single plan.  It returns ErrPlanNotFound when the id
// does not resolve, which callers treat as "refuse to render a selection
// surface" rather than a server fault.
func (r *PlanRepo) GetByID(ctx context.Context, id uint64) (*model.Plan, error) {
    const q = `SELECT id, name, meals_per_week, price_cents FROM plans WHERE id = ?`
    var p model.Plan
    err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.MealsPerWeek, &p.PriceCents)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrPlanNotFound
    }
    if err != nil {
        return nil, err
    }
    return &p, nil
}
