package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/platewise/meal-selection/internal/model"
)

// MenuItemRepo provides read access to the menu_items table.  The catalog
// is written by an external admin tool; this repository only lists and
// re-fetches items.  All availability checks read is_available at query
// time, which is what lets validation catch items disabled between the
// client's page load and its submission.
type MenuItemRepo struct {
    db *sql.DB
}

// NewMenuItemRepo returns a new MenuItemRepo bound to the provided database.
func NewMenuItemRepo(db *sql.DB) *MenuItemRepo { return &MenuItemRepo{db: db} }

// ListAvailable returns every currently available menu item ordered by
// category then name, the order the selection page renders them in.  An
// optional category narrows the listing; pass "" for the full menu.
func (r *MenuItemRepo) ListAvailable(ctx context.Context, category string) ([]model.MenuItem, error) {
    q := `SELECT id, name, price_cents, category, is_available
          FROM menu_items
          WHERE is_available = 1`
    args := []interface{}{}
    if category != "" {
        q += ` AND category = ?`
        args = append(args, category)
    }
    q += ` ORDER BY category, name`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var items []model.MenuItem
    for rows.Next() {
        var it model.MenuItem
        if err := rows.Scan(&it.ID, &it.Name, &it.PriceCents, &it.Category, &it.Available); err != nil {
            return nil, err
        }
        items = append(items, it)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return items, nil
}

// Categories returns the distinct category labels present among available
// items.  The selection page uses them to build its filter tabs; filtering
// itself is presentation-only and never touches a selection.
func (r *MenuItemRepo) Categories(ctx context.Context) ([]string, error) {
    const q = `SELECT DISTINCT category FROM menu_items WHERE is_available = 1 ORDER BY category`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var cats []string
    for rows.Next() {
        var c string
        if err := rows.Scan(&c); err != nil {
            return nil, err
        }
        cats = append(cats, c)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return cats, nil
}

// AvailableByIDsTx re-fetches the authoritative records for exactly the
// given item ids, restricted to currently available items.  Items that have
// been removed or disabled simply do not appear in the result; the caller
// detects catalog drift by comparing the result count against the number of
// distinct ids it asked for.  Passing an empty slice returns an empty map.
func (r *MenuItemRepo) AvailableByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) (map[uint64]model.MenuItem, error) {
    out := make(map[uint64]model.MenuItem, len(ids))
    if len(ids) == 0 {
        return out, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
    q := `SELECT id, name, price_cents, category, is_available
          FROM menu_items
          WHERE is_available = 1 AND id IN (` + placeholders + `)`
    args := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        args = append(args, id)
    }
    rows, err := tx.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var it model.MenuItem
        if err := rows.Scan(&it.ID, &it.Name, &it.PriceCents, &it.Category, &it.Available); err != nil {
            return nil, err
        }
        out[it.ID] = it
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
