package selection

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/platewise/meal-selection/internal/model"
)

// draftPayload is the serialized form of a persisted draft.  The plan id is
// stored alongside the quantities so that a restore can detect a plan
// switch, and the save timestamp is kept for observability even though the
// store's TTL is what actually enforces the freshness window.
type draftPayload struct {
    PlanID     uint64             `json:"plan_id"`
    Quantities model.SelectionMap `json:"quantities"`
    SavedAt    time.Time          `json:"saved_at"`
}

// DraftStore persists in-progress selections so that an accidental page
// reload does not lose the subscriber's work.  Implementations are scoped
// per user and bounded by a freshness window: a draft older than the window
// is treated as absent.  Restore returns an empty map, never an error, when
// no usable draft exists; a stale or mismatched draft is indistinguishable
// from a fresh start.
type DraftStore interface {
    Save(ctx context.Context, userID, planID uint64, quantities model.SelectionMap) error
    Restore(ctx context.Context, userID, planID uint64) (model.SelectionMap, error)
    Clear(ctx context.Context, userID uint64) error
}

// RedisDraftStore keeps drafts in Redis under draft:<user> keys with the
// configured TTL.  A nil client degrades every operation to a no-op so the
// selection flow keeps working without draft recovery when Redis is down.
type RedisDraftStore struct {
    rdb *redis.Client
    ttl time.Duration
}

// NewRedisDraftStore returns a store bound to the given client and window.
// A non-positive ttl falls back to one hour.
func NewRedisDraftStore(rdb *redis.Client, ttl time.Duration) *RedisDraftStore {
    if ttl <= 0 {
        ttl = time.Hour
    }
    return &RedisDraftStore{rdb: rdb, ttl: ttl}
}

func draftKey(userID uint64) string { return fmt.Sprintf("draft:%d", userID) }

// Save overwrites the user's draft.  Each save restarts the TTL, so the
// window measures time since the last mutation, not since the first.
func (s *RedisDraftStore) Save(ctx context.Context, userID, planID uint64, quantities model.SelectionMap) error {
    if s.rdb == nil {
        return nil
    }
    body, err := json.Marshal(draftPayload{
        PlanID:     planID,
        Quantities: quantities,
        SavedAt:    time.Now().UTC(),
    })
    if err != nil {
        return err
    }
    return s.rdb.SetEx(ctx, draftKey(userID), body, s.ttl).Err()
}

// Restore returns the user's draft quantities when a draft exists, has not
// expired and was saved against the same plan.  In every other case it
// returns an empty map; a draft for a different plan is deleted so it does
// not resurface later.
func (s *RedisDraftStore) Restore(ctx context.Context, userID, planID uint64) (model.SelectionMap, error) {
    empty := make(model.SelectionMap)
    if s.rdb == nil {
        return empty, nil
    }
    raw, err := s.rdb.Get(ctx, draftKey(userID)).Bytes()
    if err == redis.Nil {
        return empty, nil
    }
    if err != nil {
        return empty, err
    }
    var p draftPayload
    if err := json.Unmarshal(raw, &p); err != nil {
        // Corrupt drafts are discarded silently.
        _ = s.rdb.Del(ctx, draftKey(userID)).Err()
        return empty, nil
    }
    if p.PlanID != planID {
        _ = s.rdb.Del(ctx, draftKey(userID)).Err()
        return empty, nil
    }
    if p.Quantities == nil {
        return empty, nil
    }
    return p.Quantities, nil
}

// Clear removes the user's draft, typically after a successful submission.
func (s *RedisDraftStore) Clear(ctx context.Context, userID uint64) error {
    if s.rdb == nil {
        return nil
    }
    return s.rdb.Del(ctx, draftKey(userID)).Err()
}

// memoryDraft is a stored draft plus its expiry, used by MemoryDraftStore.
type memoryDraft struct {
    payload   draftPayload
    expiresAt time.Time
}

// MemoryDraftStore is an in-process DraftStore used in tests and when
// running without Redis.  The Now field can be overridden to control the
// clock; it defaults to time.Now.
type MemoryDraftStore struct {
    mu     sync.Mutex
    ttl    time.Duration
    drafts map[uint64]memoryDraft
    Now    func() time.Time
}

// NewMemoryDraftStore returns an empty in-memory store with the given window.
func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
    if ttl <= 0 {
        ttl = time.Hour
    }
    return &MemoryDraftStore{
        ttl:    ttl,
        drafts: make(map[uint64]memoryDraft),
        Now:    time.Now,
    }
}

// Save stores the draft and stamps its expiry from the store's clock.
func (s *MemoryDraftStore) Save(ctx context.Context, userID, planID uint64, quantities model.SelectionMap) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    now := s.Now().UTC()
    s.drafts[userID] = memoryDraft{
        payload: draftPayload{
            PlanID:     planID,
            Quantities: quantities.Clone(),
            SavedAt:    now,
        },
        expiresAt: now.Add(s.ttl),
    }
    return nil
}

// Restore mirrors RedisDraftStore.Restore: expired or plan-mismatched
// drafts are dropped and an empty map is returned.
func (s *MemoryDraftStore) Restore(ctx context.Context, userID, planID uint64) (model.SelectionMap, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    empty := make(model.SelectionMap)
    d, ok := s.drafts[userID]
    if !ok {
        return empty, nil
    }
    if !s.Now().UTC().Before(d.expiresAt) {
        delete(s.drafts, userID)
        return empty, nil
    }
    if d.payload.PlanID != planID {
        delete(s.drafts, userID)
        return empty, nil
    }
    return d.payload.Quantities.Clone(), nil
}

// Clear removes the user's draft if present.
func (s *MemoryDraftStore) Clear(ctx context.Context, userID uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    delete(s.drafts, userID)
    return nil
}
