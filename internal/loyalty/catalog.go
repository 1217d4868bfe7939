package loyalty

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Catalog is the read side of shop-defined rewards.
type Catalog interface {
	ListActiveRewards(ctx context.Context, shopID string) ([]Reward, error)
	GetReward(ctx context.Context, rewardID string) (*Reward, error)
}

type MemoryCatalog struct {
	mu      sync.RWMutex
	rewards map[string]Reward
}

func NewMemoryCatalog(rewards []Reward) *MemoryCatalog {
	c := &MemoryCatalog{rewards: make(map[string]Reward, len(rewards))}
	for _, r := range rewards {
		c.Put(r)
	}
	return c
}

// Put adds or edits a reward. Past redemptions keep their own snapshot.
func (c *MemoryCatalog) Put(r Reward) {
	now := time.Now().UTC()
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.rewards[r.ID]; ok {
		r.CreatedAt = old.CreatedAt
	} else if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	c.rewards[r.ID] = r
}

func (c *MemoryCatalog) ListActiveRewards(_ context.Context, shopID string) ([]Reward, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Reward, 0)
	for _, r := range c.rewards {
		if r.ShopID == shopID && r.IsActive {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PointsRequired != out[j].PointsRequired {
			return out[i].PointsRequired < out[j].PointsRequired
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *MemoryCatalog) GetReward(_ context.Context, rewardID string) (*Reward, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rewards[rewardID]
	if !ok {
		return nil, ErrRewardNotFound
	}
	return &r, nil
}

type PGCatalog struct{ db *pgxpool.Pool }

func NewPGCatalog(db *pgxpool.Pool) *PGCatalog { return &PGCatalog{db: db} }

func (c *PGCatalog) ListActiveRewards(ctx context.Context, shopID string) ([]Reward, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := c.db.Query(ctx, `
		SELECT id, shop_id, name, description, points_required, is_active, created_at, updated_at
		FROM loyalty_rewards
		WHERE shop_id=$1 AND is_active
		ORDER BY points_required, id
	`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Reward, 0)
	for rows.Next() {
		var r Reward
		if err := rows.Scan(&r.ID, &r.ShopID, &r.Name, &r.Description, &r.PointsRequired, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (c *PGCatalog) GetReward(ctx context.Context, rewardID string) (*Reward, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var r Reward
	err := c.db.QueryRow(ctx, `
		SELECT id, shop_id, name, description, points_required, is_active, created_at, updated_at
		FROM loyalty_rewards WHERE id=$1
	`, rewardID).Scan(&r.ID, &r.ShopID, &r.Name, &r.Description, &r.PointsRequired, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRewardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Upsert writes seed rewards.
func (c *PGCatalog) Upsert(ctx context.Context, rewards []Reward) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, r := range rewards {
		batch.Queue(`
			INSERT INTO loyalty_rewards (id, shop_id, name, description, points_required, is_active, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name,
			    description = EXCLUDED.description,
			    points_required = EXCLUDED.points_required,
			    is_active = EXCLUDED.is_active,
			    updated_at = NOW()
		`, r.ID, r.ShopID, r.Name, r.Description, r.PointsRequired, r.IsActive)
	}
	return c.db.SendBatch(ctx, batch).Close()
}
