// Package menu provides the read side of shop menus: items, their authoritative prices
// and customization pricing rules, backed by PostgreSQL or an in-memory seed.
package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("menu item not found")
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Item, error)
	ListByShop(ctx context.Context, shopID string) ([]Item, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	it, err := scanItem(r.db.QueryRow(ctx, `
		SELECT id, shop_id, name, description, price::text, available, customizations, created_at, updated_at
		FROM menu_items WHERE id=$1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *PGRepo) ListByShop(ctx context.Context, shopID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, shop_id, name, description, price::text, available, customizations, created_at, updated_at
		FROM menu_items WHERE shop_id=$1
		ORDER BY name
	`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

// Upsert writes seed items. Menu editing itself lives outside this service.
func (r *PGRepo) Upsert(ctx context.Context, items []Item) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, it := range items {
		custom, err := json.Marshal(it.Customizations)
		if err != nil {
			return fmt.Errorf("encode customizations for %s: %w", it.ID, err)
		}
		batch.Queue(`
			INSERT INTO menu_items (id, shop_id, name, description, price, available, customizations, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name,
			    description = EXCLUDED.description,
			    price = EXCLUDED.price,
			    available = EXCLUDED.available,
			    customizations = EXCLUDED.customizations,
			    updated_at = NOW()
		`, it.ID, it.ShopID, it.Name, it.Description, it.Price.String(), it.Available, custom)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

func scanItem(row pgx.Row) (*Item, error) {
	var (
		it     Item
		price  string
		custom []byte
	)
	if err := row.Scan(&it.ID, &it.ShopID, &it.Name, &it.Description, &price, &it.Available, &custom, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("menu item %s price %q: %w", it.ID, price, err)
	}
	it.Price = p
	if len(custom) > 0 {
		if err := json.Unmarshal(custom, &it.Customizations); err != nil {
			return nil, fmt.Errorf("menu item %s customizations: %w", it.ID, err)
		}
	}
	return &it, nil
}

// MemoryRepo serves menu items from the seed file.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Item
}

func NewMemoryRepo(items []Item) *MemoryRepo {
	r := &MemoryRepo{items: make(map[string]Item, len(items))}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

func (r *MemoryRepo) Put(it Item) {
	r.mu.Lock()
	r.items[it.ID] = it
	r.mu.Unlock()
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	it.Customizations = append([]Customization(nil), it.Customizations...)
	return &it, nil
}

func (r *MemoryRepo) ListByShop(_ context.Context, shopID string) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Item, 0)
	for _, it := range r.items {
		if it.ShopID == shopID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
