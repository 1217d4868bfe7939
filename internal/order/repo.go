package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/cafe-orders/internal/loyalty"
)

// NoLimit asks ListByShop for every matching order.
const NoLimit = -1

// shopPageLimit clamps a ListByShop limit; nil means unbounded.
func shopPageLimit(limit int) *int {
	if limit == NoLimit {
		return nil
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	return &limit
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// ListByShop returns the shop's orders oldest first; no statuses means all.
	// A zero limit pages at the default size, NoLimit returns every match.
	ListByShop(ctx context.Context, shopID string, statuses []Status, limit int) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error)
	// CompareAndSetStatus moves the order to next only if it is still in expected.
	CompareAndSetStatus(ctx context.Context, id string, expected, next Status) (*Order, error)
	// CompleteWithAccrual is CompareAndSetStatus to completed that also records
	// earned points and applies the loyalty credits in the same unit of work.
	CompleteWithAccrual(ctx context.Context, id string, expected Status, earned int64, credits []loyalty.Credit) (*Order, error)
}

const orderColumns = `id, shop_id, customer_id, status, subtotal::text, tax::text, total::text,
	loyalty_points_earned, created_at, updated_at`

type PGRepo struct {
	db     *pgxpool.Pool
	ledger *loyalty.PGStore
}

func NewPGRepo(db *pgxpool.Pool, ledger *loyalty.PGStore) *PGRepo {
	return &PGRepo{db: db, ledger: ledger}
}

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (id, shop_id, customer_id, status, subtotal, tax, total, loyalty_points_earned, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,0,$8,$8)
	`, o.ID, o.ShopID, o.CustomerID, o.Status, o.Subtotal.String(), o.Tax.String(), o.Total.String(), o.CreatedAt); err != nil {
		return err
	}

	for _, it := range o.Items {
		custom, err := json.Marshal(it.Customizations)
		if err != nil {
			return fmt.Errorf("encode customizations for line %s: %w", it.ID, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, menu_item_id, name, quantity, unit_price, customizations)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, it.ID, o.ID, it.MenuItemID, it.Name, it.Quantity, it.UnitPrice.String(), custom); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) ListByShop(ctx context.Context, shopID string, statuses []Status, limit int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	want := make([]string, len(statuses))
	for i, s := range statuses {
		want[i] = string(s)
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE shop_id=$1 AND (cardinality($2::text[]) = 0 OR status = ANY($2))
		ORDER BY created_at ASC
		LIMIT $3
	`, shopID, want, shopPageLimit(limit))
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

func (r *PGRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE customer_id=$1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

func (r *PGRepo) CompareAndSetStatus(ctx context.Context, id string, expected, next Status) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+orderColumns, id, expected, next))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.lostRace(ctx, r.db, id, next)
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) CompleteWithAccrual(ctx context.Context, id string, expected Status, earned int64, credits []loyalty.Credit) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders
		SET status = $3, loyalty_points_earned = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+orderColumns, id, expected, StatusCompleted, earned))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.lostRace(ctx, tx, id, StatusCompleted)
	}
	if err != nil {
		return nil, err
	}
	if _, err := r.ledger.ApplyCreditsTx(ctx, tx, credits); err != nil {
		return nil, fmt.Errorf("accrue points for order %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// lostRace distinguishes a missing order from one whose status moved on.
func (r *PGRepo) lostRace(ctx context.Context, q querier, id string, target Status) error {
	var cur Status
	err := q.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, id).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return &TransitionError{OrderID: id, Current: cur, Target: target, Err: ErrStaleStatus}
}

func (r *PGRepo) collect(ctx context.Context, rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var ptrs []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()
	if err := r.attachItems(ctx, ptrs); err != nil {
		return nil, err
	}
	out := make([]Order, len(ptrs))
	for i, o := range ptrs {
		out[i] = *o
	}
	return out, nil
}

// attachItems loads line items for all orders in one query.
func (r *PGRepo) attachItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		o.Items = make([]LineItem, 0)
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, name, quantity, unit_price::text, customizations
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it     LineItem
			price  string
			custom []byte
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &price, &custom); err != nil {
			return err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("line %s unit price %q: %w", it.ID, price, err)
		}
		if len(custom) > 0 {
			if err := json.Unmarshal(custom, &it.Customizations); err != nil {
				return fmt.Errorf("line %s customizations: %w", it.ID, err)
			}
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o                    Order
		subtotal, tax, total string
	)
	if err := row.Scan(&o.ID, &o.ShopID, &o.CustomerID, &o.Status, &subtotal, &tax, &total,
		&o.LoyaltyPointsEarned, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("order %s subtotal %q: %w", o.ID, subtotal, err)
	}
	if o.Tax, err = decimal.NewFromString(tax); err != nil {
		return nil, fmt.Errorf("order %s tax %q: %w", o.ID, tax, err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %s total %q: %w", o.ID, total, err)
	}
	return &o, nil
}
