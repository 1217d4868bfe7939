package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PGStore struct{ db *pgxpool.Pool }

func NewPGStore(db *pgxpool.Pool) *PGStore { return &PGStore{db: db} }

const txColumns = `id, customer_id, shop_id, points_change, type,
	COALESCE(related_order_id,''), COALESCE(related_reward_id,''),
	COALESCE(reward_name,''), COALESCE(reward_cost,0), COALESCE(idempotency_key,''), created_at`

func (s *PGStore) ApplyCredits(ctx context.Context, credits []Credit) ([]Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out, err := s.ApplyCreditsTx(ctx, tx, credits)
	if err != nil {
		return nil, err
	}
	return out, tx.Commit(ctx)
}

// ApplyCreditsTx writes earned transactions and bumps the cached balances inside the
// caller's transaction, so an order's status change and its accrual commit together.
func (s *PGStore) ApplyCreditsTx(ctx context.Context, tx pgx.Tx, credits []Credit) ([]Transaction, error) {
	out := make([]Transaction, 0, len(credits))
	for _, c := range credits {
		t := Transaction{
			ID:             uuid.NewString(),
			CustomerID:     c.CustomerID,
			ShopID:         c.ShopID,
			PointsChange:   c.Points,
			Type:           TxEarned,
			RelatedOrderID: c.OrderID,
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO loyalty_transactions (id, customer_id, shop_id, points_change, type, related_order_id, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,NOW())
			RETURNING created_at
		`, t.ID, t.CustomerID, t.ShopID, t.PointsChange, t.Type, t.RelatedOrderID).Scan(&t.CreatedAt)
		if isUniqueViolation(err) {
			return nil, ErrDuplicateAccrual
		}
		if err != nil {
			return nil, fmt.Errorf("insert earned transaction: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO loyalty_balances (customer_id, shop_id, points, updated_at)
			VALUES ($1,$2,$3,NOW())
			ON CONFLICT (customer_id, shop_id)
			DO UPDATE SET points = loyalty_balances.points + EXCLUDED.points, updated_at = NOW()
		`, c.CustomerID, c.ShopID, c.Points); err != nil {
			return nil, fmt.Errorf("credit balance: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Redeem debits with a conditional UPDATE so the balance check and the decrement are
// one statement under the row lock. Concurrent redemptions serialize on that row.
func (s *PGStore) Redeem(ctx context.Context, r Redemption) (*Transaction, *Balance, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if orig, err := findByIdempotencyKey(ctx, tx, r.CustomerID, r.IdempotencyKey); err == nil {
		return nil, nil, &DuplicateRedemptionError{Original: *orig}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	cost := r.Reward.PointsRequired
	b := Balance{CustomerID: r.CustomerID, ShopID: r.ShopID}
	err = tx.QueryRow(ctx, `
		UPDATE loyalty_balances
		SET points = points - $3, updated_at = NOW()
		WHERE customer_id = $1 AND shop_id = $2 AND points >= $3
		RETURNING points, updated_at
	`, r.CustomerID, r.ShopID, cost).Scan(&b.Points, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		cur, err := balanceOf(ctx, tx, r.CustomerID, r.ShopID)
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, &InsufficientPointsError{Balance: cur.Points, Required: cost}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("debit balance: %w", err)
	}

	t := Transaction{
		ID:              uuid.NewString(),
		CustomerID:      r.CustomerID,
		ShopID:          r.ShopID,
		PointsChange:    -cost,
		Type:            TxRedeemed,
		RelatedRewardID: r.Reward.ID,
		RewardName:      r.Reward.Name,
		RewardCost:      cost,
		IdempotencyKey:  r.IdempotencyKey,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO loyalty_transactions
			(id, customer_id, shop_id, points_change, type, related_reward_id, reward_name, reward_cost, idempotency_key, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
		RETURNING created_at
	`, t.ID, t.CustomerID, t.ShopID, t.PointsChange, t.Type, t.RelatedRewardID, t.RewardName, t.RewardCost, t.IdempotencyKey).Scan(&t.CreatedAt)
	if isUniqueViolation(err) {
		// A concurrent request with the same key committed first; our debit rolls back.
		_ = tx.Rollback(ctx)
		orig, ferr := findByIdempotencyKey(ctx, s.db, r.CustomerID, r.IdempotencyKey)
		if ferr != nil {
			return nil, nil, fmt.Errorf("load original redemption: %w", ferr)
		}
		return nil, nil, &DuplicateRedemptionError{Original: *orig}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("insert redeemed transaction: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return &t, &b, nil
}

func (s *PGStore) Balance(ctx context.Context, customerID, shopID string) (*Balance, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return balanceOf(ctx, s.db, customerID, shopID)
}

func (s *PGStore) Balances(ctx context.Context, customerID string) ([]Balance, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT customer_id, shop_id, points, updated_at
		FROM loyalty_balances WHERE customer_id=$1
		ORDER BY shop_id
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Balance, 0)
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.CustomerID, &b.ShopID, &b.Points, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PGStore) Transactions(ctx context.Context, customerID, shopID string, limit int) ([]Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+txColumns+`
		FROM loyalty_transactions
		WHERE customer_id=$1 AND ($2 = '' OR shop_id = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, customerID, shopID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *PGStore) Reconcile(ctx context.Context, customerID, shopID string) (*Reconciliation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec := &Reconciliation{CustomerID: customerID, ShopID: shopID}
	err = tx.QueryRow(ctx, `
		SELECT points FROM loyalty_balances
		WHERE customer_id=$1 AND shop_id=$2
		FOR UPDATE
	`, customerID, shopID).Scan(&rec.Cached)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(points_change),0)
		FROM loyalty_transactions
		WHERE customer_id=$1 AND shop_id=$2
	`, customerID, shopID).Scan(&rec.LedgerSum); err != nil {
		return nil, err
	}
	if rec.Cached != rec.LedgerSum {
		if _, err := tx.Exec(ctx, `
			INSERT INTO loyalty_balances (customer_id, shop_id, points, updated_at)
			VALUES ($1,$2,$3,NOW())
			ON CONFLICT (customer_id, shop_id)
			DO UPDATE SET points = EXCLUDED.points, updated_at = NOW()
		`, customerID, shopID, rec.LedgerSum); err != nil {
			return nil, fmt.Errorf("repair balance: %w", err)
		}
		rec.Repaired = true
	}
	return rec, tx.Commit(ctx)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func balanceOf(ctx context.Context, q querier, customerID, shopID string) (*Balance, error) {
	b := Balance{CustomerID: customerID, ShopID: shopID}
	err := q.QueryRow(ctx, `
		SELECT points, updated_at FROM loyalty_balances
		WHERE customer_id=$1 AND shop_id=$2
	`, customerID, shopID).Scan(&b.Points, &b.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return &b, nil
}

func findByIdempotencyKey(ctx context.Context, q querier, customerID, key string) (*Transaction, error) {
	return scanTx(q.QueryRow(ctx, `
		SELECT `+txColumns+`
		FROM loyalty_transactions
		WHERE customer_id=$1 AND idempotency_key=$2
	`, customerID, key))
}

func scanTx(row pgx.Row) (*Transaction, error) {
	var t Transaction
	if err := row.Scan(&t.ID, &t.CustomerID, &t.ShopID, &t.PointsChange, &t.Type,
		&t.RelatedOrderID, &t.RelatedRewardID, &t.RewardName, &t.RewardCost, &t.IdempotencyKey, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
