// Package loyalty implements the points ledger: accrual on completed orders,
// redemption against a reward catalog, and the per-(customer, shop) balances that
// cache the ledger's sum.
package loyalty

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MikeMC777/cafe-orders/internal/notify"
	"github.com/MikeMC777/cafe-orders/internal/shop"
)

type Ledger struct {
	store   Store
	catalog Catalog
	shops   shop.Directory
	pub     notify.Publisher
	log     *zap.Logger
}

func NewLedger(store Store, catalog Catalog, shops shop.Directory, pub notify.Publisher, log *zap.Logger) *Ledger {
	return &Ledger{store: store, catalog: catalog, shops: shops, pub: pub, log: log.Named("loyalty")}
}

// PlanAccrual computes the credits a completed order earns without writing them.
// Unknown shops accrue at the default rate and stay out of the global program.
func (l *Ledger) PlanAccrual(ctx context.Context, o OrderRef) ([]Credit, error) {
	cfg, err := l.shops.Shop(ctx, o.ShopID)
	switch {
	case errors.Is(err, shop.ErrNotFound):
		l.log.Warn("shop has no loyalty config, using default rate", zap.String("shop_id", o.ShopID))
		cfg = shop.Config{ID: o.ShopID, PointsPerDollar: shop.DefaultPointsPerDollar}
	case err != nil:
		return nil, fmt.Errorf("load shop config: %w", err)
	}
	global, err := l.shops.GlobalProgram(ctx)
	if err != nil {
		return nil, fmt.Errorf("load global program: %w", err)
	}
	return PlanCredits(o, cfg, global), nil
}

// Accrue credits an order's points directly. Order completion goes through the
// order store instead, which commits the credits with the status change.
func (l *Ledger) Accrue(ctx context.Context, o OrderRef) ([]Transaction, error) {
	credits, err := l.PlanAccrual(ctx, o)
	if err != nil {
		return nil, err
	}
	txs, err := l.store.ApplyCredits(ctx, credits)
	if err != nil {
		l.log.Warn("accrual rejected", zap.String("order_id", o.ID), zap.Error(err))
		return nil, err
	}
	l.Announce(o.CustomerID, credits)
	return txs, nil
}

// Announce signals balance changes for the shops the credits touched.
func (l *Ledger) Announce(customerID string, credits []Credit) {
	for _, c := range credits {
		l.log.Info("points accrued",
			zap.String("customer_id", customerID),
			zap.String("shop_id", c.ShopID),
			zap.String("order_id", c.OrderID),
			zap.Int64("points", c.Points))
		l.pub.Publish(notify.Event{
			Topic: notify.CustomerTopic(customerID),
			Kind:  notify.KindBalance,
			Ref:   c.ShopID,
		})
	}
}

type RedeemRequest struct {
	CustomerID     string
	ShopID         string
	RewardID       string
	IdempotencyKey string
}

// Redeem debits the reward's cost from the customer's balance at the reward's shop.
func (l *Ledger) Redeem(ctx context.Context, req RedeemRequest) (*Transaction, *Balance, error) {
	if req.IdempotencyKey == "" {
		return nil, nil, ErrIdempotencyKeyNeeded
	}
	reward, err := l.catalog.GetReward(ctx, req.RewardID)
	if err != nil {
		return nil, nil, err
	}
	if !reward.IsActive || reward.PointsRequired <= 0 {
		return nil, nil, ErrRewardInactive
	}
	if req.ShopID != "" && req.ShopID != reward.ShopID {
		return nil, nil, ErrRewardShopMismatch
	}

	tx, bal, err := l.store.Redeem(ctx, Redemption{
		CustomerID:     req.CustomerID,
		ShopID:         reward.ShopID,
		Reward:         *reward,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		var short *InsufficientPointsError
		var dup *DuplicateRedemptionError
		switch {
		case errors.As(err, &short):
			l.log.Warn("redemption rejected: insufficient points",
				zap.String("customer_id", req.CustomerID),
				zap.String("reward_id", reward.ID),
				zap.Int64("balance", short.Balance),
				zap.Int64("required", short.Required))
		case errors.As(err, &dup):
			l.log.Warn("redemption rejected: duplicate request",
				zap.String("customer_id", req.CustomerID),
				zap.String("original_tx", dup.Original.ID))
		default:
			l.log.Error("redemption failed", zap.String("customer_id", req.CustomerID), zap.Error(err))
		}
		return nil, nil, err
	}

	l.log.Info("reward redeemed",
		zap.String("customer_id", req.CustomerID),
		zap.String("shop_id", reward.ShopID),
		zap.String("reward_id", reward.ID),
		zap.Int64("points", -tx.PointsChange),
		zap.Int64("balance", bal.Points))
	l.pub.Publish(notify.Event{
		Topic: notify.CustomerTopic(req.CustomerID),
		Kind:  notify.KindBalance,
		Ref:   reward.ShopID,
	})
	return tx, bal, nil
}

func (l *Ledger) Balance(ctx context.Context, customerID, shopID string) (*Balance, error) {
	return l.store.Balance(ctx, customerID, shopID)
}

func (l *Ledger) Balances(ctx context.Context, customerID string) ([]Balance, error) {
	return l.store.Balances(ctx, customerID)
}

func (l *Ledger) History(ctx context.Context, customerID, shopID string, limit int) ([]Transaction, error) {
	return l.store.Transactions(ctx, customerID, shopID, limit)
}

// Reconcile rewrites a cached balance from the ledger sum when they disagree.
func (l *Ledger) Reconcile(ctx context.Context, customerID, shopID string) (*Reconciliation, error) {
	rec, err := l.store.Reconcile(ctx, customerID, shopID)
	if err != nil {
		return nil, err
	}
	if rec.Repaired {
		l.log.Warn("balance drifted from ledger, repaired",
			zap.String("customer_id", customerID),
			zap.String("shop_id", shopID),
			zap.Int64("cached", rec.Cached),
			zap.Int64("ledger_sum", rec.LedgerSum))
		l.pub.Publish(notify.Event{Topic: notify.CustomerTopic(customerID), Kind: notify.KindBalance, Ref: shopID})
	}
	return rec, nil
}

func (l *Ledger) ListActiveRewards(ctx context.Context, shopID string) ([]Reward, error) {
	return l.catalog.ListActiveRewards(ctx, shopID)
}

func (l *Ledger) GetReward(ctx context.Context, rewardID string) (*Reward, error) {
	return l.catalog.GetReward(ctx, rewardID)
}
