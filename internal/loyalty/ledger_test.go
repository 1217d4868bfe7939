package loyalty

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MikeMC777/cafe-orders/internal/notify"
	"github.com/MikeMC777/cafe-orders/internal/shop"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(ev notify.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newTestLedger(t *testing.T) (*Ledger, *MemoryStore, *MemoryCatalog, *recordingPublisher) {
	t.Helper()
	store := NewMemoryStore()
	catalog := NewMemoryCatalog([]Reward{
		{ID: "r100", ShopID: "s1", Name: "Free latte", PointsRequired: 100, IsActive: true},
		{ID: "r50", ShopID: "s1", Name: "Cookie", PointsRequired: 50, IsActive: true},
		{ID: "old", ShopID: "s1", Name: "Retired mug", PointsRequired: 10, IsActive: false},
		{ID: "g200", ShopID: shop.GlobalShopID, Name: "Platform tote", PointsRequired: 200, IsActive: true},
	})
	shops := shop.NewStaticDirectory([]shop.Config{
		{ID: "s1", PointsPerDollar: dec("10"), GlobalProgram: true},
		{ID: "s2", PointsPerDollar: dec("5")},
	}, shop.Program{PointsPerDollar: dec("1")})
	pub := &recordingPublisher{}
	return NewLedger(store, catalog, shops, pub, zap.NewNop()), store, catalog, pub
}

func TestLedger_AccrueOnceAndPublish(t *testing.T) {
	l, _, _, pub := newTestLedger(t)
	ctx := context.Background()
	o := OrderRef{ID: "o1", CustomerID: "c1", ShopID: "s1", Subtotal: dec("10.00")}

	txs, err := l.Accrue(ctx, o)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, 2, pub.count())

	_, err = l.Accrue(ctx, o)
	assert.ErrorIs(t, err, ErrDuplicateAccrual)

	b, _ := l.Balance(ctx, "c1", "s1")
	assert.EqualValues(t, 100, b.Points)
	g, _ := l.Balance(ctx, "c1", shop.GlobalShopID)
	assert.EqualValues(t, 10, g.Points)
}

func TestLedger_PlanAccrual_UnknownShopUsesDefault(t *testing.T) {
	l, _, _, _ := newTestLedger(t)
	credits, err := l.PlanAccrual(context.Background(), OrderRef{ID: "o1", CustomerID: "c1", ShopID: "nowhere", Subtotal: dec("3.00")})
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.EqualValues(t, 30, credits[0].Points)
}

func TestLedger_Redeem_InsufficientLeavesBalance(t *testing.T) {
	l, store, _, pub := newTestLedger(t)
	ctx := context.Background()
	_, err := store.ApplyCredits(ctx, []Credit{{CustomerID: "c1", ShopID: "s1", OrderID: "o1", Points: 80}})
	require.NoError(t, err)

	_, _, err = l.Redeem(ctx, RedeemRequest{CustomerID: "c1", RewardID: "r100", IdempotencyKey: "k1"})
	var short *InsufficientPointsError
	require.ErrorAs(t, err, &short)
	assert.EqualValues(t, 20, short.Shortfall())

	b, _ := l.Balance(ctx, "c1", "s1")
	assert.EqualValues(t, 80, b.Points)
	assert.Equal(t, 0, pub.count())
}

func TestLedger_Redeem_SuccessAndRetry(t *testing.T) {
	l, store, catalog, pub := newTestLedger(t)
	ctx := context.Background()
	_, err := store.ApplyCredits(ctx, []Credit{{CustomerID: "c1", ShopID: "s1", OrderID: "o1", Points: 120}})
	require.NoError(t, err)

	tx, bal, err := l.Redeem(ctx, RedeemRequest{CustomerID: "c1", ShopID: "s1", RewardID: "r100", IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.EqualValues(t, 20, bal.Points)
	assert.Equal(t, "Free latte", tx.RewardName)
	assert.Equal(t, 1, pub.count())

	// Renaming the reward later does not touch the recorded snapshot.
	catalog.Put(Reward{ID: "r100", ShopID: "s1", Name: "Latte (any size)", PointsRequired: 90, IsActive: true})
	hist, err := l.History(ctx, "c1", "s1", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "Free latte", hist[0].RewardName)
	assert.EqualValues(t, 100, hist[0].RewardCost)

	_, _, err = l.Redeem(ctx, RedeemRequest{CustomerID: "c1", RewardID: "r100", IdempotencyKey: "k1"})
	assert.ErrorIs(t, err, ErrDuplicateRedemption)
	b, _ := l.Balance(ctx, "c1", "s1")
	assert.EqualValues(t, 20, b.Points)
}

func TestLedger_Redeem_Rejections(t *testing.T) {
	l, _, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, _, err := l.Redeem(ctx, RedeemRequest{CustomerID: "c1", RewardID: "r100"})
	assert.ErrorIs(t, err, ErrIdempotencyKeyNeeded)

	_, _, err = l.Redeem(ctx, RedeemRequest{CustomerID: "c1", RewardID: "missing", IdempotencyKey: "k"})
	assert.ErrorIs(t, err, ErrRewardNotFound)

	_, _, err = l.Redeem(ctx, RedeemRequest{CustomerID: "c1", RewardID: "old", IdempotencyKey: "k"})
	assert.ErrorIs(t, err, ErrRewardInactive)

	_, _, err = l.Redeem(ctx, RedeemRequest{CustomerID: "c1", ShopID: "s2", RewardID: "r50", IdempotencyKey: "k"})
	assert.ErrorIs(t, err, ErrRewardShopMismatch)
}

func TestLedger_GlobalRewardDebitsGlobalPool(t *testing.T) {
	l, store, _, _ := newTestLedger(t)
	ctx := context.Background()
	_, err := store.ApplyCredits(ctx, []Credit{
		{CustomerID: "c1", ShopID: shop.GlobalShopID, OrderID: "o1", Points: 250},
		{CustomerID: "c1", ShopID: "s1", OrderID: "o1", Points: 500},
	})
	require.NoError(t, err)

	_, bal, err := l.Redeem(ctx, RedeemRequest{CustomerID: "c1", RewardID: "g200", IdempotencyKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, shop.GlobalShopID, bal.ShopID)
	assert.EqualValues(t, 50, bal.Points)
	s1, _ := l.Balance(ctx, "c1", "s1")
	assert.EqualValues(t, 500, s1.Points)
}

func TestLedger_ListActiveRewards(t *testing.T) {
	l, _, _, _ := newTestLedger(t)
	rewards, err := l.ListActiveRewards(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, rewards, 2)
	assert.Equal(t, "r50", rewards[0].ID)
	assert.Equal(t, "r100", rewards[1].ID)
}
