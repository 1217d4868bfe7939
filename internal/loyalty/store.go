package loyalty

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists balances and the transaction log. Every mutation updates the
// ledger and the cached balance together or not at all.
type Store interface {
	ApplyCredits(ctx context.Context, credits []Credit) ([]Transaction, error)
	Redeem(ctx context.Context, r Redemption) (*Transaction, *Balance, error)
	Balance(ctx context.Context, customerID, shopID string) (*Balance, error)
	Balances(ctx context.Context, customerID string) ([]Balance, error)
	Transactions(ctx context.Context, customerID, shopID string, limit int) ([]Transaction, error)
	Reconcile(ctx context.Context, customerID, shopID string) (*Reconciliation, error)
}

// pairKey keys balances by (customer, shop) and idempotency entries by (customer, key).
type pairKey struct{ customer, shop string }

// MemoryStore is a Store guarded by a single mutex.
type MemoryStore struct {
	mu       sync.Mutex
	balances map[pairKey]Balance
	txs      []Transaction
	byIdem   map[pairKey]int // (customer, idempotency key) -> index in txs
	accrued  map[pairKey]bool
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances: make(map[pairKey]Balance),
		byIdem:   make(map[pairKey]int),
		accrued:  make(map[pairKey]bool),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) ApplyCredits(_ context.Context, credits []Credit) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range credits {
		if s.accrued[pairKey{c.OrderID, c.ShopID}] {
			return nil, ErrDuplicateAccrual
		}
	}
	now := s.now()
	out := make([]Transaction, 0, len(credits))
	for _, c := range credits {
		tx := Transaction{
			ID:             uuid.NewString(),
			CustomerID:     c.CustomerID,
			ShopID:         c.ShopID,
			PointsChange:   c.Points,
			Type:           TxEarned,
			RelatedOrderID: c.OrderID,
			CreatedAt:      now,
		}
		s.txs = append(s.txs, tx)
		s.accrued[pairKey{c.OrderID, c.ShopID}] = true

		k := pairKey{c.CustomerID, c.ShopID}
		b := s.balances[k]
		b.CustomerID, b.ShopID = c.CustomerID, c.ShopID
		b.Points += c.Points
		b.UpdatedAt = now
		s.balances[k] = b
		out = append(out, tx)
	}
	return out, nil
}

func (s *MemoryStore) Redeem(_ context.Context, r Redemption) (*Transaction, *Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.byIdem[pairKey{r.CustomerID, r.IdempotencyKey}]; ok {
		return nil, nil, &DuplicateRedemptionError{Original: s.txs[i]}
	}
	k := pairKey{r.CustomerID, r.ShopID}
	b := s.balances[k]
	cost := r.Reward.PointsRequired
	if b.Points < cost {
		return nil, nil, &InsufficientPointsError{Balance: b.Points, Required: cost}
	}

	now := s.now()
	b.CustomerID, b.ShopID = r.CustomerID, r.ShopID
	b.Points -= cost
	b.UpdatedAt = now
	s.balances[k] = b

	tx := Transaction{
		ID:              uuid.NewString(),
		CustomerID:      r.CustomerID,
		ShopID:          r.ShopID,
		PointsChange:    -cost,
		Type:            TxRedeemed,
		RelatedRewardID: r.Reward.ID,
		RewardName:      r.Reward.Name,
		RewardCost:      cost,
		IdempotencyKey:  r.IdempotencyKey,
		CreatedAt:       now,
	}
	s.txs = append(s.txs, tx)
	s.byIdem[pairKey{r.CustomerID, r.IdempotencyKey}] = len(s.txs) - 1
	return &tx, &b, nil
}

func (s *MemoryStore) Balance(_ context.Context, customerID, shopID string) (*Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[pairKey{customerID, shopID}]
	if !ok {
		b = Balance{CustomerID: customerID, ShopID: shopID}
	}
	return &b, nil
}

func (s *MemoryStore) Balances(_ context.Context, customerID string) ([]Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Balance, 0)
	for k, b := range s.balances {
		if k.customer == customerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShopID < out[j].ShopID })
	return out, nil
}

// Transactions lists newest first. An empty shopID lists every shop.
func (s *MemoryStore) Transactions(_ context.Context, customerID, shopID string, limit int) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transaction, 0)
	for i := len(s.txs) - 1; i >= 0; i-- {
		tx := s.txs[i]
		if tx.CustomerID != customerID || (shopID != "" && tx.ShopID != shopID) {
			continue
		}
		out = append(out, tx)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Reconcile(_ context.Context, customerID, shopID string) (*Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, tx := range s.txs {
		if tx.CustomerID == customerID && tx.ShopID == shopID {
			sum += tx.PointsChange
		}
	}
	k := pairKey{customerID, shopID}
	b := s.balances[k]
	rec := &Reconciliation{CustomerID: customerID, ShopID: shopID, Cached: b.Points, LedgerSum: sum}
	if b.Points != sum {
		b.CustomerID, b.ShopID = customerID, shopID
		b.Points = sum
		b.UpdatedAt = s.now()
		s.balances[k] = b
		rec.Repaired = true
	}
	return rec, nil
}
