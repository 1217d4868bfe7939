package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MikeMC777/cafe-orders/internal/loyalty"
)

type memEntry struct {
	seq   int64
	order *Order
}

// MemoryRepo keeps orders in process. Its ledger must be the same MemoryStore the
// loyalty service reads, so completion and accrual stay one step.
type MemoryRepo struct {
	mu     sync.Mutex
	orders map[string]*memEntry
	seq    int64
	ledger *loyalty.MemoryStore
	now    func() time.Time
}

func NewMemoryRepo(ledger *loyalty.MemoryStore) *MemoryRepo {
	return &MemoryRepo{
		orders: make(map[string]*memEntry),
		ledger: ledger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) Create(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	r.seq++
	r.orders[o.ID] = &memEntry{seq: r.seq, order: o.Clone()}
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.order.Clone(), nil
}

func (r *MemoryRepo) ListByShop(_ context.Context, shopID string, statuses []Status, limit int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.filter(func(o *Order) bool {
		if o.ShopID != shopID {
			return false
		}
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if o.Status == s {
				return true
			}
		}
		return false
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	if n := shopPageLimit(limit); n != nil {
		return page(entries, *n, 0), nil
	}
	return page(entries, len(entries), 0), nil
}

func (r *MemoryRepo) ListByCustomer(_ context.Context, customerID string, limit, offset int) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.filter(func(o *Order) bool { return o.CustomerID == customerID })
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })
	return page(entries, limit, offset), nil
}

func (r *MemoryRepo) CompareAndSetStatus(_ context.Context, id string, expected, next Status) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.expect(id, expected, next)
	if err != nil {
		return nil, err
	}
	e.order.Status = next
	e.order.UpdatedAt = r.now()
	return e.order.Clone(), nil
}

func (r *MemoryRepo) CompleteWithAccrual(ctx context.Context, id string, expected Status, earned int64, credits []loyalty.Credit) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.expect(id, expected, StatusCompleted)
	if err != nil {
		return nil, err
	}
	if _, err := r.ledger.ApplyCredits(ctx, credits); err != nil {
		return nil, fmt.Errorf("accrue points for order %s: %w", id, err)
	}
	e.order.Status = StatusCompleted
	e.order.LoyaltyPointsEarned = earned
	e.order.UpdatedAt = r.now()
	return e.order.Clone(), nil
}

// expect must be called with r.mu held.
func (r *MemoryRepo) expect(id string, expected, target Status) (*memEntry, error) {
	e, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if e.order.Status != expected {
		return nil, &TransitionError{OrderID: id, Current: e.order.Status, Target: target, Err: ErrStaleStatus}
	}
	return e, nil
}

func (r *MemoryRepo) filter(keep func(*Order) bool) []*memEntry {
	var out []*memEntry
	for _, e := range r.orders {
		if keep(e.order) {
			out = append(out, e)
		}
	}
	return out
}

func page(entries []*memEntry, limit, offset int) []Order {
	out := make([]Order, 0)
	for i := offset; i < len(entries) && len(out) < limit; i++ {
		out = append(out, *entries[i].order.Clone())
	}
	return out
}
