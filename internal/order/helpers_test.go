package order

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MikeMC777/cafe-orders/internal/loyalty"
	"github.com/MikeMC777/cafe-orders/internal/menu"
	"github.com/MikeMC777/cafe-orders/internal/notify"
	"github.com/MikeMC777/cafe-orders/internal/shop"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testMenu() *menu.MemoryRepo {
	return menu.NewMemoryRepo([]menu.Item{
		{
			ID: "latte", ShopID: "s1", Name: "Latte", Price: dec("5.00"), Available: true,
			Customizations: []menu.Customization{
				{ID: "oat", Name: "Oat milk", Rule: menu.RuleSpec{Kind: menu.RuleFlat, Amount: dec("0.75")}},
				{ID: "large", Name: "Large", Rule: menu.RuleSpec{Kind: menu.RulePercent, Amount: dec("20")}},
				{ID: "decaf", Name: "Decaf"},
			},
		},
		{ID: "cookie", ShopID: "s1", Name: "Cookie", Price: dec("2.50"), Available: true},
		{ID: "scone", ShopID: "s1", Name: "Scone", Price: dec("3.00"), Available: false},
		{ID: "mocha", ShopID: "s2", Name: "Mocha", Price: dec("6.00"), Available: true},
	})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(ev notify.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Topic
	}
	return out
}

type fixture struct {
	svc    *Service
	repo   *MemoryRepo
	store  *loyalty.MemoryStore
	ledger *loyalty.Ledger
	pub    *recordingPublisher
}

var (
	customer = Actor{ID: "c1", Role: RoleCustomer}
	worker   = Actor{ID: "w1", Role: RoleWorker, ShopID: "s1"}
	owner    = Actor{ID: "o1", Role: RoleOwner, ShopID: "s1"}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pub := &recordingPublisher{}
	store := loyalty.NewMemoryStore()
	shops := shop.NewStaticDirectory([]shop.Config{
		{ID: "s1", Name: "Bean There", PointsPerDollar: dec("10"), GlobalProgram: true},
		{ID: "s2", Name: "Grind", PointsPerDollar: dec("5")},
	}, shop.Program{PointsPerDollar: dec("1")})
	ledger := loyalty.NewLedger(store, loyalty.NewMemoryCatalog(nil), shops, pub, zap.NewNop())
	repo := NewMemoryRepo(store)
	svc := NewService(repo, NewValidator(testMenu(), Pricer{TaxRate: DefaultTaxRate}), ledger, pub, zap.NewNop())
	return &fixture{svc: svc, repo: repo, store: store, ledger: ledger, pub: pub}
}

// place creates a pending order for customer c1 at shop s1.
func (f *fixture) place(t *testing.T, items ...CartItem) *Order {
	t.Helper()
	if len(items) == 0 {
		items = []CartItem{{MenuItemID: "latte", Quantity: 2}}
	}
	o, err := f.svc.Create(context.Background(), customer, CreateOrderRequest{ShopID: "s1", Items: items})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return o
}

func (f *fixture) walk(t *testing.T, id string, to ...Status) *Order {
	t.Helper()
	var (
		o   *Order
		err error
	)
	for _, st := range to {
		o, err = f.svc.Transition(context.Background(), worker, "s1", id, st)
		if err != nil {
			t.Fatalf("transition to %s: %v", st, err)
		}
	}
	return o
}
