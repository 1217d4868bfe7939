package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/cafe-orders/internal/menu"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusPickedUp  Status = "picked_up"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending, StatusAccepted, StatusPreparing, StatusReady,
	StatusPickedUp, StatusCompleted, StatusCancelled,
}

func ParseStatus(s string) (Status, bool) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusCancelled }

type Order struct {
	ID                  string          `json:"id"`
	ShopID              string          `json:"shop_id"`
	CustomerID          string          `json:"customer_id"`
	Items               []LineItem      `json:"items"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Tax                 decimal.Decimal `json:"tax"`
	Total               decimal.Decimal `json:"total"`
	Status              Status          `json:"status"`
	LoyaltyPointsEarned int64           `json:"loyalty_points_earned"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Clone returns a copy that shares no slices with o.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = make([]LineItem, len(o.Items))
	for i, it := range o.Items {
		it.Customizations = append([]SelectedCustomization(nil), it.Customizations...)
		cp.Items[i] = it
	}
	return &cp
}

// LineItem snapshots the menu price at order time.
type LineItem struct {
	ID             string                  `json:"id"`
	OrderID        string                  `json:"order_id"`
	MenuItemID     string                  `json:"menu_item_id"`
	Name           string                  `json:"name"`
	Quantity       int                     `json:"quantity"`
	UnitPrice      decimal.Decimal         `json:"unit_price"`
	Customizations []SelectedCustomization `json:"customizations"`
}

// SelectedCustomization is a customization resolved to its per-unit price.
type SelectedCustomization struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Kind  menu.RuleKind   `json:"kind"`
	Price decimal.Decimal `json:"price"`
}

// EffectiveUnitPrice is the unit price plus every customization's price.
func (li LineItem) EffectiveUnitPrice() decimal.Decimal {
	p := li.UnitPrice
	for _, c := range li.Customizations {
		p = p.Add(c.Price)
	}
	return p
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.EffectiveUnitPrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Queue buckets a shop's open orders for the worker board.
type Queue struct {
	ShopID    string  `json:"shop_id"`
	Pending   []Order `json:"pending"`
	Accepted  []Order `json:"accepted"`
	Preparing []Order `json:"preparing"`
	Ready     []Order `json:"ready"`
}

// QueueStatuses are the columns of the worker board.
var QueueStatuses = []Status{StatusPending, StatusAccepted, StatusPreparing, StatusReady}
