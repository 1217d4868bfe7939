package loyalty

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxType string

const (
	TxEarned   TxType = "earned"
	TxRedeemed TxType = "redeemed"
)

// Balance is the cached sum of a (customer, shop) ledger.
type Balance struct {
	CustomerID string    `json:"customer_id"`
	ShopID     string    `json:"shop_id"`
	Points     int64     `json:"points"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Transaction is an append-only ledger entry. Redemptions carry a snapshot of the
// reward's name and cost taken at redemption time.
type Transaction struct {
	ID              string    `json:"id"`
	CustomerID      string    `json:"customer_id"`
	ShopID          string    `json:"shop_id"`
	PointsChange    int64     `json:"points_change"`
	Type            TxType    `json:"type"`
	RelatedOrderID  string    `json:"related_order_id,omitempty"`
	RelatedRewardID string    `json:"related_reward_id,omitempty"`
	RewardName      string    `json:"reward_name,omitempty"`
	RewardCost      int64     `json:"reward_cost,omitempty"`
	IdempotencyKey  string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

type Reward struct {
	ID             string    `json:"id"              yaml:"id"`
	ShopID         string    `json:"shop_id"         yaml:"shop_id"`
	Name           string    `json:"name"            yaml:"name"`
	Description    string    `json:"description,omitempty" yaml:"description"`
	PointsRequired int64     `json:"points_required" yaml:"points_required"`
	IsActive       bool      `json:"is_active"       yaml:"is_active"`
	CreatedAt      time.Time `json:"created_at"      yaml:"-"`
	UpdatedAt      time.Time `json:"updated_at"      yaml:"-"`
}

// Credit is one planned accrual against a single balance.
type Credit struct {
	CustomerID string `json:"customer_id"`
	ShopID     string `json:"shop_id"`
	OrderID    string `json:"order_id"`
	Points     int64  `json:"points"`
}

// OrderRef is the part of a completed order the ledger needs.
type OrderRef struct {
	ID         string
	CustomerID string
	ShopID     string
	Subtotal   decimal.Decimal
}

// Redemption is a request to debit a reward's cost from a balance.
type Redemption struct {
	CustomerID     string
	ShopID         string
	Reward         Reward
	IdempotencyKey string
}

// Reconciliation reports the cached balance against the ledger sum.
type Reconciliation struct {
	CustomerID string `json:"customer_id"`
	ShopID     string `json:"shop_id"`
	Cached     int64  `json:"cached"`
	LedgerSum  int64  `json:"ledger_sum"`
	Repaired   bool   `json:"repaired"`
}
