package menu

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Item is a shop's menu entry. Prices are authoritative here and only here.
type Item struct {
	ID             string          `json:"id"              yaml:"id"`
	ShopID         string          `json:"shop_id"         yaml:"shop_id"`
	Name           string          `json:"name"            yaml:"name"`
	Description    string          `json:"description,omitempty" yaml:"description"`
	Price          decimal.Decimal `json:"price"           yaml:"price"`
	Available      bool            `json:"available"       yaml:"available"`
	Customizations []Customization `json:"customizations"  yaml:"customizations"`
	CreatedAt      time.Time       `json:"created_at"      yaml:"-"`
	UpdatedAt      time.Time       `json:"updated_at"      yaml:"-"`
}

// Customization returns the option with the given id.
func (it *Item) Customization(id string) (Customization, bool) {
	for _, c := range it.Customizations {
		if c.ID == id {
			return c, true
		}
	}
	return Customization{}, false
}

// Customization is a selectable option on an item, e.g. "oat milk" or "extra shot".
type Customization struct {
	ID   string   `json:"id"   yaml:"id"`
	Name string   `json:"name" yaml:"name"`
	Rule RuleSpec `json:"rule" yaml:"rule"`
}

type RuleKind string

const (
	RuleFree    RuleKind = "free"
	RuleFlat    RuleKind = "flat"
	RulePercent RuleKind = "percent"
)

// RuleSpec is the stored form of a pricing rule. Amount is a currency amount for
// flat rules and a percentage of the base unit price for percent rules.
type RuleSpec struct {
	Kind   RuleKind        `json:"kind"             yaml:"kind"`
	Amount decimal.Decimal `json:"amount,omitempty" yaml:"amount"`
}

// PriceRule computes a customization's per-unit surcharge from the base unit price.
type PriceRule interface {
	Kind() RuleKind
	Delta(unit decimal.Decimal) decimal.Decimal
}

type FreeRule struct{}

func (FreeRule) Kind() RuleKind { return RuleFree }
func (FreeRule) Delta(decimal.Decimal) decimal.Decimal { return decimal.Zero }

type FlatRule struct{ Amount decimal.Decimal }

func (FlatRule) Kind() RuleKind { return RuleFlat }
func (r FlatRule) Delta(decimal.Decimal) decimal.Decimal { return r.Amount }

type PercentRule struct{ Percent decimal.Decimal }

func (PercentRule) Kind() RuleKind { return RulePercent }

// Delta is rounded to cents.
func (r PercentRule) Delta(unit decimal.Decimal) decimal.Decimal {
	return unit.Mul(r.Percent).Div(hundred).Round(2)
}

var hundred = decimal.NewFromInt(100)

// Rule validates s and returns its concrete rule.
func (s RuleSpec) Rule() (PriceRule, error) {
	switch s.Kind {
	case RuleFree, "":
		return FreeRule{}, nil
	case RuleFlat:
		if s.Amount.IsNegative() {
			return nil, fmt.Errorf("flat rule amount must not be negative: %s", s.Amount)
		}
		return FlatRule{Amount: s.Amount}, nil
	case RulePercent:
		if s.Amount.IsNegative() || s.Amount.GreaterThan(hundred) {
			return nil, fmt.Errorf("percent rule out of range: %s", s.Amount)
		}
		return PercentRule{Percent: s.Amount}, nil
	default:
		return nil, fmt.Errorf("unknown pricing rule %q", s.Kind)
	}
}

// ListResponse is the menu listing payload.
// swagger:model
type ListResponse struct {
	ShopID string `json:"shop_id"`
	Items  []Item `json:"items"`
}
