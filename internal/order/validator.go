package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeMC777/cafe-orders/internal/menu"
)

// MaxQuantity caps a single line.
const MaxQuantity = 99

// MenuSource supplies authoritative item prices and availability.
type MenuSource interface {
	GetByID(ctx context.Context, id string) (*menu.Item, error)
}

type Validator struct {
	menu   MenuSource
	pricer Pricer
	now    func() time.Time
}

func NewValidator(src MenuSource, pricer Pricer) *Validator {
	return &Validator{menu: src, pricer: pricer, now: func() time.Time { return time.Now().UTC() }}
}

// CreateOrder turns a cart snapshot into a priced pending order. Client-supplied
// prices and totals are ignored. Nothing is persisted.
func (v *Validator) CreateOrder(ctx context.Context, cart CreateOrderRequest, customerID string) (*Order, error) {
	if customerID == "" {
		return nil, &ValidationError{Code: CodeMissingCustomer, Msg: "customer is required"}
	}
	if len(cart.Items) == 0 {
		return nil, &ValidationError{Code: CodeEmptyCart, Msg: "cart has no items"}
	}

	o := &Order{
		ID:         uuid.NewString(),
		ShopID:     cart.ShopID,
		CustomerID: customerID,
		Status:     StatusPending,
		Items:      make([]LineItem, 0, len(cart.Items)),
	}
	for _, ci := range cart.Items {
		if ci.Quantity < 1 || ci.Quantity > MaxQuantity {
			return nil, &ValidationError{Code: CodeInvalidQuantity, ItemID: ci.MenuItemID,
				Msg: fmt.Sprintf("quantity must be between 1 and %d", MaxQuantity)}
		}
		item, err := v.menu.GetByID(ctx, ci.MenuItemID)
		if errors.Is(err, menu.ErrNotFound) {
			return nil, &ValidationError{Code: CodeUnavailableItem, ItemID: ci.MenuItemID, Msg: "item does not exist"}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMenuUnavailable, err)
		}
		if !item.Available {
			return nil, &ValidationError{Code: CodeUnavailableItem, ItemID: ci.MenuItemID, Msg: "item is not available"}
		}
		if o.ShopID == "" {
			o.ShopID = item.ShopID
		}
		if item.ShopID != o.ShopID {
			return nil, &ValidationError{Code: CodeShopMismatch, ItemID: ci.MenuItemID, Msg: "item belongs to another shop"}
		}

		line := LineItem{
			ID:             uuid.NewString(),
			OrderID:        o.ID,
			MenuItemID:     item.ID,
			Name:           item.Name,
			Quantity:       ci.Quantity,
			UnitPrice:      item.Price,
			Customizations: make([]SelectedCustomization, 0, len(ci.Customizations)),
		}
		seen := make(map[string]struct{}, len(ci.Customizations))
		for _, cid := range ci.Customizations {
			if _, dup := seen[cid]; dup {
				return nil, &ValidationError{Code: CodeDuplicateCustomization, ItemID: ci.MenuItemID,
					Msg: fmt.Sprintf("customization %q selected more than once", cid)}
			}
			seen[cid] = struct{}{}
			opt, ok := item.Customization(cid)
			if !ok {
				return nil, &ValidationError{Code: CodeUnknownCustomization, ItemID: ci.MenuItemID,
					Msg: fmt.Sprintf("unknown customization %q", cid)}
			}
			rule, err := opt.Rule.Rule()
			if err != nil {
				return nil, fmt.Errorf("%w: item %s: %v", ErrMenuUnavailable, item.ID, err)
			}
			line.Customizations = append(line.Customizations, SelectedCustomization{
				ID:    opt.ID,
				Name:  opt.Name,
				Kind:  rule.Kind(),
				Price: rule.Delta(item.Price),
			})
		}
		o.Items = append(o.Items, line)
	}

	t := v.pricer.Price(o.Items)
	o.Subtotal, o.Tax, o.Total = t.Subtotal, t.Tax, t.Total
	o.CreatedAt = v.now()
	o.UpdatedAt = o.CreatedAt
	return o, nil
}
