package order

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrStaleStatus       = errors.New("stale status")
	ErrForbidden         = errors.New("actor may not act on this order")
	ErrValidation        = errors.New("invalid order")
	ErrMenuUnavailable   = errors.New("menu catalog unavailable")
)

type ValidationCode string

const (
	CodeEmptyCart              ValidationCode = "EmptyCart"
	CodeUnavailableItem        ValidationCode = "UnavailableItem"
	CodeShopMismatch           ValidationCode = "ShopMismatch"
	CodeInvalidQuantity        ValidationCode = "InvalidQuantity"
	CodeUnknownCustomization   ValidationCode = "UnknownCustomization"
	CodeDuplicateCustomization ValidationCode = "DuplicateCustomization"
	CodeMissingCustomer        ValidationCode = "MissingCustomer"
)

type ValidationError struct {
	Code   ValidationCode `json:"code"`
	ItemID string         `json:"item_id,omitempty"`
	Msg    string         `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("%s: %s (item %s)", e.Code, e.Msg, e.ItemID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError reports a rejected transition with the order's actual status.
type TransitionError struct {
	OrderID string
	Current Status
	Target  Status
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: %v: %s -> %s", e.OrderID, e.Err, e.Current, e.Target)
}

func (e *TransitionError) Unwrap() error { return e.Err }
