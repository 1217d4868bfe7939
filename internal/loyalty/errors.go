package loyalty

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientPoints   = errors.New("insufficient points")
	ErrDuplicateRedemption  = errors.New("duplicate redemption")
	ErrRewardNotFound       = errors.New("reward not found")
	ErrRewardInactive       = errors.New("reward is not active")
	ErrRewardShopMismatch   = errors.New("reward belongs to another shop")
	ErrIdempotencyKeyNeeded = errors.New("idempotency key is required")
	ErrDuplicateAccrual     = errors.New("points already accrued for this order")
)

// InsufficientPointsError carries the balance seen by the failed debit.
type InsufficientPointsError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: have %d, need %d", e.Balance, e.Required)
}

func (e *InsufficientPointsError) Unwrap() error { return ErrInsufficientPoints }

func (e *InsufficientPointsError) Shortfall() int64 { return e.Required - e.Balance }

// DuplicateRedemptionError returns the transaction already written for the key.
type DuplicateRedemptionError struct {
	Original Transaction
}

func (e *DuplicateRedemptionError) Error() string {
	return fmt.Sprintf("duplicate redemption: already recorded as %s", e.Original.ID)
}

func (e *DuplicateRedemptionError) Unwrap() error { return ErrDuplicateRedemption }
