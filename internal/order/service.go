// Package order holds the order lifecycle: checkout validation and pricing, the status
// state machine, persistence with compare-and-set transitions, and the client for the
// external menu catalog.
package order

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MikeMC777/cafe-orders/internal/loyalty"
	"github.com/MikeMC777/cafe-orders/internal/notify"
)

// Actor is the caller as asserted by the identity layer.
type Actor struct {
	ID     string
	Role   Role
	ShopID string
}

// SystemActor triggers follow-up transitions the service performs on its own.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// Accruer plans the credits a completed order earns and announces them once applied.
type Accruer interface {
	PlanAccrual(ctx context.Context, o loyalty.OrderRef) ([]loyalty.Credit, error)
	Announce(customerID string, credits []loyalty.Credit)
}

type Service struct {
	repo      Repository
	validator *Validator
	accrual   Accruer
	pub       notify.Publisher
	log       *zap.Logger

	// AutoCompleteOnPickup runs picked_up -> completed right after a pickup.
	AutoCompleteOnPickup bool
}

func NewService(repo Repository, validator *Validator, accrual Accruer, pub notify.Publisher, log *zap.Logger) *Service {
	return &Service{repo: repo, validator: validator, accrual: accrual, pub: pub, log: log.Named("order")}
}

// Create validates and prices a cart, then stores it as a pending order.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateOrderRequest) (*Order, error) {
	if actor.Role != RoleCustomer {
		return nil, ErrForbidden
	}
	o, err := s.validator.CreateOrder(ctx, req, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, o); err != nil {
		s.log.Error("create order", zap.String("order_id", o.ID), zap.Error(err))
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("shop_id", o.ShopID),
		zap.String("customer_id", o.CustomerID),
		zap.String("total", o.Total.StringFixed(2)))
	for _, topic := range []string{notify.ShopTopic(o.ShopID), notify.CustomerTopic(o.CustomerID)} {
		s.pub.Publish(notify.Event{Topic: topic, Kind: notify.KindOrderCreated, Ref: o.ID, Status: string(o.Status)})
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, o) {
		return nil, ErrForbidden
	}
	return o, nil
}

// Lookup reads an order without an actor; used for snapshots behind an authorized stream.
func (s *Service) Lookup(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

// Transition moves an order to target. A non-empty shopID must match the order's shop.
// A retried completion returns the completed order unchanged; any other request for
// the status the order already has lost a race and gets StaleStatus.
func (s *Service) Transition(ctx context.Context, actor Actor, shopID, id string, target Status) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shopID != "" && o.ShopID != shopID {
		return nil, ErrNotFound
	}
	if !canView(actor, o) {
		return nil, ErrForbidden
	}
	if o.Status == target {
		if target == StatusCompleted {
			return o, nil
		}
		s.log.Warn("transition lost race",
			zap.String("order_id", id),
			zap.String("status", string(o.Status)),
			zap.String("actor", actor.ID))
		return nil, &TransitionError{OrderID: id, Current: o.Status, Target: target, Err: ErrStaleStatus}
	}
	if err := Authorize(o.Status, target, actor.Role); err != nil {
		s.log.Warn("transition rejected",
			zap.String("order_id", id),
			zap.String("from", string(o.Status)),
			zap.String("to", string(target)),
			zap.String("role", string(actor.Role)),
			zap.Error(err))
		return nil, &TransitionError{OrderID: id, Current: o.Status, Target: target, Err: err}
	}

	var updated *Order
	if target == StatusCompleted {
		updated, err = s.complete(ctx, o)
	} else {
		updated, err = s.repo.CompareAndSetStatus(ctx, id, o.Status, target)
	}
	if err != nil {
		if errors.Is(err, ErrStaleStatus) {
			s.log.Warn("transition lost race", zap.String("order_id", id), zap.Error(err))
		} else if !errors.Is(err, ErrNotFound) {
			s.log.Error("transition", zap.String("order_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("order transitioned",
		zap.String("order_id", id),
		zap.String("from", string(o.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("actor", actor.ID))
	s.announce(updated)

	if updated.Status == StatusPickedUp && s.AutoCompleteOnPickup {
		done, err := s.Transition(ctx, SystemActor, "", id, StatusCompleted)
		if err != nil {
			s.log.Warn("auto-complete after pickup failed", zap.String("order_id", id), zap.Error(err))
			return updated, nil
		}
		return done, nil
	}
	return updated, nil
}

// Cancel is the customer-facing shortcut for a transition to cancelled.
func (s *Service) Cancel(ctx context.Context, actor Actor, id string) (*Order, error) {
	return s.Transition(ctx, actor, "", id, StatusCancelled)
}

// complete commits the status change and the loyalty credits together. The CAS on
// picked_up means a retried completion finds the order already moved and credits nothing.
func (s *Service) complete(ctx context.Context, o *Order) (*Order, error) {
	credits, err := s.accrual.PlanAccrual(ctx, loyalty.OrderRef{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		ShopID:     o.ShopID,
		Subtotal:   o.Subtotal,
	})
	if err != nil {
		return nil, fmt.Errorf("plan accrual: %w", err)
	}
	earned := loyalty.ShopPoints(credits, o.ShopID)
	updated, err := s.repo.CompleteWithAccrual(ctx, o.ID, o.Status, earned, credits)
	if err != nil {
		return nil, err
	}
	s.accrual.Announce(o.CustomerID, credits)
	return updated, nil
}

func (s *Service) announce(o *Order) {
	for _, topic := range []string{
		notify.OrderTopic(o.ID),
		notify.ShopTopic(o.ShopID),
		notify.CustomerTopic(o.CustomerID),
	} {
		s.pub.Publish(notify.Event{Topic: topic, Kind: notify.KindOrderStatus, Ref: o.ID, Status: string(o.Status)})
	}
}

// Queue buckets the shop's open orders for the worker board in one listing.
func (s *Service) Queue(ctx context.Context, actor Actor, shopID string) (*Queue, error) {
	if !CanManage(actor, shopID) {
		return nil, ErrForbidden
	}
	return s.QueueFor(ctx, shopID)
}

// QueueFor builds the worker board without an actor check. The board is never
// truncated: every open order of the shop is listed.
func (s *Service) QueueFor(ctx context.Context, shopID string) (*Queue, error) {
	orders, err := s.repo.ListByShop(ctx, shopID, QueueStatuses, NoLimit)
	if err != nil {
		return nil, err
	}
	q := &Queue{
		ShopID:    shopID,
		Pending:   []Order{},
		Accepted:  []Order{},
		Preparing: []Order{},
		Ready:     []Order{},
	}
	for _, o := range orders {
		switch o.Status {
		case StatusPending:
			q.Pending = append(q.Pending, o)
		case StatusAccepted:
			q.Accepted = append(q.Accepted, o)
		case StatusPreparing:
			q.Preparing = append(q.Preparing, o)
		case StatusReady:
			q.Ready = append(q.Ready, o)
		}
	}
	return q, nil
}

func (s *Service) ListByShop(ctx context.Context, actor Actor, shopID string, statuses []Status, limit int) ([]Order, error) {
	if !CanManage(actor, shopID) {
		return nil, ErrForbidden
	}
	return s.repo.ListByShop(ctx, shopID, statuses, limit)
}

func (s *Service) ListByCustomer(ctx context.Context, actor Actor, limit, offset int) ([]Order, error) {
	if actor.ID == "" {
		return nil, ErrForbidden
	}
	return s.repo.ListByCustomer(ctx, actor.ID, limit, offset)
}

// canView: customers see their own orders, staff see their shop's, admin and system see all.
func canView(a Actor, o *Order) bool {
	switch a.Role {
	case RoleAdmin, RoleSystem:
		return true
	case RoleCustomer:
		return a.ID != "" && a.ID == o.CustomerID
	case RoleWorker, RoleOwner:
		return a.ShopID != "" && a.ShopID == o.ShopID
	}
	return false
}

// CanManage reports whether the actor may run the shop's board.
func CanManage(a Actor, shopID string) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleWorker, RoleOwner:
		return a.ShopID != "" && a.ShopID == shopID
	}
	return false
}
