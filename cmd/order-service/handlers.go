package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/cafe-orders/internal/httpx"
	"github.com/MikeMC777/cafe-orders/internal/loyalty"
	"github.com/MikeMC777/cafe-orders/internal/notify"
	ord "github.com/MikeMC777/cafe-orders/internal/order"
)

// RedeemRequest asks to spend points on a reward.
// swagger:model RedeemRequest
type RedeemRequest struct {
	RewardID       string `json:"reward_id"                 example:"bd-free-latte"`
	ShopID         string `json:"shop_id,omitempty"         example:"blue-door"`
	IdempotencyKey string `json:"idempotency_key,omitempty" example:"3f1c2a9e-redeem-1"`
}

// RedeemResponse is the written transaction and the balance after the debit.
// swagger:model RedeemResponse
type RedeemResponse struct {
	Transaction loyalty.Transaction `json:"transaction"`
	Balance     loyalty.Balance     `json:"balance"`
}

// ReconcileRequest names the balance to check against the ledger.
// swagger:model ReconcileRequest
type ReconcileRequest struct {
	CustomerID string `json:"customer_id" example:"c-123"`
	ShopID     string `json:"shop_id"     example:"blue-door"`
}

// actorFrom maps the token principal to an order actor. Tokens may not claim
// the system role.
func actorFrom(c *gin.Context) (ord.Actor, bool) {
	p, ok := httpx.PrincipalFrom(c)
	if !ok {
		return ord.Actor{}, false
	}
	role := ord.Role(p.Role)
	switch role {
	case ord.RoleCustomer, ord.RoleWorker, ord.RoleOwner, ord.RoleAdmin:
	default:
		return ord.Actor{}, false
	}
	return ord.Actor{ID: p.Subject, Role: role, ShopID: p.ShopID}, true
}

func mustActor(c *gin.Context) (ord.Actor, bool) {
	a, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "unknown role"})
	}
	return a, ok
}

// writeError maps domain errors to responses that carry enough context for the
// caller to decide its next step.
func writeError(c *gin.Context, err error) {
	var (
		ve    *ord.ValidationError
		te    *ord.TransitionError
		short *loyalty.InsufficientPointsError
		dup   *loyalty.DuplicateRedemptionError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation", "code": ve.Code, "item_id": ve.ItemID, "message": ve.Msg})
	case errors.As(err, &te) && errors.Is(err, ord.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "illegal_transition", "current_status": te.Current, "target_status": te.Target,
			"allowed": ord.AllowedNext(te.Current)})
	case errors.As(err, &te) && errors.Is(err, ord.ErrStaleStatus):
		c.JSON(http.StatusConflict, gin.H{"error": "stale_status", "current_status": te.Current, "target_status": te.Target})
	case errors.Is(err, ord.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": err.Error()})
	case errors.Is(err, ord.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, ord.ErrMenuUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "menu_unavailable", "message": err.Error()})
	case errors.As(err, &short):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient_points", "balance": short.Balance,
			"required": short.Required, "shortfall": short.Shortfall()})
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate_redemption", "original": dup.Original})
	case errors.Is(err, loyalty.ErrRewardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
	case errors.Is(err, loyalty.ErrRewardInactive):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "reward_inactive"})
	case errors.Is(err, loyalty.ErrRewardShopMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "reward_shop_mismatch"})
	case errors.Is(err, loyalty.ErrIdempotencyKeyNeeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": "idempotency_key_required"})
	case errors.Is(err, loyalty.ErrDuplicateAccrual):
		c.JSON(http.StatusConflict, gin.H{"error": "already_accrued"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence_failure", "message": "try again"})
	}
}

// @Summary      Place an order
// @Description  Prices the cart from the menu and stores it as pending. Client prices and totals are ignored.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      order.CreateOrderRequest  true  "Cart snapshot"
// @Success      201   {object}  order.Order
// @Failure      400   {object}  httpx.HTTPError
// @Failure      422   {object}  httpx.HTTPError
// @Router       /orders [post]
func createOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		var req ord.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, httpx.HTTPError{Error: "invalid json"})
			return
		}
		o, err := svc.Create(c.Request.Context(), actor, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// @Summary  Get an order
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    id   path      string  true  "Order ID"
// @Success  200  {object}  order.Order
// @Failure  404  {object}  httpx.HTTPError
// @Router   /orders/{id} [get]
func getOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		o, err := svc.Get(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary  List the caller's orders, newest first
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    limit   query  int  false  "Page size (default 20, max 100)"
// @Param    offset  query  int  false  "Offset"
// @Success  200  {array}  order.Order
// @Router   /orders [get]
func listMyOrdersHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		orders, err := svc.ListByCustomer(c.Request.Context(), actor, limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// @Summary  Cancel a pending order
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    id   path      string  true  "Order ID"
// @Success  200  {object}  order.Order
// @Failure  409  {object}  httpx.HTTPError
// @Router   /orders/{id}/cancel [post]
func cancelOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		o, err := svc.Cancel(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary      Transition an order
// @Description  Compare-and-set on the status read at request time. 409 carries the actual current status.
// @Tags         queue
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        shopId   path      string                    true  "Shop ID"
// @Param        orderId  path      string                    true  "Order ID"
// @Param        body     body      order.UpdateStatusRequest true  "Target status"
// @Success      200      {object}  order.Order
// @Failure      409      {object}  httpx.HTTPError
// @Router       /shops/{shopId}/orders/{orderId}/status [put]
func updateOrderStatusHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		var req ord.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, httpx.HTTPError{Error: "invalid json"})
			return
		}
		target, ok := ord.ParseStatus(req.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, httpx.HTTPError{Error: "invalid status"})
			return
		}
		o, err := svc.Transition(c.Request.Context(), actor, c.Param("shopId"), c.Param("orderId"), target)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary  Worker queue
// @Tags     queue
// @Produce  json
// @Security BearerAuth
// @Param    shopId  path      string  true  "Shop ID"
// @Success  200     {object}  order.Queue
// @Router   /shops/{shopId}/orders/queue [get]
func queueHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		q, err := svc.Queue(c.Request.Context(), actor, c.Param("shopId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, q)
	}
}

// @Summary  List a shop's orders
// @Tags     queue
// @Produce  json
// @Security BearerAuth
// @Param    shopId  path   string  true   "Shop ID"
// @Param    status  query  string  false  "Comma separated statuses"
// @Param    limit   query  int     false  "Max orders (default 200)"
// @Success  200     {array}  order.Order
// @Router   /shops/{shopId}/orders [get]
func listShopOrdersHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		statuses, err := parseStatuses(c.Query("status"))
		if err != nil {
			c.JSON(http.StatusBadRequest, httpx.HTTPError{Error: err.Error()})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
		orders, err := svc.ListByShop(c.Request.Context(), actor, c.Param("shopId"), statuses, limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func parseStatuses(raw string) ([]ord.Status, error) {
	var out []ord.Status
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		st, ok := ord.ParseStatus(s)
		if !ok {
			return nil, fmt.Errorf("invalid status %q", s)
		}
		out = append(out, st)
	}
	return out, nil
}

// @Summary  Active rewards of a shop
// @Tags     loyalty
// @Produce  json
// @Security BearerAuth
// @Param    shopId  path  string  true  "Shop ID (global for the platform pool)"
// @Success  200     {array}  loyalty.Reward
// @Router   /shops/{shopId}/rewards [get]
func listRewardsHandler(ledger *loyalty.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rewards, err := ledger.ListActiveRewards(c.Request.Context(), c.Param("shopId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rewards)
	}
}

// @Summary  Get a reward
// @Tags     loyalty
// @Produce  json
// @Security BearerAuth
// @Param    rewardId  path  string  true  "Reward ID"
// @Success  200  {object}  loyalty.Reward
// @Failure  404  {object}  httpx.HTTPError
// @Router   /rewards/{rewardId} [get]
func getRewardHandler(ledger *loyalty.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := ledger.GetReward(c.Request.Context(), c.Param("rewardId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

// @Summary      Redeem a reward
// @Description  Requires an Idempotency-Key header or idempotency_key field. A repeat returns 409 with the original transaction.
// @Tags         loyalty
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string         false  "Client request key"
// @Param        body             body      RedeemRequest  true   "Reward"
// @Success      201              {object}  RedeemResponse
// @Failure      409              {object}  httpx.HTTPError
// @Failure      422              {object}  httpx.HTTPError
// @Router       /loyalty/redeem [post]
func redeemHandler(ledger *loyalty.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		var req RedeemRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RewardID == "" {
			c.JSON(http.StatusBadRequest, httpx.HTTPError{Error: "reward_id is required"})
			return
		}
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			key = req.IdempotencyKey
		}
		tx, bal, err := ledger.Redeem(c.Request.Context(), loyalty.RedeemRequest{
			CustomerID:     actor.ID,
			ShopID:         req.ShopID,
			RewardID:       req.RewardID,
			IdempotencyKey: key,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, RedeemResponse{Transaction: *tx, Balance: *bal})
	}
}

// @Summary  Loyalty balances
// @Tags     loyalty
// @Produce  json
// @Security BearerAuth
// @Param    shop_id  query  string  false  "Single shop balance"
// @Success  200  {array}  loyalty.Balance
// @Router   /loyalty/points [get]
func pointsHandler(ledger *loyalty.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		if shopID := c.Query("shop_id"); shopID != "" {
			b, err := ledger.Balance(c.Request.Context(), actor.ID, shopID)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, b)
			return
		}
		bs, err := ledger.Balances(c.Request.Context(), actor.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, bs)
	}
}

// @Summary  Loyalty history, newest first
// @Tags     loyalty
// @Produce  json
// @Security BearerAuth
// @Param    shop_id  query  string  false  "Filter by shop"
// @Param    limit    query  int     false  "Max entries (default 50)"
// @Success  200  {array}  loyalty.Transaction
// @Router   /loyalty/transactions [get]
func transactionsHandler(ledger *loyalty.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		txs, err := ledger.History(c.Request.Context(), actor.ID, c.Query("shop_id"), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, txs)
	}
}

// @Summary  Recompute a balance from the ledger
// @Tags     admin
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body  body  ReconcileRequest  true  "Balance key"
// @Success  200  {object}  loyalty.Reconciliation
// @Router   /admin/loyalty/reconcile [post]
func reconcileHandler(ledger *loyalty.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReconcileRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.CustomerID == "" || req.ShopID == "" {
			c.JSON(http.StatusBadRequest, httpx.HTTPError{Error: "customer_id and shop_id are required"})
			return
		}
		rec, err := ledger.Reconcile(c.Request.Context(), req.CustomerID, req.ShopID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// @Summary  Stream an order's snapshots (SSE)
// @Tags     streams
// @Produce  text/event-stream
// @Security BearerAuth
// @Param    id  path  string  true  "Order ID"
// @Router   /orders/{id}/stream [get]
func orderStreamHandler(svc *ord.Service, hub *notify.Hub, heartbeat time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		o, err := svc.Get(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		serveStream(c, hub, notify.OrderTopic(o.ID), heartbeat, log)
	}
}

// @Summary  Stream a shop's worker queue (SSE)
// @Tags     streams
// @Produce  text/event-stream
// @Security BearerAuth
// @Param    shopId  path  string  true  "Shop ID"
// @Router   /shops/{shopId}/orders/stream [get]
func queueStreamHandler(hub *notify.Hub, heartbeat time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		shopID := c.Param("shopId")
		if !ord.CanManage(actor, shopID) {
			writeError(c, ord.ErrForbidden)
			return
		}
		serveStream(c, hub, notify.ShopTopic(shopID), heartbeat, log)
	}
}

// @Summary  Stream the caller's balances (SSE)
// @Tags     streams
// @Produce  text/event-stream
// @Security BearerAuth
// @Router   /loyalty/stream [get]
func balanceStreamHandler(hub *notify.Hub, heartbeat time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := mustActor(c)
		if !ok {
			return
		}
		serveStream(c, hub, notify.CustomerTopic(actor.ID), heartbeat, log)
	}
}

// serveStream sends the topic's full snapshot on connect and again after every
// change signal. Clients never apply diffs, so a dropped signal costs nothing.
func serveStream(c *gin.Context, hub *notify.Hub, topic string, heartbeat time.Duration, log *zap.Logger) {
	ctx := c.Request.Context()
	sub := hub.Subscribe(topic)
	defer sub.Close()

	snap, err := hub.Pull(ctx, topic)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("snapshot", snap)
	c.Writer.Flush()

	tick := time.NewTicker(heartbeat)
	defer tick.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-sub.C():
			if !ok {
				return false
			}
			snap, err := hub.Pull(ctx, topic)
			if err != nil {
				log.Warn("stream snapshot failed", zap.String("topic", topic), zap.Error(err))
				c.SSEvent("error", gin.H{"error": "snapshot unavailable"})
				return false
			}
			c.SSEvent(ev.Kind, snap)
			return true
		case <-tick.C:
			_, _ = io.WriteString(w, ": heartbeat\n\n")
			return true
		}
	})
}
