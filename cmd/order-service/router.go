package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/MikeMC777/cafe-orders/docs"
	"github.com/MikeMC777/cafe-orders/internal/httpx"
	"github.com/MikeMC777/cafe-orders/internal/loyalty"
	"github.com/MikeMC777/cafe-orders/internal/notify"
	ord "github.com/MikeMC777/cafe-orders/internal/order"
)

type routerDeps struct {
	orders    *ord.Service
	ledger    *loyalty.Ledger
	hub       *notify.Hub
	secret    []byte
	origins   []string
	heartbeat time.Duration
	ready     func(ctx context.Context) error
	log       *zap.Logger
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(d.log), httpx.CORS(d.origins))

	r.GET("/healthz", func(c *gin.Context) {
		if d.ready != nil {
			if err := d.ready(c.Request.Context()); err != nil {
				c.String(http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		c.String(http.StatusOK, "ok")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/", httpx.Auth(d.secret))

	customer := httpx.RequireRoles(string(ord.RoleCustomer))
	staff := httpx.RequireRoles(string(ord.RoleWorker), string(ord.RoleOwner), string(ord.RoleAdmin))
	admin := httpx.RequireRoles(string(ord.RoleAdmin))

	api.POST("/orders", customer, createOrderHandler(d.orders))
	api.GET("/orders", customer, listMyOrdersHandler(d.orders))
	api.GET("/orders/:id", getOrderHandler(d.orders))
	api.POST("/orders/:id/cancel", customer, cancelOrderHandler(d.orders))
	api.GET("/orders/:id/stream", orderStreamHandler(d.orders, d.hub, d.heartbeat, d.log))

	api.GET("/shops/:shopId/orders", staff, listShopOrdersHandler(d.orders))
	api.GET("/shops/:shopId/orders/queue", staff, queueHandler(d.orders))
	api.GET("/shops/:shopId/orders/stream", staff, queueStreamHandler(d.hub, d.heartbeat, d.log))
	api.PUT("/shops/:shopId/orders/:orderId/status", staff, updateOrderStatusHandler(d.orders))

	api.GET("/shops/:shopId/rewards", listRewardsHandler(d.ledger))
	api.GET("/rewards/:rewardId", getRewardHandler(d.ledger))
	api.POST("/loyalty/redeem", customer, redeemHandler(d.ledger))
	api.GET("/loyalty/points", customer, pointsHandler(d.ledger))
	api.GET("/loyalty/transactions", customer, transactionsHandler(d.ledger))
	api.GET("/loyalty/stream", customer, balanceStreamHandler(d.hub, d.heartbeat, d.log))

	api.POST("/admin/loyalty/reconcile", admin, reconcileHandler(d.ledger))
	return r
}

// registerPullers wires the snapshot each stream topic resyncs from.
func registerPullers(hub *notify.Hub, orders *ord.Service, ledger *loyalty.Ledger) {
	hub.RegisterPuller("order", func(ctx context.Context, id string) (any, error) {
		return orders.Lookup(ctx, id)
	})
	hub.RegisterPuller("shop", func(ctx context.Context, id string) (any, error) {
		return orders.QueueFor(ctx, id)
	})
	// Customer topics also carry order signals; re-reading balances for those is harmless.
	hub.RegisterPuller("customer", func(ctx context.Context, id string) (any, error) {
		return ledger.Balances(ctx, id)
	})
}
