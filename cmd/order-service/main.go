// @title           Cafe Orders API
// @version         1.0
// @description     Order lifecycle and loyalty ledger for coffee shops.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/cafe-orders/internal/config"
	"github.com/MikeMC777/cafe-orders/internal/database"
	"github.com/MikeMC777/cafe-orders/internal/healthcheck"
	"github.com/MikeMC777/cafe-orders/internal/logging"
	"github.com/MikeMC777/cafe-orders/internal/loyalty"
	"github.com/MikeMC777/cafe-orders/internal/menu"
	"github.com/MikeMC777/cafe-orders/internal/notify"
	ord "github.com/MikeMC777/cafe-orders/internal/order"
	"github.com/MikeMC777/cafe-orders/internal/shop"
)

type app struct {
	orders *ord.Service
	ledger *loyalty.Ledger
	hub    *notify.Hub
	probe  healthcheck.Probe
	close  func()
}

// build wires stores, the ledger and the order service for the configured driver.
func build(ctx context.Context, cfg config.Config, seed *config.Seed, logger *zap.Logger) (*app, error) {
	hub := notify.NewHub(16, logger)
	shops := shop.NewStaticDirectory(seed.Shops, seed.Global)
	a := &app{hub: hub, close: func() {}}

	var (
		repo    ord.Repository
		store   loyalty.Store
		catalog loyalty.Catalog
		menuSrc ord.MenuSource
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := database.Connect(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		a.close = pool.Close
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		pgStore := loyalty.NewPGStore(pool)
		pgCatalog := loyalty.NewPGCatalog(pool)
		if err := pgCatalog.Upsert(ctx, seed.Rewards); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed rewards: %w", err)
		}
		menuRepo := menu.NewPGRepo(pool)
		if cfg.MenuSvcBaseURL == "" {
			if err := menuRepo.Upsert(ctx, seed.Menu); err != nil {
				pool.Close()
				return nil, fmt.Errorf("seed menu: %w", err)
			}
		}
		repo, store, catalog, menuSrc = ord.NewPGRepo(pool, pgStore), pgStore, pgCatalog, menuRepo
		a.probe = pool.Ping
	default:
		memStore := loyalty.NewMemoryStore()
		repo, store = ord.NewMemoryRepo(memStore), memStore
		catalog = loyalty.NewMemoryCatalog(seed.Rewards)
		menuSrc = menu.NewMemoryRepo(seed.Menu)
		a.probe = func(context.Context) error { return nil }
	}
	if cfg.MenuSvcBaseURL != "" {
		menuSrc = ord.NewMenuClient(cfg.MenuSvcBaseURL)
	}

	a.ledger = loyalty.NewLedger(store, catalog, shops, hub, logger)
	validator := ord.NewValidator(menuSrc, ord.Pricer{TaxRate: cfg.TaxRate})
	a.orders = ord.NewService(repo, validator, a.ledger, hub, logger)
	a.orders.AutoCompleteOnPickup = cfg.AutoCompleteOnPickup
	registerPullers(hub, a.orders, a.ledger)
	return a, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("service", "order-service"))
	logger.Info("config loaded", cfg.Fields()...)

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	seed, err := config.LoadSeed(cfg.SeedFile)
	if err != nil {
		logger.Fatal("load seed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, seed, logger)
	if err != nil {
		logger.Fatal("wire services", zap.Error(err))
	}
	defer a.close()

	checker := healthcheck.New(a.probe, 10*time.Second, logger)
	go checker.Run(ctx)
	lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
	if err != nil {
		logger.Fatal("listen grpc health", zap.Error(err))
	}
	go func() {
		if err := healthcheck.Serve(ctx, lis, checker); err != nil {
			logger.Error("grpc health server", zap.Error(err))
		}
	}()

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr: cfg.OrderSvcAddr,
		Handler: newRouter(routerDeps{
			orders:    a.orders,
			ledger:    a.ledger,
			hub:       a.hub,
			secret:    []byte(cfg.JWTSecret),
			origins:   cfg.CORSOrigins,
			heartbeat: cfg.StreamHeartbeat,
			ready:     a.probe,
			log:       logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		// Streams end when the process is told to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		logger.Info("order-service listening", zap.String("addr", cfg.OrderSvcAddr), zap.String("grpc_health", cfg.GRPCHealthAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}
