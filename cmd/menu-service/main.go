package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/cafe-orders/internal/config"
	"github.com/MikeMC777/cafe-orders/internal/database"
	"github.com/MikeMC777/cafe-orders/internal/logging"
	"github.com/MikeMC777/cafe-orders/internal/menu"
)

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
	logger = logger.With(zap.String("service", "menu-service"))

	seed, err := config.LoadSeed(cfg.SeedFile)
	if err != nil {
		logger.Fatal("load seed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo menu.Repository = menu.NewMemoryRepo(seed.Menu)
	if cfg.StoreDriver == config.DriverPostgres {
		pool, err := database.Connect(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			logger.Fatal("connect postgres", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		pg := menu.NewPGRepo(pool)
		if err := pg.Upsert(ctx, seed.Menu); err != nil {
			logger.Fatal("seed menu", zap.Error(err))
		}
		repo = pg
	}

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.MenuSvcAddr,
		Handler:           newRouter(repo, cfg.CORSOrigins, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("menu-service listening", zap.String("addr", cfg.MenuSvcAddr), zap.Int("items", len(seed.Menu)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}
