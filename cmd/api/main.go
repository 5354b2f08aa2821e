package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/packproof/packproof-backend/api/routes"
	"github.com/packproof/packproof-backend/internal/audit"
	"github.com/packproof/packproof-backend/internal/evidence"
	"github.com/packproof/packproof-backend/internal/ledger"
	"github.com/packproof/packproof-backend/internal/orders"
	"github.com/packproof/packproof-backend/internal/products"
	"github.com/packproof/packproof-backend/internal/reconcile"
	"github.com/packproof/packproof-backend/internal/returns"
	"github.com/packproof/packproof-backend/pkg/config"
	"github.com/packproof/packproof-backend/pkg/db"
	"github.com/packproof/packproof-backend/pkg/logger"
	"github.com/packproof/packproof-backend/pkg/migrate"
	"github.com/packproof/packproof-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	auditRecorder, err := audit.NewRecorder(dbClient.DB(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, ledgerService)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, ledgerService, auditRecorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	returnService, err := returns.NewService(returns.NewRepository(dbClient.DB()), dbClient, ledgerService, auditRecorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create returns service", err)
		os.Exit(1)
	}

	reconcileService, err := reconcile.NewService(dbClient, ledgerService, auditRecorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	store, err := evidence.NewDiskStore(cfg.Evidence.RootDir, cfg.Evidence.MaxUploadBytes())
	if err != nil {
		logg.Error(context.Background(), "failed to prepare evidence store", err)
		os.Exit(1)
	}
	evidenceService, err := evidence.NewService(evidence.NewRepository(dbClient.DB()), store, auditRecorder, cfg.Evidence.Extensions())
	if err != nil {
		logg.Error(context.Background(), "failed to create evidence service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			ledgerService,
			productService,
			orderService,
			returnService,
			reconcileService,
			evidenceService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
