package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"fiscalflow/auth"
	"fiscalflow/client"
	"fiscalflow/config"
	"fiscalflow/db"
	"fiscalflow/docstore"
	"fiscalflow/extraction"
	"fiscalflow/httpapi"
	"fiscalflow/logger"
	"fiscalflow/obligation"
	"fiscalflow/reconcile"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("bootstrap logger: %v", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		appLog.Fatal("bootstrap database pool", "error", err)
	}
	defer pool.Close()

	if err := db.HealthCheck(ctx, pool, cfg.Database.HealthTimeout); err != nil {
		appLog.Fatal("database health check", "error", err)
	}

	var tokens docstore.TokenCache
	if cfg.Redis.Addr != "" {
		redisCache, err := docstore.NewRedisTokenCache(cfg.Redis.Addr)
		if err != nil {
			appLog.Fatal("bootstrap redis token cache", "error", err)
		}
		defer redisCache.Close()
		tokens = redisCache
		appLog.Info("token cache: redis", "addr", cfg.Redis.Addr)
	} else {
		tokens = docstore.NewMemoryTokenCache()
		appLog.Info("token cache: in-memory")
	}

	docs := docstore.NewHTTPClient(cfg.DocStore.BaseURL, cfg.DocStore.APIKey, tokens, cfg.DocStore.TokenTTL, appLog)

	activityRepo := obligation.NewRepository(pool)
	schemaRepo := extraction.NewSchemaRepository(pool)
	clientRepo := client.NewRepository(pool)
	authRepo := auth.NewRepository(pool)

	authService := auth.NewService(authRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	reconcileService := reconcile.NewService(activityRepo, schemaRepo, clientRepo, docs, appLog).
		WithTimeouts(cfg.DocStore.RunTimeout, cfg.DocStore.FetchTimeout)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		AuthService:      authService,
		ReconcileService: reconcileService,
		Log:              appLog,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		appLog.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("http server", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("http server shutdown", "error", err)
	}
}
