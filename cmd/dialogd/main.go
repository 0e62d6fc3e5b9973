// Command dialogd runs the conversational ordering brain as an HTTP
// service: config, then logger, then observability, then the database,
// then the router.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/db"
	"github.com/ndoemo/dialogbrain/internal/httpapi"
	"github.com/ndoemo/dialogbrain/internal/icm"
	"github.com/ndoemo/dialogbrain/internal/nlu"
	"github.com/ndoemo/dialogbrain/internal/orders"
	"github.com/ndoemo/dialogbrain/internal/pipeline"
	"github.com/ndoemo/dialogbrain/internal/pkg/config"
	"github.com/ndoemo/dialogbrain/internal/pkg/logger"
	"github.com/ndoemo/dialogbrain/internal/pkg/telemetry"
	"github.com/ndoemo/dialogbrain/internal/session"
)

func main() {
	memoryRepo := flag.Bool("memory-repo", false, "use the in-memory catalog fixtures instead of Postgres (orders are not persisted)")
	migrateOnly := flag.Bool("migrate", false, "run schema migrations then exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logger.Init(zapcore.InfoLevel, zap.String("service", "dialogbrain"), zap.String("port", cfg.ServerPort)); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	zlog := logger.Log
	zlog.Info("starting dialogbrain")

	otelShutdown, err := telemetry.Init("dialogbrain")
	if err != nil {
		zlog.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			zlog.Error("failed to shutdown telemetry", zap.Error(err))
		}
	}()
	telemetry.InitPipelineMetrics()

	restaurants := catalog.Seed()
	cat := catalog.Build(restaurants)
	nearbyCache := catalog.NewNearbyCache()

	var repo catalog.Repository
	var ordersStore *orders.Store
	var dbPool interface{ Close() }

	ctx := context.Background()

	if *memoryRepo {
		zlog.Info("using in-memory catalog fixtures; orders are not persisted")
		repo = catalog.NewMemoryRepository(catalog.SeedRows(), catalog.SeedMenus())
	} else {
		pool, err := db.Init(ctx, cfg.Repositories.ConnectionURL(), zlog)
		if err != nil {
			zlog.Fatal("failed to connect to postgres", zap.Error(err))
		}
		dbPool = pool
		if err := db.RunMigrations(cfg.Repositories.ConnectionURL(), zlog); err != nil {
			zlog.Fatal("failed to run migrations", zap.Error(err))
		}
		if *migrateOnly {
			zlog.Info("migrations applied, exiting (-migrate)")
			pool.Close()
			return
		}
		repo = catalog.NewPostgresRepository(pool, zlog)
		ordersStore = orders.NewStore(pool, zlog)
	}
	if dbPool != nil {
		defer dbPool.Close()
	}

	icmMap := icm.Default()
	router := nlu.New(cat, icmMap)
	router.ExpertMode = cfg.Admin.ExpertMode

	sessions := session.NewStore(zlog)
	defer sessions.Stop()

	adminStore := config.NewAdminStore(cfg.Admin)

	engine := pipeline.New(sessions, router, icmMap, cat, repo, nearbyCache, ordersStore, adminStore, zlog)
	engine.TurnDeadline = cfg.TurnDeadline
	engine.RepositoryTimeout = cfg.RepositoryTimeout
	engine.TTSTimeout = cfg.TTSAggregateTimeout

	r := httpapi.NewRouter(engine, adminStore, cfg.AdminToken, zlog)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	ctxShutdown, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctxShutdown.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	os.Exit(0)
}
