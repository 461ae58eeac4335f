package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"parcel-delivery-service/internal/adapters/cache"
	"parcel-delivery-service/internal/adapters/rates"
	"parcel-delivery-service/internal/adapters/repositories"
	"parcel-delivery-service/internal/api"
	"parcel-delivery-service/internal/config"
	"parcel-delivery-service/internal/platform/db"
	"parcel-delivery-service/internal/ports"
	"parcel-delivery-service/internal/scheduler"
	"parcel-delivery-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, CBR feed) behind ports,
// starts the background schedule and serves HTTP.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := config.Load()
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	// Initialize schema and reference data on startup for local runs.
	if err := repositories.InitSchema(database); err != nil {
		log.Fatal(err)
	}
	if err := repositories.SeedReferenceData(database); err != nil {
		log.Fatal(err)
	}

	// A shared Redis cache lets multiple replicas observe one rate; without
	// it the cache is process-local.
	var rateCache ports.RateCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		rateCache = cache.NewRedisRateCache(rdb)
		log.Printf("rate cache backend=redis addr=%s", cfg.RedisAddr)
	} else {
		rateCache = cache.NewMemoryRateCache()
		log.Printf("rate cache backend=memory")
	}

	rateSource, err := rates.NewCBRRateSource(cfg.RateAPIURL, cfg.FetchTimeout)
	if err != nil {
		log.Fatal(err)
	}

	parcelRepo := repositories.NewPostgresParcelRepository(database)
	typeRepo := repositories.NewPostgresParcelTypeRepository(database)
	userRepo := repositories.NewPostgresUserRepository(database)

	rateService := services.NewRateService(rateCache, rateSource, cfg.RateTTL)
	reconciler := services.NewBackfillReconciler(rateService, parcelRepo)
	coordinator := services.NewAssignmentCoordinator(parcelRepo)

	// Refresh fires immediately so the cache is warm before the first
	// backfill tick needs a rate.
	sched := scheduler.New(
		scheduler.Task{
			Name:       "rate-refresh",
			Interval:   cfg.RateRefreshInterval,
			RunAtStart: true,
			MaxRetries: 1,
			RetryDelay: cfg.RateRetryDelay,
			Run:        rateService.Refresh,
		},
		scheduler.Task{
			Name:     "cost-backfill",
			Interval: cfg.BackfillInterval,
			Run:      reconciler.Tick,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)

	router := api.NewRouter(api.RouterConfig{
		Users:          userRepo,
		Types:          typeRepo,
		Parcels:        parcelRepo,
		Coordinator:    coordinator,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening addr=:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	// Scheduled tasks abandon in-flight work; every persisted write is a
	// single atomic statement, so nothing is left half-applied.
	sched.Wait()
	log.Println("Stopped")
}
