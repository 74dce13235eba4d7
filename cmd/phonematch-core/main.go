package main

// @title           PhoneMatch Core API
// @version         1.0
// @description     Search API for lost and found phone reports. Free-text, fuzzy, phonetic and proximity search across both report collections.

// @contact.name   Custodia Labs
// @contact.url    https://github.com/custodia-labs/phonematch-core/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/phonematch-core/internal/adapters/driven/memory"
	"github.com/custodia-labs/phonematch-core/internal/adapters/driven/postgres"
	pgqueue "github.com/custodia-labs/phonematch-core/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/custodia-labs/phonematch-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/custodia-labs/phonematch-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/phonematch-core/internal/adapters/driving/http"
	"github.com/custodia-labs/phonematch-core/internal/config"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driving"
	"github.com/custodia-labs/phonematch-core/internal/core/services"
	"github.com/custodia-labs/phonematch-core/internal/worker"
)

var version = "dev"

const analyticsDrainTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Command line arg overrides RUN_MODE
	mode := cfg.RunMode
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	log.Printf("phonematch-core %s starting in %s mode", version, mode)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Initialize PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("PostgreSQL connected and schema initialized")

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== PostgreSQL Stores =====
	recordStore := postgres.NewRecordStore(db)
	analyticsStore := postgres.NewAnalyticsStore(db)

	// ===== Search Cache (Redis if available, otherwise in-process) =====
	var searchCache driven.SearchCache
	switch {
	case !cfg.CacheEnabled:
		log.Println("Search cache disabled via SEARCH_CACHE_ENABLED=false")
	case redisClient != nil:
		searchCache = redisadapter.NewSearchCache(redisClient)
		log.Println("Using Redis search cache")
	default:
		memCache := memory.NewSearchCache(memory.SearchCacheConfig{})
		defer memCache.Close()
		searchCache = memCache
		log.Println("Using in-memory search cache")
	}

	// ===== Analytics Queue (Redis stream if available, otherwise PostgreSQL) =====
	var analyticsQueue driven.AnalyticsQueue
	if redisClient != nil {
		queue, err := redisqueue.NewQueue(redisClient, redisqueue.Config{
			ConsumerName: fmt.Sprintf("worker-%d", os.Getpid()),
			RatePerSec:   cfg.AnalyticsRatePerSec,
			Burst:        cfg.AnalyticsBurst,
		})
		if err != nil {
			log.Fatalf("Failed to create analytics queue: %v", err)
		}
		defer queue.Close()
		analyticsQueue = queue
		log.Println("Using Redis analytics queue")
	} else {
		queue := pgqueue.NewQueue(db.DB, pgqueue.Config{
			RatePerSec: cfg.AnalyticsRatePerSec,
			Burst:      cfg.AnalyticsBurst,
		})
		if err := queue.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to create analytics queue: %v", err)
		}
		analyticsQueue = queue
		log.Println("Using PostgreSQL analytics queue")
	}

	// ===== Distributed Lock (Redis if available, otherwise PostgreSQL advisory locks) =====
	var distributedLock driven.DistributedLock
	if redisClient != nil {
		distributedLock = redisadapter.NewLock(redisClient)
		log.Println("Using Redis distributed lock")
	} else {
		distributedLock = postgres.NewAdvisoryLock(db)
		log.Println("Using PostgreSQL advisory lock")
	}

	// Services (core business logic)
	searchService := services.NewSearchService(services.SearchServiceConfig{
		Records:     recordStore,
		Cache:       searchCache,
		Analytics:   analyticsQueue,
		Logger:      logger,
		CacheTTL:    cfg.CacheTTL,
		ScanLimit:   cfg.ScanLimit,
		PhoneRegion: cfg.PhoneRegion,
	})

	scheduler := services.NewRetentionScheduler(services.RetentionSchedulerConfig{
		Store:     analyticsStore,
		Lock:      distributedLock,
		Logger:    logger,
		Retention: cfg.AnalyticsRetention,
	})

	log.Printf("Search config: cache=%t cache_ttl=%s scan_limit=%d phone_region=%s",
		searchCache != nil, cfg.CacheTTL, cfg.ScanLimit, cfg.PhoneRegion)

	var redisPing http.Pinger
	if redisClient != nil {
		redisPing = redisPinger{client: redisClient}
	}

	switch mode {
	case config.ModeAPI:
		runAPI(cfg, searchService, db, redisPing, logger)
		drainAnalytics(searchService)

	case config.ModeWorker:
		runWorkerMode(ctx, cfg, analyticsQueue, analyticsStore, scheduler, logger)

	case config.ModeAll:
		// Stopped after the analytics drain, not on the signal
		workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
		workerDone := make(chan struct{})
		go func() {
			defer close(workerDone)
			runWorkerMode(workerCtx, cfg, analyticsQueue, analyticsStore, scheduler, logger)
		}()
		runAPI(cfg, searchService, db, redisPing, logger)
		drainAnalytics(searchService)

		stopWorker()
		<-workerDone

	default:
		log.Fatalf("Unknown mode: %s (use: api, worker, or all)", mode)
	}
}

func runAPI(
	cfg *config.Config,
	searchService driving.SearchService,
	db http.Pinger,
	redisPing http.Pinger,
	logger *slog.Logger,
) {
	server := http.NewServer(
		http.Config{
			Host:    "0.0.0.0",
			Port:    cfg.Port,
			Version: version,
		},
		searchService,
		db,
		redisPing,
		logger,
	)

	log.Printf("API server starting on :%d", cfg.Port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// drainAnalytics waits for analytics events emitted by requests that already finished
func drainAnalytics(searchService driving.SearchService) {
	ctx, cancel := context.WithTimeout(context.Background(), analyticsDrainTimeout)
	defer cancel()

	if err := searchService.Drain(ctx); err != nil {
		log.Printf("Analytics events still in flight at shutdown: %v", err)
		return
	}
	log.Println("Analytics events flushed")
}

// runWorkerMode drains the analytics queue and runs the retention job
func runWorkerMode(
	ctx context.Context,
	cfg *config.Config,
	queue driven.AnalyticsQueue,
	store driven.AnalyticsStore,
	scheduler *services.RetentionScheduler,
	logger *slog.Logger,
) {
	log.Println("Starting worker mode...")

	w := worker.NewWorker(worker.WorkerConfig{
		Queue:          queue,
		Store:          store,
		Scheduler:      scheduler,
		Logger:         logger,
		Concurrency:    cfg.WorkerConcurrency,
		DequeueTimeout: cfg.WorkerDequeueTimeout,
	})

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	log.Println("Worker started, persisting search events...")

	<-ctx.Done()

	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
}

// redisPinger adapts the Redis client to the readiness check
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
