// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"estate-workers/internal/common/camunda"
	"estate-workers/internal/common/config"
	"estate-workers/internal/common/database"
	"estate-workers/internal/common/logger"
	"estate-workers/internal/common/observability"
	"estate-workers/internal/ranking"
	"estate-workers/internal/session"
	"estate-workers/internal/store/professionals"
	"estate-workers/pkg/registry"

	lp "estate-workers/internal/workers/professionals/list-professionals"
	ltp "estate-workers/internal/workers/professionals/list-top-professionals"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting worker manager...")

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init Zeebe Client with retry ---
	zbConfig := camunda.DefaultClientConfig(cfg.Camunda.BrokerAddress)
	if cfg.Camunda.RequestTimeout > 0 {
		zbConfig.RequestTimeout = config.GetDuration(cfg.Camunda.RequestTimeout)
	}
	zeebe, err := camunda.Connect(ctx, zbConfig, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		return nil
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := rdb.Ping(ctx); err != nil {
			rdb.Close()
			return err
		}
		return nil
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Ranking ---
	var store ranking.Store = professionals.NewStore(pg.DB)
	if cb := cfg.Database.CircuitBreaker; cb.Enabled {
		store = professionals.NewBreakerStore(store, professionals.BreakerSettings{
			MaxRequests:  uint32(cb.MaxRequests),
			Interval:     config.GetDuration(cb.Interval),
			Timeout:      config.GetDuration(cb.Timeout),
			MinRequests:  uint32(cb.MinRequests),
			FailureRatio: cb.FailureRatio,
		}, log)
	}
	if cfg.Ranking.CountCacheTTL > 0 {
		store = professionals.NewCachedStore(store, rdb.Client, config.GetDuration(cfg.Ranking.CountCacheTTL), log)
	}
	sessions := session.NewRedisProvider(rdb.Client, cfg.Session.KeyPrefix, log)
	ranker := ranking.NewRanker(store, sessions, ranking.Options{
		PageCap:         cfg.Ranking.PageCap,
		TrendingWindow:  cfg.Ranking.TrendingWindow(),
		TopOverFetch:    cfg.Ranking.TopOverFetchFactor,
		DefaultLimit:    cfg.Ranking.DefaultLimit,
		DefaultTopLimit: cfg.Ranking.DefaultTopLimit,
	})

	// --- Workers ---
	checkRegistry(zapLog, lp.TaskType, ltp.TaskType)
	var workers []worker.JobWorker

	lpCfg := config.GetWorkerConfig(cfg, lp.TaskType)
	lpHandler := lp.NewHandler(&lp.Config{
		Timeout:      config.GetDuration(lpCfg.Timeout),
		DefaultLimit: cfg.Ranking.DefaultLimit,
		MaxLimit:     lp.LoadConfig().MaxLimit,
	}, ranker, log)
	if w := camunda.StartWorker(zeebe.GetClient(), lp.TaskType, lpCfg, lpHandler, obs, log); w != nil {
		workers = append(workers, w)
	}

	ltpCfg := config.GetWorkerConfig(cfg, ltp.TaskType)
	ltpHandler := ltp.NewHandler(&ltp.Config{
		Timeout:      config.GetDuration(ltpCfg.Timeout),
		DefaultLimit: cfg.Ranking.DefaultTopLimit,
		MaxLimit:     ltp.LoadConfig().MaxLimit,
	}, ranker, log)
	if w := camunda.StartWorker(zeebe.GetClient(), ltp.TaskType, ltpCfg, ltpHandler, obs, log); w != nil {
		workers = append(workers, w)
	}

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	router := newHealthRouter([]readinessCheck{
		{name: "zeebe", check: zeebe.HealthCheck},
		{name: "postgres", check: pg.Ping},
		{name: "redis", check: rdb.Ping},
	})

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// checkRegistry warns about task types served here that the activity registry
// does not list as deployable.
func checkRegistry(log *zap.Logger, taskTypes ...string) {
	path := os.Getenv("ACTIVITY_REGISTRY_PATH")
	if path == "" {
		path = registry.DefaultPath
	}

	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry unavailable", zap.String("path", path), zap.Error(err))
		return
	}
	if err := reg.Validate(); err != nil {
		log.Warn("activity registry is invalid", zap.String("path", path), zap.Error(err))
	}

	for _, taskType := range taskTypes {
		a, ok := reg.Find(taskType)
		switch {
		case !ok:
			log.Warn("task type missing from activity registry", zap.String("taskType", taskType))
		case !a.Deployable():
			log.Warn("task type not marked deployable",
				zap.String("taskType", taskType),
				zap.String("status", a.ImplementationStatus),
			)
		}
	}
}
