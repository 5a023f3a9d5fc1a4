package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"infactory-workers/internal/common/camunda"
	"infactory-workers/internal/common/config"
	"infactory-workers/internal/common/database"
	"infactory-workers/internal/common/logger"
	"infactory-workers/internal/common/observability"
	"infactory-workers/pkg/registry"

	qnt "infactory-workers/internal/workers/ai-conversation/query-nyc-taxi"
	sep "infactory-workers/internal/workers/infrastructure/select-endpoint"
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
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	_ = bootLog.Sync()

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)
	if creds := config.ReadInfactoryCredentials(); !creds.HasAPIKey() {
		// the tool still starts; each invocation reports the missing key
		zapLog.Warn("INFACTORY_API_KEY is not set")
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ClientConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	checks := map[string]readinessCheck{"zeebe": zeebe.HealthCheck}

	if config.IsWorkerEnabled(cfg, qnt.TaskType) {
		handler := qnt.NewHandler(qnt.ConfigFrom(cfg.APIs), log)
		workers = append(workers, startWorker(zeebe, qnt.TaskType, cfg, handler, obs, log))
	}

	if config.NeedsRedis(cfg) {
		redis, err := connectRedis(ctx, cfg.Database.Redis, 10, 2*time.Second, zapLog)
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
		checks["redis"] = redis.Ping

		sepCfg := sep.LoadConfig()
		sepCfg.Timeout = time.Duration(config.GetWorkerConfig(cfg, sep.TaskType).Timeout) * time.Millisecond
		store := sep.NewRedisPreferenceStore(redis.Client, sepCfg.KeyPrefix)
		handler := sep.NewHandler(sepCfg, store, log)
		workers = append(workers, startWorker(zeebe, sep.TaskType, cfg, handler, obs, log))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	checkRegistry(cfg.Registry.Path, []string{qnt.TaskType, sep.TaskType}, zapLog)

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newServeMux(checks),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// connectRedis retries until a ping succeeds. Clients from failed attempts
// are closed.
func connectRedis(ctx context.Context, cfg config.RedisConfig, attempts int, delay time.Duration, log *zap.Logger) (*database.RedisClient, error) {
	var client *database.RedisClient
	err := retryWithBackoff(func() error {
		c, err := database.NewRedis(cfg)
		if err != nil {
			return err
		}
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			return err
		}
		client = c
		return nil
	}, attempts, delay, log, "Redis connection")
	return client, err
}

// checkRegistry warns about task types the activity catalog does not
// describe. A missing catalog is not fatal.
func checkRegistry(path string, taskTypes []string, log *zap.Logger) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry not loaded", zap.String("path", path), zap.Error(err))
		return
	}
	if err := reg.Validate(); err != nil {
		log.Warn("activity registry invalid", zap.String("path", path), zap.Error(err))
	}
	for _, taskType := range taskTypes {
		if _, ok := reg.Find(taskType); !ok {
			log.Warn("task type missing from activity registry", zap.String("taskType", taskType))
		}
	}
}

func startWorker(
	client *camunda.Client,
	taskType string,
	cfg *config.Config,
	handler camunda.JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) *camunda.CamundaWorker {
	wcfg := config.GetWorkerConfig(cfg, taskType)
	return camunda.NewWorker(client.GetClient(), taskType, camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       time.Duration(wcfg.Timeout) * time.Millisecond,
	}, handler, obs, log)
}
