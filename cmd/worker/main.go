// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loan-decision-pipeline/internal/capabilities"
	"loan-decision-pipeline/internal/common/camunda"
	"loan-decision-pipeline/internal/common/config"
	"loan-decision-pipeline/internal/common/database"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/common/observability"
	"loan-decision-pipeline/internal/orchestrator"
	loandecision "loan-decision-pipeline/internal/workers/loan-decision"
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
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	if !cfg.Camunda.Enabled {
		zapLog.Fatal("camunda.enabled must be true for the worker binary")
	}

	zapLog.Info("Starting decision pipeline worker...")

	obs := observability.New(cfg.App.Name + "-worker")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe client with retry ---
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init Redis with retry (classifier cache) ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Capability providers ---
	inference := capabilities.NewInferenceClient(cfg.Inference, log)
	cached := capabilities.NewCachedClassifiers(
		inference, inference, inference,
		redis, cfg.Inference.CacheTTL, log,
	)
	providers := capabilities.Providers{
		Intent:    cached,
		Emotion:   cached,
		Sentiment: cached,
		Names:     inference,
		Generator: inference,
		Advisor:   inference,
	}

	pipeline := orchestrator.New(providers, log)

	jobTimeout := time.Duration(cfg.Camunda.Timeout) * time.Millisecond
	if jobTimeout == 0 {
		jobTimeout = 30 * time.Second
	}
	handler := loandecision.NewHandler(pipeline, jobTimeout, log)

	w := camunda.NewWorker(
		zeebeClient.GetClient(),
		loandecision.TaskType,
		cfg.Camunda.MaxJobsActive,
		handler,
		log,
	)
	w.Start()
	zapLog.Info("Worker registered", zap.String("taskType", loandecision.TaskType))

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	w.Stop(shutdownCtx)
	zapLog.Info("Worker stopped")
}
