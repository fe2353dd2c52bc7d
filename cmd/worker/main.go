/**
 * FlightQuery Worker - Main Entry Point
 *
 * Go worker for automated flight status queries against a CAPTCHA-gated
 * web form.
 *
 * Architecture:
 * - Redis LIST or Asynq consumer for the job queue (one job at a time)
 * - WebDriver-driven browser session shared across jobs
 * - OCR pipeline (preprocessing strategies x backends) for CAPTCHA and
 *   timestamp images
 * - Bounded retry budgets at the recognition, field and query levels
 * - PostgreSQL persistence for query status and extracted segments
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adverant/nexus/flightquery-worker/internal/browser"
	"github.com/adverant/nexus/flightquery-worker/internal/config"
	"github.com/adverant/nexus/flightquery-worker/internal/errors"
	"github.com/adverant/nexus/flightquery-worker/internal/logging"
	"github.com/adverant/nexus/flightquery-worker/internal/queue"
	"github.com/adverant/nexus/flightquery-worker/internal/storage"
	"github.com/adverant/nexus/flightquery-worker/internal/worker"
)

// consumer is the surface both queue drivers share.
type consumer interface {
	Start() error
	Stop() error
}

func main() {
	// Load environment variables
	if err := godotenv.Load(".env.nexus"); err != nil {
		log.Printf("Warning: .env.nexus not found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("worker", logging.ParseLevel(cfg.LogLevel))
	logger.Info("FlightQuery Worker starting",
		"queue_driver", cfg.QueueDriver, "queue", cfg.QueueName,
		"webdriver", cfg.WebDriverURL, "target", cfg.FlightBaseURL)

	// Initialize storage
	store, err := storage.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer store.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureSchema(schemaCtx); err != nil {
		cancelSchema()
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	cancelSchema()
	logger.Info("PostgreSQL connected, schema ensured")

	// Open the browser session. One session serves every job; the form is
	// re-navigated per query.
	page, err := browser.NewWebDriverSession(cfg.WebDriverURL)
	if err != nil {
		log.Fatalf("Failed to open WebDriver session: %v", err)
	}
	logger.Info("WebDriver session opened", "url", cfg.WebDriverURL)

	// Initialize the job processor
	proc := worker.New(cfg, page, store, logger)
	backends := proc.Backends()
	if len(backends) == 0 {
		log.Fatalf("Failed to start worker: %v", errors.NewOCRBackendUnavailableError(cfg.OCRBackends))
	}
	logger.Info("OCR pipeline ready", "backends", strings.Join(backends, ","))

	// Initialize queue consumer
	var queueConsumer consumer
	switch cfg.QueueDriver {
	case "asynq":
		queueConsumer, err = queue.NewAsynqConsumer(&queue.AsynqConsumerConfig{
			RedisURL:  cfg.RedisURL,
			QueueName: cfg.QueueName,
			Processor: proc,
			Logger:    logger.WithPrefix("queue"),
		})
	default:
		queueConsumer, err = queue.NewRedisConsumer(&queue.RedisConsumerConfig{
			RedisURL:  cfg.RedisURL,
			QueueName: cfg.QueueName,
			Processor: proc,
			Logger:    logger.WithPrefix("queue"),
		})
	}
	if err != nil {
		log.Fatalf("Failed to initialize queue consumer: %v", err)
	}

	if err := queueConsumer.Start(); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}
	logger.Info("FlightQuery Worker is READY, waiting for jobs",
		"captcha_budget", cfg.CaptchaMaxAttempts,
		"timestamp_budget", cfg.TimestampMaxAttempts,
		"query_budget", cfg.QueryMaxAttempts)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	if err := queueConsumer.Stop(); err != nil {
		logger.Error("Error stopping queue consumer", "error", err)
	}
	if err := page.Close(); err != nil {
		logger.Error("Error closing WebDriver session", "error", err)
	}
	logger.Info("Shutdown complete")
}
