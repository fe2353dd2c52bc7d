/**
 * Asynq queue consumer.
 *
 * Alternative driver for deployments that already run an asynq-backed job
 * system and want its retry/scheduling semantics. Concurrency is pinned
 * to 1 regardless of configuration: there is exactly one browser session.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/adverant/nexus/flightquery-worker/internal/logging"
)

// AsynqConsumer handles job consumption through an asynq server.
type AsynqConsumer struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor Processor
	log       *logging.Logger
}

// AsynqConsumerConfig holds consumer configuration
type AsynqConsumerConfig struct {
	RedisURL  string
	QueueName string
	Processor Processor
	Logger    *logging.Logger
}

// NewAsynqConsumer creates a new asynq-based queue consumer
func NewAsynqConsumer(cfg *AsynqConsumerConfig) (*AsynqConsumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "flightquery"
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		// One browser session, one job at a time.
		Concurrency: 1,
		Queues: map[string]int{
			cfg.QueueName: 1,
		},
	})

	consumer := &AsynqConsumer{
		server:    server,
		mux:       asynq.NewServeMux(),
		processor: cfg.Processor,
		log:       cfg.Logger,
	}
	consumer.mux.HandleFunc(TaskTypeFlightQuery, consumer.handleTask)
	return consumer, nil
}

// Start launches the asynq server.
func (c *AsynqConsumer) Start() error {
	if err := c.server.Start(c.mux); err != nil {
		return fmt.Errorf("failed to start asynq server: %w", err)
	}
	c.log.Info("asynq queue consumer started", "task_type", TaskTypeFlightQuery)
	return nil
}

// Stop shuts the asynq server down, letting the in-flight job finish.
func (c *AsynqConsumer) Stop() error {
	c.server.Shutdown()
	return nil
}

func (c *AsynqConsumer) handleTask(ctx context.Context, task *asynq.Task) error {
	var job FlightQueryJob
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		// Malformed payloads will never parse; skip asynq's retry cycle.
		return fmt.Errorf("malformed job payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %v: %w", err, asynq.SkipRetry)
	}

	c.log.Info("processing flight query job",
		"job_id", job.JobID, "flight", job.FlightNumber, "date", job.DepartureDate)
	return c.processor.ProcessFlightQuery(ctx, &job)
}
