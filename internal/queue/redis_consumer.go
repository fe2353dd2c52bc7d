/**
 * Direct Redis queue consumer.
 *
 * Uses simple Redis LIST operations (LPUSH producer, BRPOP consumer) so
 * any upstream can enqueue with nothing but a Redis client. This is the
 * default driver. Jobs run strictly one at a time: the worker owns a
 * single browser session and the query pipeline is sequential by design.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adverant/nexus/flightquery-worker/internal/logging"
)

const popTimeout = 5 * time.Second

// RedisConsumer handles job consumption from a Redis LIST queue
type RedisConsumer struct {
	client    *redis.Client
	processor Processor
	queueName string
	log       *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// RedisConsumerConfig holds consumer configuration
type RedisConsumerConfig struct {
	RedisURL  string
	QueueName string
	Processor Processor
	Logger    *logging.Logger
}

// NewRedisConsumer creates a new Redis-based queue consumer
func NewRedisConsumer(cfg *RedisConsumerConfig) (*RedisConsumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "flightquery:jobs"
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ctx, cancelLoop := context.WithCancel(context.Background())
	return &RedisConsumer{
		client:    client,
		processor: cfg.Processor,
		queueName: cfg.QueueName,
		log:       cfg.Logger,
		ctx:       ctx,
		cancel:    cancelLoop,
	}, nil
}

// Start launches the consume loop.
func (c *RedisConsumer) Start() error {
	c.wg.Add(1)
	go c.consumeLoop()
	c.log.Info("Redis queue consumer started", "queue", c.queueName)
	return nil
}

// Stop terminates the consume loop and waits for the in-flight job, if
// any, to finish. Flight query cycles always run to success or budget
// exhaustion before returning control.
func (c *RedisConsumer) Stop() error {
	c.cancel()
	c.wg.Wait()
	return c.client.Close()
}

func (c *RedisConsumer) consumeLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		result, err := c.client.BRPop(c.ctx, popTimeout, c.queueName).Result()
		if err != nil {
			if err == redis.Nil || c.ctx.Err() != nil {
				continue
			}
			c.log.Error("queue pop failed", "queue", c.queueName, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		c.handlePayload([]byte(result[1]))
	}
}

func (c *RedisConsumer) handlePayload(payload []byte) {
	var job FlightQueryJob
	if err := json.Unmarshal(payload, &job); err != nil {
		c.log.Error("discarding malformed job payload", "error", err)
		return
	}
	if err := job.Validate(); err != nil {
		c.log.Error("discarding invalid job", "job_id", job.JobID, "error", err)
		return
	}

	c.log.Info("processing flight query job",
		"job_id", job.JobID, "flight", job.FlightNumber, "date", job.DepartureDate)

	start := time.Now()
	if err := c.processor.ProcessFlightQuery(c.ctx, &job); err != nil {
		c.log.Error("flight query job failed",
			"job_id", job.JobID, "flight", job.FlightNumber,
			"duration", time.Since(start), "error", err)
		return
	}
	c.log.Info("flight query job finished",
		"job_id", job.JobID, "flight", job.FlightNumber, "duration", time.Since(start))
}
