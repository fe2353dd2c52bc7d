/**
 * FlightQuery Enqueue CLI
 *
 * Reads a CSV of flight_number,departure_date rows and pushes one job per
 * row onto the worker's queue, through whichever driver the worker is
 * configured with.
 *
 * Usage:
 *   enqueue -file flights.csv
 *   enqueue -flight MU5100 -date 2026-08-23
 */

package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/adverant/nexus/flightquery-worker/internal/config"
	"github.com/adverant/nexus/flightquery-worker/internal/queue"
)

func main() {
	csvPath := flag.String("file", "", "CSV file with flight_number,departure_date rows")
	flight := flag.String("flight", "", "single flight number to enqueue")
	date := flag.String("date", "", "departure date for -flight (YYYY-MM-DD)")
	flag.Parse()

	if err := godotenv.Load(".env.nexus"); err != nil {
		log.Printf("Warning: .env.nexus not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	jobs, err := collectJobs(*csvPath, *flight, *date)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(jobs) == 0 {
		log.Fatalf("Nothing to enqueue: pass -file or -flight/-date")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var enqueue func(ctx context.Context, job *queue.FlightQueryJob) error
	switch cfg.QueueDriver {
	case "asynq":
		enqueue, err = asynqEnqueuer(cfg)
	default:
		enqueue, err = redisEnqueuer(ctx, cfg)
	}
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}

	for _, job := range jobs {
		if err := enqueue(ctx, job); err != nil {
			log.Fatalf("Failed to enqueue %s %s: %v", job.FlightNumber, job.DepartureDate, err)
		}
		fmt.Printf("enqueued %s  flight=%s date=%s\n", job.JobID, job.FlightNumber, job.DepartureDate)
	}
	fmt.Printf("%d job(s) enqueued to %q via %s\n", len(jobs), cfg.QueueName, cfg.QueueDriver)
}

// collectJobs builds the job list from either the CSV file or the single
// -flight/-date pair.
func collectJobs(csvPath, flight, date string) ([]*queue.FlightQueryJob, error) {
	if csvPath == "" {
		if flight == "" || date == "" {
			return nil, nil
		}
		return []*queue.FlightQueryJob{newJob(flight, date)}, nil
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var jobs []*queue.FlightQueryJob
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line++
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected flight_number,departure_date", line)
		}
		fn := strings.TrimSpace(record[0])
		dd := strings.TrimSpace(record[1])
		// Skip a header row if present.
		if line == 1 && strings.EqualFold(fn, "flight_number") {
			continue
		}
		if fn == "" || dd == "" {
			return nil, fmt.Errorf("line %d: empty flight number or date", line)
		}
		jobs = append(jobs, newJob(fn, dd))
	}
	return jobs, nil
}

func newJob(flight, date string) *queue.FlightQueryJob {
	return &queue.FlightQueryJob{
		JobID:         uuid.New().String(),
		FlightNumber:  strings.ToUpper(flight),
		DepartureDate: date,
		CreatedAt:     time.Now().UTC(),
		Metadata:      map[string]interface{}{"source": "enqueue-cli"},
	}
}

// redisEnqueuer LPUSHes JSON payloads onto the worker's LIST queue.
func redisEnqueuer(ctx context.Context, cfg *config.Config) (func(context.Context, *queue.FlightQueryJob) error, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return func(ctx context.Context, job *queue.FlightQueryJob) error {
		payload, err := json.Marshal(job)
		if err != nil {
			return err
		}
		return client.LPush(ctx, cfg.QueueName, payload).Err()
	}, nil
}

// asynqEnqueuer submits tasks through an asynq client.
func asynqEnqueuer(cfg *config.Config) (func(context.Context, *queue.FlightQueryJob) error, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := asynq.NewClient(redisOpt)

	return func(ctx context.Context, job *queue.FlightQueryJob) error {
		payload, err := json.Marshal(job)
		if err != nil {
			return err
		}
		task := asynq.NewTask(queue.TaskTypeFlightQuery, payload)
		_, err = client.EnqueueContext(ctx, task, asynq.Queue(cfg.QueueName), asynq.MaxRetry(2))
		return err
	}, nil
}
