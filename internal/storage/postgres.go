/**
 * PostgreSQL client for the flight query worker.
 *
 * Persists per-job query status and the flat segment records the
 * extraction pipeline emits. Status updates are UPSERTs so the worker can
 * create the job row even when the enqueuer did not.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/adverant/nexus/flightquery-worker/internal/extract"
)

// PostgresClient handles database operations
type PostgresClient struct {
	db *sql.DB
}

// QueryUpdate represents a flight query status update
type QueryUpdate struct {
	JobID            string
	FlightNumber     string
	DepartureDate    string
	Status           string
	Submissions      int
	ProcessingTimeMs int64
	ErrorCode        string
	ErrorMessage     string
	Metadata         map[string]interface{}
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Connection pool sized for a single sequential worker plus the
	// occasional health check.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// UpdateQueryStatus upserts the status row for one flight query job.
func (p *PostgresClient) UpdateQueryStatus(ctx context.Context, update *QueryUpdate) error {
	if update.JobID == "" {
		return fmt.Errorf("job ID is required")
	}
	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO flight_queries (
			job_id, flight_number, departure_date, status, submissions,
			processing_time_ms, error_code, error_message, metadata, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, NOW())
		ON CONFLICT (job_id) DO UPDATE SET
			status = EXCLUDED.status,
			submissions = EXCLUDED.submissions,
			processing_time_ms = EXCLUDED.processing_time_ms,
			error_code = EXCLUDED.error_code,
			error_message = EXCLUDED.error_message,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()`

	if _, err := p.db.ExecContext(ctx, query,
		update.JobID,
		update.FlightNumber,
		update.DepartureDate,
		update.Status,
		update.Submissions,
		update.ProcessingTimeMs,
		update.ErrorCode,
		update.ErrorMessage,
		metadataJSON,
	); err != nil {
		return fmt.Errorf("failed to update query status: %w", err)
	}
	return nil
}

// SaveSegments inserts the extracted segment records for one job. Existing
// rows for the job are replaced so retried jobs do not duplicate segments.
func (p *PostgresClient) SaveSegments(ctx context.Context, jobID string, segments []extract.SegmentRecord) error {
	if jobID == "" {
		return fmt.Errorf("job ID is required")
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM flight_segments WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to clear previous segments: %w", err)
	}

	insert := `
		INSERT INTO flight_segments (
			job_id, flight_number, departure_date, segment_index,
			departure_airport, arrival_airport,
			scheduled_departure, scheduled_arrival,
			actual_departure, actual_arrival,
			flight_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, seg := range segments {
		if _, err := tx.ExecContext(ctx, insert,
			jobID,
			seg.FlightNumber,
			seg.DepartureDate,
			seg.SegmentIndex,
			seg.DepartureAirport,
			seg.ArrivalAirport,
			seg.ScheduledDeparture,
			seg.ScheduledArrival,
			seg.ActualDeparture,
			seg.ActualArrival,
			seg.FlightStatus,
			seg.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert segment %d: %w", seg.SegmentIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit segments: %w", err)
	}
	return nil
}

// EnsureSchema creates the worker's tables when they do not exist.
func (p *PostgresClient) EnsureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS flight_queries (
			job_id TEXT PRIMARY KEY,
			flight_number TEXT NOT NULL,
			departure_date TEXT NOT NULL,
			status TEXT NOT NULL,
			submissions INT NOT NULL DEFAULT 0,
			processing_time_ms BIGINT NOT NULL DEFAULT 0,
			error_code TEXT,
			error_message TEXT,
			metadata JSONB,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS flight_segments (
			id BIGSERIAL PRIMARY KEY,
			job_id TEXT NOT NULL REFERENCES flight_queries(job_id) ON DELETE CASCADE,
			flight_number TEXT NOT NULL,
			departure_date TEXT NOT NULL,
			segment_index INT NOT NULL,
			departure_airport TEXT,
			arrival_airport TEXT,
			scheduled_departure TEXT,
			scheduled_arrival TEXT,
			actual_departure TEXT,
			actual_arrival TEXT,
			flight_status TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the connection pool.
func (p *PostgresClient) Close() error {
	return p.db.Close()
}
