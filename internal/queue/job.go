package queue

import (
	"context"
	"fmt"
	"time"
)

// TaskTypeFlightQuery is the asynq task type for flight query jobs.
const TaskTypeFlightQuery = "flightquery:job"

// FlightQueryJob is one unit of work: query a single flight for a single
// departure date.
type FlightQueryJob struct {
	JobID         string                 `json:"jobId"`
	FlightNumber  string                 `json:"flightNumber"`
	DepartureDate string                 `json:"departureDate"`
	CreatedAt     time.Time              `json:"createdAt"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks the fields a job cannot run without.
func (j *FlightQueryJob) Validate() error {
	if j.JobID == "" {
		return fmt.Errorf("jobId is required")
	}
	if j.FlightNumber == "" {
		return fmt.Errorf("flightNumber is required")
	}
	if j.DepartureDate == "" {
		return fmt.Errorf("departureDate is required")
	}
	return nil
}

// Processor handles one flight query job end to end.
type Processor interface {
	ProcessFlightQuery(ctx context.Context, job *FlightQueryJob) error
}
