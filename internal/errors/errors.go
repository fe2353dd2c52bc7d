package errors

import (
	"fmt"
	"time"
)

/**
 * Custom error types for the flight query worker.
 *
 * Expected terminal conditions (no data, exhausted retries) are reported as
 * typed QueryError values; only infrastructure faults propagate as plain
 * errors up to the caller.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Recognition errors
	ErrorCaptchaExhausted      ErrorCode = "CAPTCHA_EXHAUSTED"
	ErrorOCRBackendUnavailable ErrorCode = "OCR_BACKEND_UNAVAILABLE"

	// Query errors
	ErrorQueryRetriesExhausted ErrorCode = "QUERY_RETRIES_EXHAUSTED"
	ErrorNoDataFound           ErrorCode = "NO_DATA_FOUND"

	// Infrastructure errors
	ErrorBrowserFailed ErrorCode = "BROWSER_FAILED"
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"
)

// QueryError represents a structured flight query failure
type QueryError struct {
	Code         ErrorCode
	Message      string
	FlightNumber string
	Timestamp    time.Time
	Details      map[string]interface{}
	Cause        error
}

func (e *QueryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewCaptchaExhaustedError(flightNumber string, attempts int) *QueryError {
	return &QueryError{
		Code:         ErrorCaptchaExhausted,
		Message:      fmt.Sprintf("CAPTCHA recognition exhausted after %d attempts", attempts),
		FlightNumber: flightNumber,
		Timestamp:    time.Now(),
		Details: map[string]interface{}{
			"attempts": attempts,
		},
	}
}

func NewOCRBackendUnavailableError(configured []string) *QueryError {
	return &QueryError{
		Code:      ErrorOCRBackendUnavailable,
		Message:   "no configured OCR backend passed its availability probe",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"configured": configured,
		},
	}
}

func NewQueryRetriesExhaustedError(flightNumber string, attempts int) *QueryError {
	return &QueryError{
		Code:         ErrorQueryRetriesExhausted,
		Message:      fmt.Sprintf("query retries exhausted after %d submissions", attempts),
		FlightNumber: flightNumber,
		Timestamp:    time.Now(),
		Details: map[string]interface{}{
			"attempts": attempts,
		},
	}
}

func NewNoDataFoundError(flightNumber, marker string) *QueryError {
	return &QueryError{
		Code:         ErrorNoDataFound,
		Message:      "server reports no data for this flight",
		FlightNumber: flightNumber,
		Timestamp:    time.Now(),
		Details: map[string]interface{}{
			"marker": marker,
		},
	}
}

func NewBrowserFailedError(flightNumber, step string, cause error) *QueryError {
	return &QueryError{
		Code:         ErrorBrowserFailed,
		Message:      fmt.Sprintf("browser operation failed during %s", step),
		FlightNumber: flightNumber,
		Timestamp:    time.Now(),
		Details: map[string]interface{}{
			"step": step,
		},
		Cause: cause,
	}
}

func NewStorageFailedError(flightNumber string, cause error) *QueryError {
	return &QueryError{
		Code:         ErrorStorageFailed,
		Message:      "failed to store query results",
		FlightNumber: flightNumber,
		Timestamp:    time.Now(),
		Cause:        cause,
	}
}

// ToMap converts error to map for database storage
func (e *QueryError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
