/**
 * Job-level glue: one Worker owns the browser session, the recognition
 * pipeline and the storage client, and turns each queued flight query
 * into a persisted result.
 *
 * Budgets and coordinator state are constructed fresh per job; nothing
 * recognition-related survives from one flight to the next.
 */

package worker

import (
	"context"
	"time"

	"github.com/adverant/nexus/flightquery-worker/internal/artifact"
	"github.com/adverant/nexus/flightquery-worker/internal/browser"
	"github.com/adverant/nexus/flightquery-worker/internal/captcha"
	"github.com/adverant/nexus/flightquery-worker/internal/config"
	qerrors "github.com/adverant/nexus/flightquery-worker/internal/errors"
	"github.com/adverant/nexus/flightquery-worker/internal/extract"
	"github.com/adverant/nexus/flightquery-worker/internal/logging"
	"github.com/adverant/nexus/flightquery-worker/internal/ocr"
	"github.com/adverant/nexus/flightquery-worker/internal/query"
	"github.com/adverant/nexus/flightquery-worker/internal/queue"
	"github.com/adverant/nexus/flightquery-worker/internal/storage"
	"github.com/adverant/nexus/flightquery-worker/internal/timestamp"
)

// Worker processes flight query jobs sequentially over one browser
// session.
type Worker struct {
	cfg   *config.Config
	log   *logging.Logger
	store *storage.PostgresClient
	page  browser.Page

	decoder   *ocr.Decoder
	artifacts *artifact.Store
}

// New builds a worker around an open browser session and storage client.
func New(cfg *config.Config, page browser.Page, store *storage.PostgresClient, log *logging.Logger) *Worker {
	artifacts := artifact.NewStore(cfg.ArtifactDir, log.WithPrefix("artifact"))
	decoder := ocr.NewDecoder(buildBackends(cfg), log.WithPrefix("ocr"))

	return &Worker{
		cfg:       cfg,
		log:       log,
		store:     store,
		page:      page,
		decoder:   decoder,
		artifacts: artifacts,
	}
}

// buildBackends instantiates the configured OCR backends in preference
// order.
func buildBackends(cfg *config.Config) []ocr.Backend {
	backends := make([]ocr.Backend, 0, len(cfg.OCRBackends))
	for _, name := range cfg.OCRBackends {
		switch name {
		case "tesseract":
			backends = append(backends, ocr.NewTesseractBackend())
		case "external":
			backends = append(backends, ocr.NewExternalBackend(cfg.ExternalOCRCommand))
		}
	}
	return backends
}

// Backends exposes the decoder's usable backend names for startup logging.
func (w *Worker) Backends() []string {
	return w.decoder.Backends()
}

// ProcessFlightQuery implements queue.Processor.
func (w *Worker) ProcessFlightQuery(ctx context.Context, job *queue.FlightQueryJob) error {
	start := time.Now()

	solver := captcha.NewSolver(w.page, w.decoder, w.artifacts, w.cfg.CaptchaRetryDelay, w.log.WithPrefix("captcha"))
	times := timestamp.NewDecoder(w.decoder, w.artifacts, w.cfg.TimestampRetryDelay, w.cfg.ArtifactEmbedBase64, w.log.WithPrefix("timestamp"))
	extractor := extract.NewExtractor(w.page, times, w.cfg.TimestampMaxAttempts, w.log.WithPrefix("extract"))

	coordinator := query.NewCoordinator(w.page, solver, extractor, query.Config{
		BaseURL:            w.cfg.FlightBaseURL,
		QueryMaxAttempts:   w.cfg.QueryMaxAttempts,
		CaptchaMaxAttempts: w.cfg.CaptchaMaxAttempts,
		SubmitSettleDelay:  w.cfg.SubmitSettleDelay,
		CaptchaRetryDelay:  w.cfg.CaptchaRetryDelay,
	}, w.log.WithPrefix("query"))

	result, err := coordinator.Run(ctx, job.FlightNumber, job.DepartureDate)
	if err != nil {
		// Infrastructure fault: record it and surface the error so the
		// queue driver can apply its own retry policy.
		w.recordFailure(ctx, job, err, time.Since(start))
		return err
	}

	return w.recordResult(ctx, job, result, time.Since(start))
}

func (w *Worker) recordResult(ctx context.Context, job *queue.FlightQueryJob, result *query.FlightResult, elapsed time.Duration) error {
	update := &storage.QueryUpdate{
		JobID:            job.JobID,
		FlightNumber:     job.FlightNumber,
		DepartureDate:    job.DepartureDate,
		Status:           string(result.Status),
		Submissions:      result.Submissions,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Metadata:         job.Metadata,
	}
	if result.Failure != nil {
		update.ErrorCode = string(result.Failure.Code)
		update.ErrorMessage = result.Failure.Message
	}

	if err := w.store.UpdateQueryStatus(ctx, update); err != nil {
		return qerrors.NewStorageFailedError(job.FlightNumber, err)
	}

	if result.Status == query.StatusSuccess {
		if err := w.store.SaveSegments(ctx, job.JobID, result.Segments); err != nil {
			return qerrors.NewStorageFailedError(job.FlightNumber, err)
		}
		w.log.Info("flight query persisted",
			"job_id", job.JobID, "flight", job.FlightNumber,
			"segments", len(result.Segments), "submissions", result.Submissions)
	} else {
		w.log.Warn("flight query ended without data",
			"job_id", job.JobID, "flight", job.FlightNumber,
			"status", result.Status, "submissions", result.Submissions)
	}
	return nil
}

func (w *Worker) recordFailure(ctx context.Context, job *queue.FlightQueryJob, cause error, elapsed time.Duration) {
	update := &storage.QueryUpdate{
		JobID:            job.JobID,
		FlightNumber:     job.FlightNumber,
		DepartureDate:    job.DepartureDate,
		Status:           "error",
		ProcessingTimeMs: elapsed.Milliseconds(),
		ErrorMessage:     cause.Error(),
		Metadata:         job.Metadata,
	}
	if qe, ok := cause.(*qerrors.QueryError); ok {
		update.ErrorCode = string(qe.Code)
		update.ErrorMessage = qe.Message
	}

	if err := w.store.UpdateQueryStatus(ctx, update); err != nil {
		w.log.Error("failed to record job failure",
			"job_id", job.JobID, "flight", job.FlightNumber, "error", err)
	}
}
