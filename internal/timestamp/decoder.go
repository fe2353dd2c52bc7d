/**
 * Timestamp decode with partial-failure semantics.
 *
 * The actual departure/arrival times are rendered as small glyph images.
 * Decoding retries with a budget of its own, smaller than the CAPTCHA
 * budget, and without any refresh step: the image does not change, so
 * retries only rotate the preprocessing strategy order. Exhaustion yields
 * a sentinel (or the raw image embedded as base64) and never blocks
 * extraction of the rest of the segment.
 */

package timestamp

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/adverant/nexus/flightquery-worker/internal/artifact"
	"github.com/adverant/nexus/flightquery-worker/internal/logging"
	"github.com/adverant/nexus/flightquery-worker/internal/ocr"
	"github.com/adverant/nexus/flightquery-worker/internal/retry"
)

// Unrecognized is the sentinel recorded when a timestamp image survives
// every decode attempt.
const Unrecognized = "unrecognized"

type recognizer interface {
	DecodeWithOffset(ctx context.Context, image []byte, class ocr.CharClass, offset int) (ocr.Attempt, bool)
}

// Decoder decodes one rendered timestamp field at a time.
type Decoder struct {
	decoder   recognizer
	artifacts *artifact.Store
	log       *logging.Logger

	retryDelay  time.Duration
	embedBase64 bool

	sleep func(time.Duration)
}

// NewDecoder wires the timestamp decode loop. When embedBase64 is set, an
// unrecognized field carries the raw image as a data URI instead of the
// bare sentinel so a human can resolve it from the output record alone.
func NewDecoder(decoder *ocr.Decoder, artifacts *artifact.Store, retryDelay time.Duration, embedBase64 bool, log *logging.Logger) *Decoder {
	return &Decoder{
		decoder:     decoder,
		artifacts:   artifacts,
		log:         log,
		retryDelay:  retryDelay,
		embedBase64: embedBase64,
		sleep:       time.Sleep,
	}
}

// DecodeField runs the bounded decode loop over one field's image and
// always returns a value: "HH:MM" on success, otherwise the sentinel or a
// base64 image reference. field names the record column (for artifacts
// and logs); correlationID is the flight number being queried.
func (d *Decoder) DecodeField(ctx context.Context, image []byte, field, correlationID string, budget *retry.Budget) string {
	for budget.Next() {
		attemptNo := budget.Used()

		attempt, ok := d.decoder.DecodeWithOffset(ctx, image, ocr.CharClassTimestamp, attemptNo-1)
		if ok {
			d.log.Info("timestamp recognized",
				"field", field, "correlation_id", correlationID,
				"attempt", attemptNo, "value", attempt.Cleaned)
			return attempt.Cleaned
		}

		d.log.Warn("timestamp recognition failed",
			"field", field, "correlation_id", correlationID,
			"attempt", attemptNo, "max", budget.Max())

		if !budget.Exhausted() {
			d.sleep(d.retryDelay)
		}
	}

	d.log.Error("timestamp recognition exhausted, recording sentinel",
		"field", field, "correlation_id", correlationID, "attempts", budget.Used())
	d.artifacts.TrySave(artifact.CategoryTimestamp, field, correlationID, budget.Used(), image)

	if d.embedBase64 {
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
	}
	return Unrecognized
}
