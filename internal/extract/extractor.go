/**
 * Result-page data extraction.
 *
 * Walks the flight-segment rows of a successful query and builds one flat
 * record per segment. Text fields (airports, scheduled times, status) come
 * straight from the page; actual times are image-rendered and go through
 * timestamp recognition with its own retry budget per field. A single
 * unreadable field never drops the segment.
 */

package extract

import (
	"context"
	"time"

	"github.com/adverant/nexus/flightquery-worker/internal/browser"
	"github.com/adverant/nexus/flightquery-worker/internal/logging"
	"github.com/adverant/nexus/flightquery-worker/internal/retry"
	"github.com/adverant/nexus/flightquery-worker/internal/timestamp"
)

// maxSegmentProbe bounds the per-element fallback scan when the result
// container cannot be parsed.
const maxSegmentProbe = 10

// timeDecoder is the slice of timestamp.Decoder the extractor needs.
type timeDecoder interface {
	DecodeField(ctx context.Context, image []byte, field, correlationID string, budget *retry.Budget) string
}

// Extractor pulls segment records off the current result page.
type Extractor struct {
	page  browser.Page
	times timeDecoder
	log   *logging.Logger

	timestampMaxAttempts int

	now func() time.Time
}

// NewExtractor wires result extraction.
func NewExtractor(page browser.Page, times *timestamp.Decoder, timestampMaxAttempts int, log *logging.Logger) *Extractor {
	return &Extractor{
		page:                 page,
		times:                times,
		timestampMaxAttempts: timestampMaxAttempts,
		log:                  log,
		now:                  time.Now,
	}
}

// ExtractSegments reads every segment row of the current result page.
// Individual field failures degrade to empty values or sentinels; an
// error return means the page itself became unreachable.
func (e *Extractor) ExtractSegments(ctx context.Context, flightNumber, departureDate string) ([]SegmentRecord, error) {
	count, err := e.segmentCount()
	if err != nil {
		return nil, err
	}
	e.log.Info("extracting flight segments", "flight", flightNumber, "segments", count)

	records := make([]SegmentRecord, 0, count)
	for i := 1; i <= count; i++ {
		record, err := e.extractSegment(ctx, flightNumber, departureDate, i)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// segmentCount prefers counting rows in the page snapshot; when the
// snapshot cannot be read it falls back to probing segment containers one
// by one.
func (e *Extractor) segmentCount() (int, error) {
	html, err := e.page.PageHTML()
	if err != nil {
		return 0, err
	}
	if n := SegmentCountFromHTML(html); n > 0 {
		return n, nil
	}

	count := 0
	for i := 1; i <= maxSegmentProbe; i++ {
		_, lookup, err := e.page.Text(browser.SegLoc(browser.RoleSegmentContainer, i))
		if err != nil {
			return 0, err
		}
		if lookup == browser.LookupNotFound {
			break
		}
		count++
	}
	return count, nil
}

func (e *Extractor) extractSegment(ctx context.Context, flightNumber, departureDate string, index int) (SegmentRecord, error) {
	record := SegmentRecord{
		FlightNumber:  flightNumber,
		DepartureDate: departureDate,
		SegmentIndex:  index,
		CreatedAt:     e.now(),
	}

	textFields := []struct {
		role browser.Role
		dest *string
	}{
		{browser.RoleDepartureAirport, &record.DepartureAirport},
		{browser.RoleArrivalAirport, &record.ArrivalAirport},
		{browser.RoleScheduledDeparture, &record.ScheduledDeparture},
		{browser.RoleScheduledArrival, &record.ScheduledArrival},
		{browser.RoleFlightStatus, &record.FlightStatus},
	}
	for _, f := range textFields {
		value, lookup, err := e.page.Text(browser.SegLoc(f.role, index))
		if err != nil {
			return record, err
		}
		if lookup == browser.LookupNotFound {
			e.log.Debug("segment text field missing",
				"flight", flightNumber, "segment", index, "role", f.role)
			continue
		}
		*f.dest = value
	}

	var err error
	record.ActualDeparture, err = e.extractTimeField(ctx, flightNumber, index, browser.RoleActualDepartureImg, "actual_departure")
	if err != nil {
		return record, err
	}
	record.ActualArrival, err = e.extractTimeField(ctx, flightNumber, index, browser.RoleActualArrivalImg, "actual_arrival")
	if err != nil {
		return record, err
	}

	return record, nil
}

// extractTimeField captures one image-rendered time and decodes it with a
// fresh per-field budget. A missing image element is recorded as
// unrecognized rather than failing the segment.
func (e *Extractor) extractTimeField(ctx context.Context, flightNumber string, index int, role browser.Role, field string) (string, error) {
	image, lookup, err := e.page.ElementImage(browser.SegLoc(role, index))
	if err != nil {
		return "", err
	}
	if lookup == browser.LookupNotFound {
		e.log.Warn("timestamp image missing",
			"flight", flightNumber, "segment", index, "field", field)
		return timestamp.Unrecognized, nil
	}

	budget := retry.NewBudget(e.timestampMaxAttempts)
	return e.times.DecodeField(ctx, image, field, flightNumber, budget), nil
}
