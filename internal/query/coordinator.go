/**
 * Query retry coordinator.
 *
 * Top-level control loop per flight query:
 *
 *   FillForm -> SolveCaptcha -> Submit -> Inspect
 *
 * looping back to SolveCaptcha on server-side CAPTCHA rejection and back
 * to Submit on transient errors, each submission consuming one unit of the
 * query-level budget. The query budget is independent of and coarser than
 * the solver's recognition budget: one submission may burn several
 * recognition attempts before the server ever judges an answer.
 *
 * Expected terminal conditions (no data, exhausted budgets) come back as
 * typed results; only browser/session faults return as errors.
 */

package query

import (
	"context"
	"time"

	"github.com/adverant/nexus/flightquery-worker/internal/browser"
	"github.com/adverant/nexus/flightquery-worker/internal/captcha"
	"github.com/adverant/nexus/flightquery-worker/internal/errors"
	"github.com/adverant/nexus/flightquery-worker/internal/extract"
	"github.com/adverant/nexus/flightquery-worker/internal/logging"
	"github.com/adverant/nexus/flightquery-worker/internal/retry"
)

// Status tags a finished flight query.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusCaptchaFailed    Status = "captcha_failed"
	StatusNoData           Status = "no_data"
	StatusRetriesExhausted Status = "retries_exhausted"
)

// FlightResult is the typed outcome of one full flight query.
type FlightResult struct {
	FlightNumber  string
	DepartureDate string
	Status        Status
	Segments      []extract.SegmentRecord
	Submissions   int
	Failure       *errors.QueryError
}

// Solver abstracts the CAPTCHA solve loop.
type Solver interface {
	Solve(ctx context.Context, flightNumber string, budget *retry.Budget) (captcha.Result, error)
}

// Extractor abstracts result-page data extraction.
type Extractor interface {
	ExtractSegments(ctx context.Context, flightNumber, departureDate string) ([]extract.SegmentRecord, error)
}

// Config carries the coordinator's budgets and delays.
type Config struct {
	BaseURL            string
	QueryMaxAttempts   int
	CaptchaMaxAttempts int
	SubmitSettleDelay  time.Duration
	CaptchaRetryDelay  time.Duration
}

// Coordinator runs the per-flight state machine.
type Coordinator struct {
	page      browser.Page
	solver    Solver
	extractor Extractor
	classify  func(html string) Classification
	cfg       Config
	log       *logging.Logger

	sleep func(time.Duration)
}

// NewCoordinator wires the state machine.
func NewCoordinator(page browser.Page, solver Solver, extractor Extractor, cfg Config, log *logging.Logger) *Coordinator {
	return &Coordinator{
		page:      page,
		solver:    solver,
		extractor: extractor,
		classify:  ClassifyResponse,
		cfg:       cfg,
		log:       log,
		sleep:     time.Sleep,
	}
}

// Run executes one flight query to a terminal result. Budgets are freshly
// constructed here and never outlive the call.
func (c *Coordinator) Run(ctx context.Context, flightNumber, departureDate string) (*FlightResult, error) {
	result := &FlightResult{FlightNumber: flightNumber, DepartureDate: departureDate}

	if err := c.fillForm(flightNumber, departureDate); err != nil {
		return nil, errors.NewBrowserFailedError(flightNumber, "fill_form", err)
	}

	budget := retry.NewBudget(c.cfg.QueryMaxAttempts)
	needSolve := true

	for budget.Next() {
		result.Submissions = budget.Used()
		c.log.Info("query attempt",
			"flight", flightNumber, "attempt", budget.Used(), "max", budget.Max())

		if needSolve {
			solveRes, err := c.solver.Solve(ctx, flightNumber, retry.NewBudget(c.cfg.CaptchaMaxAttempts))
			if err != nil {
				return nil, errors.NewBrowserFailedError(flightNumber, "solve_captcha", err)
			}
			if solveRes.State == captcha.StateExhausted {
				result.Status = StatusCaptchaFailed
				result.Failure = errors.NewCaptchaExhaustedError(flightNumber, solveRes.Attempts)
				return result, nil
			}
			if lookup, err := c.page.SetValue(browser.Loc(browser.RoleCaptchaInput), solveRes.Text); err != nil {
				return nil, errors.NewBrowserFailedError(flightNumber, "fill_captcha", err)
			} else if lookup == browser.LookupNotFound {
				return nil, errors.NewBrowserFailedError(flightNumber, "fill_captcha", errElementGone("captcha input"))
			}
		}

		if lookup, err := c.page.Click(browser.Loc(browser.RoleQueryButton)); err != nil {
			return nil, errors.NewBrowserFailedError(flightNumber, "submit", err)
		} else if lookup == browser.LookupNotFound {
			return nil, errors.NewBrowserFailedError(flightNumber, "submit", errElementGone("query button"))
		}

		// Wait for the result list to render, up to the settle delay. A
		// timeout is not a fault: rejection and no-data pages never show
		// the list and are judged from the snapshot below.
		if _, err := c.page.WaitVisible(browser.Loc(browser.RoleResultList), c.cfg.SubmitSettleDelay); err != nil {
			return nil, errors.NewBrowserFailedError(flightNumber, "settle", err)
		}

		html, err := c.page.PageHTML()
		if err != nil {
			return nil, errors.NewBrowserFailedError(flightNumber, "inspect", err)
		}

		cls := c.classify(html)
		c.log.Info("submission classified",
			"flight", flightNumber, "attempt", budget.Used(),
			"outcome", cls.Outcome, "reason", cls.Reason)

		switch cls.Outcome {
		case OutcomeSuccess:
			segments, err := c.extractor.ExtractSegments(ctx, flightNumber, departureDate)
			if err != nil {
				return nil, errors.NewBrowserFailedError(flightNumber, "extract", err)
			}
			result.Status = StatusSuccess
			result.Segments = segments
			return result, nil

		case OutcomeCaptchaRejected:
			// The site refreshed the CAPTCHA on rejection; give the new
			// image time to render before re-solving.
			needSolve = true
			c.sleep(c.cfg.CaptchaRetryDelay)

		case OutcomeNoData:
			result.Status = StatusNoData
			result.Failure = errors.NewNoDataFoundError(flightNumber, cls.Reason)
			return result, nil

		case OutcomeTransient:
			// Resubmit the already-filled form after a short backoff.
			needSolve = false
			c.sleep(c.cfg.SubmitSettleDelay)
		}
	}

	c.log.Error("query budget exhausted",
		"flight", flightNumber, "submissions", budget.Used())
	result.Status = StatusRetriesExhausted
	result.Failure = errors.NewQueryRetriesExhaustedError(flightNumber, budget.Used())
	return result, nil
}

// fillForm navigates to the query page, switches to the by-flight-number
// tab and enters the flight number and departure date.
func (c *Coordinator) fillForm(flightNumber, departureDate string) error {
	if err := c.page.Navigate(c.cfg.BaseURL); err != nil {
		return err
	}
	if lookup, err := c.page.Click(browser.Loc(browser.RoleFlightNumberTab)); err != nil {
		return err
	} else if lookup == browser.LookupNotFound {
		return errElementGone("flight number tab")
	}
	if lookup, err := c.page.SetValue(browser.Loc(browser.RoleFlightNumberInput), flightNumber); err != nil {
		return err
	} else if lookup == browser.LookupNotFound {
		return errElementGone("flight number input")
	}
	if lookup, err := c.page.SetValue(browser.Loc(browser.RoleDepartureDateInput), departureDate); err != nil {
		return err
	} else if lookup == browser.LookupNotFound {
		return errElementGone("departure date input")
	}
	return nil
}

type elementGoneError string

func (e elementGoneError) Error() string { return "expected element missing: " + string(e) }

func errElementGone(what string) error { return elementGoneError(what) }
