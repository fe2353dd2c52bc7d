/**
 * CAPTCHA solve loop.
 *
 * One Solve call owns one recognition-level budget: fetch the on-page
 * CAPTCHA image, run the decoder, and on failure request a refresh (a
 * click on the image, which the site treats as a reload), wait for the
 * new image to render, and try again. Exhaustion is a normal result, not
 * an error; errors are reserved for browser faults.
 */

package captcha

import (
	"context"
	"time"

	"github.com/adverant/nexus/flightquery-worker/internal/artifact"
	"github.com/adverant/nexus/flightquery-worker/internal/browser"
	"github.com/adverant/nexus/flightquery-worker/internal/logging"
	"github.com/adverant/nexus/flightquery-worker/internal/ocr"
	"github.com/adverant/nexus/flightquery-worker/internal/retry"
)

// State tags the terminal condition of a solve cycle.
type State int

const (
	StateSolved State = iota
	StateExhausted
)

// Result is the outcome of one Solve call.
type Result struct {
	State    State
	Text     string
	Attempts int
}

// recognizer is the slice of ocr.Decoder the solver needs.
type recognizer interface {
	DecodeWithOffset(ctx context.Context, image []byte, class ocr.CharClass, offset int) (ocr.Attempt, bool)
}

// Solver obtains a validated CAPTCHA string for one form-fill attempt.
type Solver struct {
	page      browser.Page
	decoder   recognizer
	artifacts *artifact.Store
	log       *logging.Logger

	// retryDelay is the fixed wait after a refresh before re-reading the
	// image, letting the new CAPTCHA render.
	retryDelay time.Duration

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

// NewSolver wires the solve loop.
func NewSolver(page browser.Page, decoder *ocr.Decoder, artifacts *artifact.Store, retryDelay time.Duration, log *logging.Logger) *Solver {
	return &Solver{
		page:       page,
		decoder:    decoder,
		artifacts:  artifacts,
		log:        log,
		retryDelay: retryDelay,
		sleep:      time.Sleep,
	}
}

// Solve runs the bounded recognition loop for the given flight. The budget
// is owned by the caller and freshly constructed per submission cycle.
func (s *Solver) Solve(ctx context.Context, flightNumber string, budget *retry.Budget) (Result, error) {
	for budget.Next() {
		attemptNo := budget.Used()
		s.log.Info("CAPTCHA recognition attempt",
			"flight", flightNumber, "attempt", attemptNo, "max", budget.Max())

		image, lookup, err := s.page.ElementImage(browser.Loc(browser.RoleCaptchaImage))
		if err != nil {
			return Result{}, err
		}
		if lookup == browser.LookupNotFound {
			s.log.Warn("CAPTCHA image not present on page", "flight", flightNumber, "attempt", attemptNo)
			s.refreshAndWait(flightNumber)
			continue
		}

		s.artifacts.TrySave(artifact.CategoryCaptcha, "captcha", flightNumber, attemptNo, image)

		attempt, ok := s.decoder.DecodeWithOffset(ctx, image, ocr.CharClassCaptcha, attemptNo-1)
		if ok {
			s.log.Info("CAPTCHA recognized",
				"flight", flightNumber, "attempt", attemptNo,
				"text", attempt.Cleaned, "backend", attempt.Backend, "strategy", attempt.Strategy)
			return Result{State: StateSolved, Text: attempt.Cleaned, Attempts: attemptNo}, nil
		}

		s.log.Warn("CAPTCHA recognition failed",
			"flight", flightNumber, "attempt", attemptNo, "max", budget.Max())

		if !budget.Exhausted() {
			s.refreshAndWait(flightNumber)
		}
	}

	s.log.Error("CAPTCHA recognition exhausted", "flight", flightNumber, "attempts", budget.Used())
	return Result{State: StateExhausted, Attempts: budget.Used()}, nil
}

// refreshAndWait asks the site for a new CAPTCHA image and waits for it to
// render. Refresh failures are logged only; the next loop iteration will
// re-read whatever image is present.
func (s *Solver) refreshAndWait(flightNumber string) {
	lookup, err := s.page.Click(browser.Loc(browser.RoleCaptchaImage))
	if err != nil {
		s.log.Warn("CAPTCHA refresh click failed", "flight", flightNumber, "error", err)
	} else if lookup == browser.LookupNotFound {
		s.log.Warn("CAPTCHA image missing during refresh", "flight", flightNumber)
	}
	s.sleep(s.retryDelay)
}
