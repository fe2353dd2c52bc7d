package captcha

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adverant/nexus/flightquery-worker/internal/artifact"
	"github.com/adverant/nexus/flightquery-worker/internal/browser"
	"github.com/adverant/nexus/flightquery-worker/internal/logging"
	"github.com/adverant/nexus/flightquery-worker/internal/ocr"
	"github.com/adverant/nexus/flightquery-worker/internal/retry"
)

// fakePage satisfies browser.Page with scripted CAPTCHA image reads.
type fakePage struct {
	imageLookups []browser.Lookup
	imageErr     error
	imageCalls   int
	clickCalls   int
}

func (p *fakePage) Navigate(string) error { return nil }

func (p *fakePage) ElementImage(browser.Locator) ([]byte, browser.Lookup, error) {
	if p.imageErr != nil {
		return nil, browser.LookupNotFound, p.imageErr
	}
	lookup := browser.LookupFound
	if p.imageCalls < len(p.imageLookups) {
		lookup = p.imageLookups[p.imageCalls]
	}
	p.imageCalls++
	if lookup == browser.LookupNotFound {
		return nil, browser.LookupNotFound, nil
	}
	return []byte("png"), browser.LookupFound, nil
}

func (p *fakePage) Click(browser.Locator) (browser.Lookup, error) {
	p.clickCalls++
	return browser.LookupFound, nil
}

func (p *fakePage) SetValue(browser.Locator, string) (browser.Lookup, error) {
	return browser.LookupFound, nil
}

func (p *fakePage) Text(browser.Locator) (string, browser.Lookup, error) {
	return "", browser.LookupFound, nil
}

func (p *fakePage) PageHTML() (string, error) { return "", nil }

func (p *fakePage) WaitVisible(browser.Locator, time.Duration) (bool, error) {
	return true, nil
}

// fakeRecognizer returns scripted decode results in order, then failures.
type fakeRecognizer struct {
	results []string
	offsets []int
	calls   int
}

func (r *fakeRecognizer) DecodeWithOffset(_ context.Context, _ []byte, _ ocr.CharClass, offset int) (ocr.Attempt, bool) {
	r.offsets = append(r.offsets, offset)
	idx := r.calls
	r.calls++
	if idx < len(r.results) && r.results[idx] != "" {
		return ocr.Attempt{Cleaned: r.results[idx]}, true
	}
	return ocr.Attempt{}, false
}

func newTestSolver(page *fakePage, rec *fakeRecognizer, t *testing.T) *Solver {
	log := logging.NewLogger("test", logging.LevelError)
	return &Solver{
		page:       page,
		decoder:    rec,
		artifacts:  artifact.NewStore(t.TempDir(), log),
		log:        log,
		retryDelay: time.Millisecond,
		sleep:      func(time.Duration) {},
	}
}

func TestSolveFirstAttemptSkipsRefresh(t *testing.T) {
	page := &fakePage{}
	rec := &fakeRecognizer{results: []string{"word"}}
	s := newTestSolver(page, rec, t)

	res, err := s.Solve(context.Background(), "MU5100", retry.NewBudget(6))
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if res.State != StateSolved {
		t.Fatalf("State = %v, want StateSolved", res.State)
	}
	if res.Text != "word" {
		t.Errorf("Text = %q, want %q", res.Text, "word")
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", res.Attempts)
	}
	if page.clickCalls != 0 {
		t.Errorf("refresh clicked %d times on a first-attempt solve", page.clickCalls)
	}
}

func TestSolveRefreshesBetweenFailedAttempts(t *testing.T) {
	page := &fakePage{}
	rec := &fakeRecognizer{results: []string{"", "", "gold"}}
	s := newTestSolver(page, rec, t)

	res, err := s.Solve(context.Background(), "MU5100", retry.NewBudget(6))
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if res.State != StateSolved || res.Text != "gold" {
		t.Fatalf("got %+v, want solved with %q", res, "gold")
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
	// One refresh after each of the two failures.
	if page.clickCalls != 2 {
		t.Errorf("refresh clicks = %d, want 2", page.clickCalls)
	}
	// Strategy rotation offset follows the attempt number.
	want := []int{0, 1, 2}
	for i, off := range rec.offsets {
		if off != want[i] {
			t.Errorf("offsets = %v, want %v", rec.offsets, want)
			break
		}
	}
}

func TestSolveExhaustsBudget(t *testing.T) {
	page := &fakePage{}
	rec := &fakeRecognizer{}
	s := newTestSolver(page, rec, t)

	res, err := s.Solve(context.Background(), "MU5100", retry.NewBudget(6))
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if res.State != StateExhausted {
		t.Fatalf("State = %v, want StateExhausted", res.State)
	}
	if res.Attempts != 6 {
		t.Errorf("Attempts = %d, want 6", res.Attempts)
	}
	if rec.calls != 6 {
		t.Errorf("decode calls = %d, want 6", rec.calls)
	}
	// No refresh after the final failed attempt.
	if page.clickCalls != 5 {
		t.Errorf("refresh clicks = %d, want 5", page.clickCalls)
	}
}

func TestSolveMissingImageTriggersRefresh(t *testing.T) {
	page := &fakePage{imageLookups: []browser.Lookup{browser.LookupNotFound, browser.LookupFound}}
	rec := &fakeRecognizer{results: []string{"word"}}
	s := newTestSolver(page, rec, t)

	res, err := s.Solve(context.Background(), "MU5100", retry.NewBudget(6))
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if res.State != StateSolved {
		t.Fatalf("State = %v, want StateSolved", res.State)
	}
	// The missing image consumed an attempt and forced a refresh.
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
	if page.clickCalls != 1 {
		t.Errorf("refresh clicks = %d, want 1", page.clickCalls)
	}
}

func TestSolvePropagatesBrowserFault(t *testing.T) {
	page := &fakePage{imageErr: errors.New("session gone")}
	s := newTestSolver(page, &fakeRecognizer{}, t)

	if _, err := s.Solve(context.Background(), "MU5100", retry.NewBudget(6)); err == nil {
		t.Fatal("Solve swallowed a browser fault")
	}
}
