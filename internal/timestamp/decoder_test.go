package timestamp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/adverant/nexus/flightquery-worker/internal/artifact"
	"github.com/adverant/nexus/flightquery-worker/internal/logging"
	"github.com/adverant/nexus/flightquery-worker/internal/ocr"
	"github.com/adverant/nexus/flightquery-worker/internal/retry"
)

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

func newTestDecoder(rec *fakeRecognizer, embedBase64 bool, t *testing.T) *Decoder {
	log := logging.NewLogger("test", logging.LevelError)
	return &Decoder{
		decoder:     rec,
		artifacts:   artifact.NewStore(t.TempDir(), log),
		log:         log,
		retryDelay:  time.Millisecond,
		embedBase64: embedBase64,
		sleep:       func(time.Duration) {},
	}
}

func TestDecodeFieldSuccess(t *testing.T) {
	rec := &fakeRecognizer{results: []string{"09:15"}}
	d := newTestDecoder(rec, false, t)

	got := d.DecodeField(context.Background(), []byte("png"), "actual_departure", "MU5100", retry.NewBudget(3))
	if got != "09:15" {
		t.Errorf("DecodeField = %q, want %q", got, "09:15")
	}
	if rec.calls != 1 {
		t.Errorf("decode calls = %d, want 1", rec.calls)
	}
}

func TestDecodeFieldRetriesWithRotatedStrategies(t *testing.T) {
	rec := &fakeRecognizer{results: []string{"", "", "23:40"}}
	d := newTestDecoder(rec, false, t)

	got := d.DecodeField(context.Background(), []byte("png"), "actual_arrival", "MU5100", retry.NewBudget(3))
	if got != "23:40" {
		t.Errorf("DecodeField = %q, want %q", got, "23:40")
	}
	want := []int{0, 1, 2}
	for i, off := range rec.offsets {
		if off != want[i] {
			t.Fatalf("offsets = %v, want %v", rec.offsets, want)
		}
	}
}

func TestDecodeFieldExhaustionReturnsSentinel(t *testing.T) {
	rec := &fakeRecognizer{}
	d := newTestDecoder(rec, false, t)

	got := d.DecodeField(context.Background(), []byte("png"), "actual_departure", "MU5100", retry.NewBudget(3))
	if got != Unrecognized {
		t.Errorf("DecodeField = %q, want sentinel %q", got, Unrecognized)
	}
	if rec.calls != 3 {
		t.Errorf("decode calls = %d, want 3", rec.calls)
	}
}

func TestDecodeFieldExhaustionEmbedsBase64(t *testing.T) {
	rec := &fakeRecognizer{}
	d := newTestDecoder(rec, true, t)

	got := d.DecodeField(context.Background(), []byte("png-bytes"), "actual_departure", "MU5100", retry.NewBudget(2))
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("DecodeField = %q, want a base64 data URI", got)
	}
}
