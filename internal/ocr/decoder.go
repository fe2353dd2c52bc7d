package ocr

import (
	"context"
	"sort"
	"strings"

	"github.com/adverant/nexus/flightquery-worker/internal/logging"
	"github.com/adverant/nexus/flightquery-worker/internal/preprocess"
)

/**
 * Decoder: best-effort string from an image across preprocessing
 * strategies and OCR backends.
 *
 * For each strategy variant the configured backends are consulted in
 * priority order; the first output that survives the character-class
 * validity predicate wins. Unavailable backends are skipped for the whole
 * session. Total failure is an empty result, never an error: the callers
 * own the retry policy.
 */

// confidenceFloor is the minimum per-position confidence for a symbol to
// survive extraction.
const confidenceFloor = 0.01

// captchaLength is the exact number of symbols in a valid CAPTCHA answer.
const captchaLength = 4

// Decoder coordinates preprocessing strategies and OCR backends.
type Decoder struct {
	backends   []Backend
	strategies map[CharClass][]preprocess.Strategy
	log        *logging.Logger
}

// NewDecoder builds a decoder over the configured backends. Backends that
// fail their availability probe are dropped from this session's list and
// logged; the preference order of the survivors is preserved.
func NewDecoder(backends []Backend, log *logging.Logger) *Decoder {
	usable := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if !b.Available() {
			log.Warn("OCR backend unavailable, removed for this session", "backend", b.Name())
			continue
		}
		usable = append(usable, b)
	}

	return &Decoder{
		backends: usable,
		strategies: map[CharClass][]preprocess.Strategy{
			CharClassCaptcha:   preprocess.CaptchaStrategies(),
			CharClassTimestamp: preprocess.TimestampStrategies(),
		},
		log: log,
	}
}

// Backends returns the names of the usable backends in priority order.
func (d *Decoder) Backends() []string {
	names := make([]string, len(d.backends))
	for i, b := range d.backends {
		names[i] = b.Name()
	}
	return names
}

// Decode runs the full strategy x backend grid and returns the first valid
// attempt. ok is false when everything is exhausted without a valid
// string.
func (d *Decoder) Decode(ctx context.Context, image []byte, class CharClass) (Attempt, bool) {
	return d.DecodeWithOffset(ctx, image, class, 0)
}

// DecodeWithOffset behaves like Decode but rotates the strategy order by
// the given offset, so that bounded retry loops over an unchanging image
// lead with a different enhancement path on each pass.
func (d *Decoder) DecodeWithOffset(ctx context.Context, image []byte, class CharClass, offset int) (Attempt, bool) {
	if len(d.backends) == 0 {
		d.log.Error("no usable OCR backends configured", "class", class)
		return Attempt{}, false
	}

	strategies := d.rotatedStrategies(class, offset)
	for _, strategy := range strategies {
		processed := strategy.Apply(image)
		for _, backend := range d.backends {
			if err := ctx.Err(); err != nil {
				return Attempt{}, false
			}

			result, err := backend.Classify(ctx, processed, class)
			if err != nil {
				d.log.Debug("backend classify failed, trying next",
					"backend", backend.Name(), "strategy", strategy.Name, "error", err)
				continue
			}

			attempt := d.extract(result, class)
			attempt.Backend = backend.Name()
			attempt.Strategy = strategy.Name
			if attempt.Valid() {
				return attempt, true
			}
		}
	}
	return Attempt{}, false
}

func (d *Decoder) rotatedStrategies(class CharClass, offset int) []preprocess.Strategy {
	base := d.strategies[class]
	if len(base) == 0 || offset%len(base) == 0 {
		return base
	}
	shift := offset % len(base)
	rotated := make([]preprocess.Strategy, 0, len(base))
	rotated = append(rotated, base[shift:]...)
	rotated = append(rotated, base[:shift]...)
	return rotated
}

// extract converts a probability result into a cleaned attempt for the
// given class.
func (d *Decoder) extract(result ProbabilityResult, class CharClass) Attempt {
	switch class {
	case CharClassCaptcha:
		return extractCaptcha(result)
	case CharClassTimestamp:
		return extractTimestamp(result)
	default:
		return Attempt{}
	}
}

type candidate struct {
	position   int
	symbol     string
	confidence float64
}

// extractCaptcha picks the best symbol per position, drops positions below
// the confidence floor, keeps the 4 highest-confidence survivors re-sorted
// into original position order, and validates the cleaned string as
// exactly four letters.
func extractCaptcha(result ProbabilityResult) Attempt {
	candidates := topCandidates(result)
	if len(candidates) > captchaLength {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].confidence > candidates[j].confidence
		})
		candidates = candidates[:captchaLength]
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].position < candidates[j].position
		})
	}

	attempt := joinCandidates(candidates)
	if len(candidates) == captchaLength {
		attempt.Cleaned = CleanCaptcha(attempt.Raw)
	}
	return attempt
}

// extractTimestamp keeps all above-floor symbols in position order and
// coerces the joined string into HH:MM.
func extractTimestamp(result ProbabilityResult) Attempt {
	attempt := joinCandidates(topCandidates(result))
	attempt.Cleaned = CleanTimestamp(attempt.Raw)
	return attempt
}

// topCandidates takes the maximum-probability guess per position, dropping
// blanks and anything below the floor.
func topCandidates(result ProbabilityResult) []candidate {
	var out []candidate
	for _, pos := range result.Positions {
		if len(pos.Guesses) == 0 {
			continue
		}
		best := pos.Guesses[0]
		for _, g := range pos.Guesses[1:] {
			if g.Confidence > best.Confidence {
				best = g
			}
		}
		if strings.TrimSpace(best.Symbol) == "" || best.Confidence <= confidenceFloor {
			continue
		}
		out = append(out, candidate{position: pos.Position, symbol: best.Symbol, confidence: best.Confidence})
	}
	return out
}

func joinCandidates(candidates []candidate) Attempt {
	var raw strings.Builder
	confidences := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		raw.WriteString(c.symbol)
		confidences = append(confidences, c.confidence)
	}
	return Attempt{Raw: raw.String(), Confidences: confidences}
}
