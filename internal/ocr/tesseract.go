/**
 * Tesseract backend.
 *
 * Uses gosseract with a per-class character whitelist and single-word page
 * segmentation. Tesseract does not expose per-symbol probabilities through
 * this binding, so each recognized rune is reported as a single guess with
 * a heuristic confidence: above the extraction floor when the rune belongs
 * to the expected alphabet, below it otherwise.
 */

package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

const (
	captchaWhitelist   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	timestampWhitelist = "0123456789:"

	// Flat confidences for a backend that cannot score symbols itself.
	tesseractInAlphabetConfidence  = 0.60
	tesseractOffAlphabetConfidence = 0.001
)

// TesseractBackend recognizes glyph images through a local Tesseract
// install.
type TesseractBackend struct {
	probeOnce sync.Once
	available bool
}

// NewTesseractBackend creates the backend. Availability is probed lazily
// on first use.
func NewTesseractBackend() *TesseractBackend {
	return &TesseractBackend{}
}

// Name implements Backend.
func (t *TesseractBackend) Name() string { return "tesseract" }

// Available reports whether the local Tesseract install can process an
// image. The probe runs a recognition pass over a tiny blank PNG once and
// caches the result for the session.
func (t *TesseractBackend) Available() bool {
	t.probeOnce.Do(func() {
		client := gosseract.NewClient()
		defer client.Close()

		if err := client.SetImageFromBytes(blankProbePNG()); err != nil {
			t.available = false
			return
		}
		if _, err := client.Text(); err != nil {
			t.available = false
			return
		}
		t.available = true
	})
	return t.available
}

// Classify implements Backend.
func (t *TesseractBackend) Classify(ctx context.Context, imageBytes []byte, class CharClass) (ProbabilityResult, error) {
	if err := ctx.Err(); err != nil {
		return ProbabilityResult{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	whitelist := captchaWhitelist
	if class == CharClassTimestamp {
		whitelist = timestampWhitelist
	}
	if err := client.SetWhitelist(whitelist); err != nil {
		return ProbabilityResult{}, err
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_WORD); err != nil {
		return ProbabilityResult{}, err
	}
	if err := client.SetImageFromBytes(imageBytes); err != nil {
		return ProbabilityResult{}, err
	}

	text, err := client.Text()
	if err != nil {
		return ProbabilityResult{}, err
	}

	return textToProbabilities(strings.TrimSpace(text), whitelist), nil
}

// textToProbabilities wraps plain recognized text in the per-position
// probability shape shared by all backends.
func textToProbabilities(text, alphabet string) ProbabilityResult {
	var result ProbabilityResult
	pos := 0
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			continue
		}
		confidence := tesseractOffAlphabetConfidence
		if strings.ContainsRune(alphabet, r) {
			confidence = tesseractInAlphabetConfidence
		}
		result.Positions = append(result.Positions, PositionResult{
			Position: pos,
			Guesses:  []SymbolGuess{{Symbol: string(r), Confidence: confidence}},
		})
		pos++
	}
	return result
}

// blankProbePNG renders a small white image used for the availability
// probe.
func blankProbePNG() []byte {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
