// Package ocr turns raw glyph images into validated strings. Recognition
// runs through an ordered list of interchangeable backends; each backend
// reports per-position symbol probabilities and the decoder applies
// character-class specific extraction and cleanup.
package ocr

import "context"

// CharClass identifies the expected alphabet and format of a recognition
// target.
type CharClass string

const (
	// CharClassCaptcha is a 4-symbol alphabetic challenge.
	CharClassCaptcha CharClass = "captcha"
	// CharClassTimestamp is a rendered "HH:MM" glyph string.
	CharClassTimestamp CharClass = "timestamp"
)

// SymbolGuess is one candidate symbol for a position with its confidence
// in [0,1].
type SymbolGuess struct {
	Symbol     string
	Confidence float64
}

// PositionResult holds the ranked guesses for one character slot,
// highest confidence first.
type PositionResult struct {
	Position int
	Guesses  []SymbolGuess
}

// ProbabilityResult is a backend's full per-position output for one image.
type ProbabilityResult struct {
	Positions []PositionResult
}

// Backend is the polymorphic OCR provider contract. Absence of an engine
// is a runtime capability check: unavailable backends are skipped, never
// an initialization failure.
type Backend interface {
	Name() string
	Available() bool
	Classify(ctx context.Context, image []byte, class CharClass) (ProbabilityResult, error)
}

// Attempt records one decode attempt. Immutable once created; the decoder
// accumulates attempts per call and the winner's Cleaned value is the
// decode result.
type Attempt struct {
	Backend     string
	Strategy    string
	Raw         string
	Cleaned     string
	Confidences []float64
}

// Valid reports whether the attempt produced a cleaned, validated string.
func (a Attempt) Valid() bool { return a.Cleaned != "" }
