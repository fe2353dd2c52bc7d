/**
 * External command backend.
 *
 * Shells out to a configured recognizer executable (e.g. a ddddocr wrapper
 * script) that reads PNG bytes on stdin and writes a JSON probability
 * report on stdout:
 *
 *   {"positions": [{"candidates": [{"symbol": "l", "probability": 0.93}]}]}
 *
 * This is the probability-rich path: unlike Tesseract it scores every
 * candidate symbol per position, which is what the top-4-by-confidence
 * CAPTCHA extraction was designed for.
 */

package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// ExternalBackend delegates recognition to a subprocess.
type ExternalBackend struct {
	command string
	args    []string

	probeOnce sync.Once
	available bool
}

type externalReport struct {
	Positions []struct {
		Candidates []struct {
			Symbol      string  `json:"symbol"`
			Probability float64 `json:"probability"`
		} `json:"candidates"`
	} `json:"positions"`
}

// NewExternalBackend creates a backend around the given command line. The
// character class is appended as the final argument on each invocation.
func NewExternalBackend(commandLine string) *ExternalBackend {
	fields := strings.Fields(commandLine)
	backend := &ExternalBackend{}
	if len(fields) > 0 {
		backend.command = fields[0]
		backend.args = fields[1:]
	}
	return backend
}

// Name implements Backend.
func (e *ExternalBackend) Name() string { return "external" }

// Available reports whether the configured executable resolves on PATH.
func (e *ExternalBackend) Available() bool {
	e.probeOnce.Do(func() {
		if e.command == "" {
			e.available = false
			return
		}
		_, err := exec.LookPath(e.command)
		e.available = err == nil
	})
	return e.available
}

// Classify implements Backend.
func (e *ExternalBackend) Classify(ctx context.Context, image []byte, class CharClass) (ProbabilityResult, error) {
	args := append(append([]string{}, e.args...), string(class))
	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ProbabilityResult{}, fmt.Errorf("external recognizer failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	var report externalReport
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		return ProbabilityResult{}, fmt.Errorf("external recognizer returned malformed JSON: %w", err)
	}

	var result ProbabilityResult
	for i, pos := range report.Positions {
		pr := PositionResult{Position: i}
		for _, c := range pos.Candidates {
			pr.Guesses = append(pr.Guesses, SymbolGuess{Symbol: c.Symbol, Confidence: c.Probability})
		}
		result.Positions = append(result.Positions, pr)
	}
	return result, nil
}
