/**
 * Debug artifact store.
 *
 * Every CAPTCHA and timestamp image that enters recognition is persisted
 * for offline audit, tagged with the attempt number and a correlating
 * identifier (the flight number being queried). Path scheme:
 *
 *   {dir}/{category}/{field}_{correlationId}_{timestamp}_attempt{n}.png
 *
 * This is a side channel: failures to persist are logged and swallowed,
 * they never affect the recognition flow.
 */

package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adverant/nexus/flightquery-worker/internal/logging"
)

// Categories used by the recognition pipeline.
const (
	CategoryCaptcha   = "captchaimage"
	CategoryTimestamp = "timeimage"
)

// Store writes debug images under a base directory.
type Store struct {
	dir string
	log *logging.Logger

	// now is swappable in tests for deterministic file names.
	now func() time.Time
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, log *logging.Logger) *Store {
	return &Store{dir: dir, log: log, now: time.Now}
}

// Save persists one attempt's raw image bytes and returns the file path.
func (s *Store) Save(category, field, correlationID string, attempt int, data []byte) (string, error) {
	targetDir := filepath.Join(s.dir, category)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s_attempt%d.png",
		field, correlationID, s.now().Format("20060102_150405"), attempt)
	path := filepath.Join(targetDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// TrySave is Save with the error reduced to a log line, for call sites
// where artifact persistence must never interrupt recognition.
func (s *Store) TrySave(category, field, correlationID string, attempt int, data []byte) {
	if _, err := s.Save(category, field, correlationID, attempt, data); err != nil {
		s.log.Warn("failed to persist debug artifact",
			"category", category, "field", field, "correlation_id", correlationID, "error", err)
	}
}
