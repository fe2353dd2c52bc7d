package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adverant/nexus/flightquery-worker/internal/logging"
)

func TestSaveNamesFileByAttempt(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, logging.NewLogger("test", logging.LevelError))
	store.now = func() time.Time {
		return time.Date(2026, 8, 23, 9, 15, 30, 0, time.UTC)
	}

	path, err := store.Save(CategoryCaptcha, "captcha", "MU5100", 2, []byte("png"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	want := filepath.Join(dir, CategoryCaptcha, "captcha_MU5100_20260823_091530_attempt2.png")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved artifact: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("saved bytes = %q", data)
	}
}

func TestTrySaveSwallowsFailure(t *testing.T) {
	// A file where the category directory should be forces MkdirAll to fail.
	dir := t.TempDir()
	blocked := filepath.Join(dir, CategoryTimestamp)
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dir, logging.NewLogger("test", logging.LevelError))
	store.TrySave(CategoryTimestamp, "actual_departure", "MU5100", 1, []byte("png"))
}
