package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestQueryErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewBrowserFailedError("MU5100", "submit", cause)

	if err.Code != ErrorBrowserFailed {
		t.Errorf("Code = %q, want BROWSER_FAILED", err.Code)
	}
	msg := err.Error()
	if !strings.Contains(msg, "BROWSER_FAILED") || !strings.Contains(msg, "connection refused") {
		t.Errorf("Error() = %q, missing code or cause", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is does not unwrap to the cause")
	}
}

func TestQueryErrorToMap(t *testing.T) {
	err := NewCaptchaExhaustedError("MU5100", 6)

	m := err.ToMap()
	if m["error_code"] != "CAPTCHA_EXHAUSTED" {
		t.Errorf("error_code = %v", m["error_code"])
	}
	if m["attempts"] != 6 {
		t.Errorf("attempts = %v, want 6", m["attempts"])
	}
	if m["message"] == "" {
		t.Error("message missing from map")
	}
}

func TestOCRBackendUnavailableListsConfigured(t *testing.T) {
	err := NewOCRBackendUnavailableError([]string{"tesseract", "external"})
	if err.Code != ErrorOCRBackendUnavailable {
		t.Errorf("Code = %q, want OCR_BACKEND_UNAVAILABLE", err.Code)
	}
	configured, ok := err.Details["configured"].([]string)
	if !ok || len(configured) != 2 {
		t.Errorf("configured = %v", err.Details["configured"])
	}
}

func TestNoDataFoundCarriesMarker(t *testing.T) {
	err := NewNoDataFoundError("MU5100", "暂无数据")
	if err.Code != ErrorNoDataFound {
		t.Errorf("Code = %q, want NO_DATA_FOUND", err.Code)
	}
	if err.Details["marker"] != "暂无数据" {
		t.Errorf("marker = %v", err.Details["marker"])
	}
}
