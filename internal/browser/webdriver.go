/**
 * W3C WebDriver session.
 *
 * Thin JSON-over-HTTP client against a chromedriver/selenium endpoint.
 * Only the handful of commands the query pipeline needs are implemented:
 * session lifecycle, navigation, element lookup by XPath, element
 * screenshot, click, clear+type, text, displayed, page source.
 *
 * "no such element" responses are translated into LookupNotFound; every
 * other wire failure is an infrastructure error.
 */

package browser

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// w3cElementKey is the element identifier key defined by the W3C WebDriver
// specification.
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

const waitPollInterval = 250 * time.Millisecond

// WebDriverSession is a Page implementation over a remote WebDriver.
type WebDriverSession struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

type wireError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type wireResponse struct {
	Value json.RawMessage `json:"value"`
}

// NewWebDriverSession opens a session against the WebDriver endpoint.
func NewWebDriverSession(baseURL string) (*WebDriverSession, error) {
	s := &WebDriverSession{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}

	payload := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": map[string]interface{}{
				"browserName": "chrome",
			},
		},
	}
	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := s.do(http.MethodPost, "/session", payload, &created); err != nil {
		return nil, fmt.Errorf("failed to create WebDriver session: %w", err)
	}
	if created.SessionID == "" {
		return nil, fmt.Errorf("WebDriver returned an empty session id")
	}
	s.sessionID = created.SessionID
	return s, nil
}

// Close ends the browser session.
func (s *WebDriverSession) Close() error {
	return s.do(http.MethodDelete, "/session/"+s.sessionID, nil, nil)
}

// Navigate implements Page.
func (s *WebDriverSession) Navigate(url string) error {
	return s.do(http.MethodPost, s.sessionPath("/url"), map[string]string{"url": url}, nil)
}

// ElementImage implements Page.
func (s *WebDriverSession) ElementImage(loc Locator) ([]byte, Lookup, error) {
	id, lookup, err := s.findElement(loc)
	if err != nil || lookup == LookupNotFound {
		return nil, lookup, err
	}

	var encoded string
	if err := s.do(http.MethodGet, s.elementPath(id, "/screenshot"), nil, &encoded); err != nil {
		return nil, LookupFound, err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, LookupFound, fmt.Errorf("malformed screenshot payload: %w", err)
	}
	return data, LookupFound, nil
}

// Click implements Page.
func (s *WebDriverSession) Click(loc Locator) (Lookup, error) {
	id, lookup, err := s.findElement(loc)
	if err != nil || lookup == LookupNotFound {
		return lookup, err
	}
	return LookupFound, s.do(http.MethodPost, s.elementPath(id, "/click"), map[string]string{}, nil)
}

// SetValue implements Page.
func (s *WebDriverSession) SetValue(loc Locator, text string) (Lookup, error) {
	id, lookup, err := s.findElement(loc)
	if err != nil || lookup == LookupNotFound {
		return lookup, err
	}
	if err := s.do(http.MethodPost, s.elementPath(id, "/clear"), map[string]string{}, nil); err != nil {
		return LookupFound, err
	}
	return LookupFound, s.do(http.MethodPost, s.elementPath(id, "/value"), map[string]string{"text": text}, nil)
}

// Text implements Page.
func (s *WebDriverSession) Text(loc Locator) (string, Lookup, error) {
	id, lookup, err := s.findElement(loc)
	if err != nil || lookup == LookupNotFound {
		return "", lookup, err
	}
	var text string
	if err := s.do(http.MethodGet, s.elementPath(id, "/text"), nil, &text); err != nil {
		return "", LookupFound, err
	}
	return text, LookupFound, nil
}

// PageHTML implements Page.
func (s *WebDriverSession) PageHTML() (string, error) {
	var source string
	if err := s.do(http.MethodGet, s.sessionPath("/source"), nil, &source); err != nil {
		return "", err
	}
	return source, nil
}

// WaitVisible implements Page.
func (s *WebDriverSession) WaitVisible(loc Locator, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		id, lookup, err := s.findElement(loc)
		if err != nil {
			return false, err
		}
		if lookup == LookupFound {
			var displayed bool
			if err := s.do(http.MethodGet, s.elementPath(id, "/displayed"), nil, &displayed); err == nil && displayed {
				return true, nil
			}
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(waitPollInterval)
	}
}

// findElement resolves a locator to a WebDriver element id.
func (s *WebDriverSession) findElement(loc Locator) (string, Lookup, error) {
	xpath, err := resolveXPath(loc)
	if err != nil {
		return "", LookupNotFound, err
	}

	payload := map[string]string{"using": "xpath", "value": xpath}
	var element map[string]string
	err = s.do(http.MethodPost, s.sessionPath("/element"), payload, &element)
	if err != nil {
		var we *wireErrorValue
		if asWireError(err, &we) && we.Error == "no such element" {
			return "", LookupNotFound, nil
		}
		return "", LookupNotFound, err
	}

	id := element[w3cElementKey]
	if id == "" {
		return "", LookupNotFound, fmt.Errorf("WebDriver element response missing id")
	}
	return id, LookupFound, nil
}

func (s *WebDriverSession) sessionPath(suffix string) string {
	return "/session/" + s.sessionID + suffix
}

func (s *WebDriverSession) elementPath(id, suffix string) string {
	return s.sessionPath("/element/" + id + suffix)
}

// wireErrorValue carries a decoded WebDriver error payload through the
// error chain.
type wireErrorValue struct {
	Error   string
	Message string
}

type webDriverError struct {
	value *wireErrorValue
}

func (e *webDriverError) Error() string {
	return fmt.Sprintf("webdriver: %s: %s", e.value.Error, e.value.Message)
}

func asWireError(err error, out **wireErrorValue) bool {
	if wde, ok := err.(*webDriverError); ok {
		*out = wde.value
		return true
	}
	return false
}

// do performs one wire command. out, when non-nil, receives the decoded
// "value" field of the response.
func (s *WebDriverSession) do(method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webdriver request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read webdriver response: %w", err)
	}

	var wrapper wireResponse
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return fmt.Errorf("malformed webdriver response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var we wireError
		if err := json.Unmarshal(wrapper.Value, &we); err == nil && we.Error != "" {
			return &webDriverError{value: &wireErrorValue{Error: we.Error, Message: we.Message}}
		}
		return fmt.Errorf("webdriver status %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(wrapper.Value, out); err != nil {
		return fmt.Errorf("decode webdriver value: %w", err)
	}
	return nil
}
