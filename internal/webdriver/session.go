// Package webdriver is a thin client for the remote-browser wire protocol:
// just enough of the session endpoints for the test suite to drive a grid
// node. A Session is a scoped resource with an explicit lifecycle — one
// live instance per suite run, released on every exit path via Close.
package webdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qaops/gridctl/internal/testconf"
)

// elementKey is the W3C WebDriver element identifier key.
const elementKey = "element-6066-11e4-a52e-4f735466cecf"

// Session is one live remote browser session.
type Session struct {
	id         string
	remoteURL  string
	httpClient *http.Client
	closed     bool
}

// Element references an element located within a session.
type Element struct {
	session *Session
	id      string
}

type errorValue struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Open creates a remote session against remoteURL (the /wd/hub base) for
// the given browser. The returned Session must be released with Close.
func Open(ctx context.Context, remoteURL string, browser testconf.Browser) (*Session, error) {
	caps := map[string]any{
		"capabilities": map[string]any{
			"alwaysMatch": map[string]any{
				"browserName": string(browser),
				"goog:chromeOptions": map[string]any{
					"args": []string{"--headless", "--no-sandbox", "--disable-dev-shm-usage", "--disable-gpu"},
				},
			},
		},
	}

	s := &Session{
		remoteURL:  remoteURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}

	var resp struct {
		Value struct {
			SessionID string `json:"sessionId"`
			Error     string `json:"error"`
			Message   string `json:"message"`
		} `json:"value"`
	}
	if err := s.do(ctx, http.MethodPost, "/session", caps, &resp); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	if resp.Value.SessionID == "" {
		return nil, fmt.Errorf("creating session: %s: %s", resp.Value.Error, resp.Value.Message)
	}

	s.id = resp.Value.SessionID
	return s, nil
}

// Navigate loads a URL in the session's browser.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.command(ctx, http.MethodPost, "/url", map[string]string{"url": url})
}

// FindElement locates one element by XPath.
func (s *Session) FindElement(ctx context.Context, xpath string) (*Element, error) {
	var resp struct {
		Value map[string]string `json:"value"`
	}
	body := map[string]string{"using": "xpath", "value": xpath}
	if err := s.do(ctx, http.MethodPost, "/session/"+s.id+"/element", body, &resp); err != nil {
		return nil, fmt.Errorf("finding element %q: %w", xpath, err)
	}

	id, ok := resp.Value[elementKey]
	if !ok {
		return nil, fmt.Errorf("element %q not found", xpath)
	}
	return &Element{session: s, id: id}, nil
}

// Click clicks the element.
func (e *Element) Click(ctx context.Context) error {
	return e.session.command(ctx, http.MethodPost, "/element/"+e.id+"/click", struct{}{})
}

// Close releases the remote session. It is idempotent: closing an already
// closed session is a no-op.
func (s *Session) Close(ctx context.Context) error {
	if s.closed || s.id == "" {
		return nil
	}
	s.closed = true
	return s.do(ctx, http.MethodDelete, "/session/"+s.id, nil, nil)
}

// command issues a session-scoped request with no interesting response.
func (s *Session) command(ctx context.Context, method, path string, body any) error {
	return s.do(ctx, method, "/session/"+s.id+path, body, nil)
}

func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.remoteURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var failure struct {
			Value errorValue `json:"value"`
		}
		if json.Unmarshal(raw, &failure) == nil && failure.Value.Error != "" {
			return fmt.Errorf("%s: %s", failure.Value.Error, failure.Value.Message)
		}
		return fmt.Errorf("webdriver returned %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parsing webdriver response: %w", err)
		}
	}
	return nil
}
