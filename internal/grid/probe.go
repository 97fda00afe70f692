// Package grid probes the Selenium grid's own readiness signal, which is
// distinct from orchestrator-level pod readiness: a pod can be Ready while
// the grid behind it is still registering nodes.
package grid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/qaops/gridctl/internal/poller"
)

// statusResponse is the /wd/hub/status body. Only value.ready matters.
type statusResponse struct {
	Value struct {
		Ready   bool   `json:"ready"`
		Message string `json:"message"`
	} `json:"value"`
}

// Probe checks a grid's status endpoint.
type Probe struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewProbe returns a Probe with a bounded per-request timeout.
func NewProbe(baseURL string) *Probe {
	return &Probe{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Check performs a single status request. A connection error, a non-200
// response, an unparseable body and a not-ready grid are all the same
// failure for retry accounting.
func (p *Probe) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/wd/hub/status", nil)
	if err != nil {
		return err
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("grid unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("grid status returned %d", resp.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("parsing grid status: %w", err)
	}
	if !status.Value.Ready {
		return fmt.Errorf("grid not ready: %s", status.Value.Message)
	}
	return nil
}

// AwaitReady polls the status endpoint until the grid reports ready or the
// attempt budget is exhausted.
func (p *Probe) AwaitReady(ctx context.Context, maxAttempts int, interval time.Duration) poller.Outcome {
	return poller.Attempts(ctx, maxAttempts, interval, p.Check)
}
