// Package sensors is the outbound valve-actuation adapter (spec.md
// section 6): HTTP calls to a valve controller, with the same
// pluggable HTTPClient-interface shape the teacher's crawler package
// uses for testability. Unlike the crawler, activation calls are not
// retried here — spec.md section 6 places actuation failure handling
// entirely on the state machine, which logs and proceeds.
package sensors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPClient is the interface sensors.Adapter depends on, narrow
// enough to substitute a fake in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Adapter drives sector valves over HTTP, matching the
// activate_sector(id) / deactivate_sector(id) boundary from spec.md
// section 6.
type Adapter struct {
	client  HTTPClient
	baseURL string
	logger  *zap.Logger
}

// New builds an Adapter against a real HTTP client with a 5 second
// timeout, short because actuation calls are fire-and-forget and must
// not stall the dispatcher's 1 Hz tick.
func New(baseURL string, logger *zap.Logger) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
		logger:  logger,
	}
}

// NewWithClient builds an Adapter against a caller-supplied client,
// used by tests to substitute a fake valve controller.
func NewWithClient(client HTTPClient, baseURL string, logger *zap.Logger) *Adapter {
	return &Adapter{client: client, baseURL: baseURL, logger: logger}
}

// Activate energizes the sector's valve.
func (a *Adapter) Activate(ctx context.Context, sectorID int) error {
	return a.call(ctx, "activate", sectorID)
}

// Deactivate de-energizes the sector's valve.
func (a *Adapter) Deactivate(ctx context.Context, sectorID int) error {
	return a.call(ctx, "deactivate", sectorID)
}

func (a *Adapter) call(ctx context.Context, action string, sectorID int) error {
	endpoint := fmt.Sprintf("%s/sectors/%d/%s", a.baseURL, sectorID, action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request for sector %d: %w", action, sectorID, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s sector %d: %w", action, sectorID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%s sector %d: unexpected status %d", action, sectorID, resp.StatusCode)
	}

	a.logger.Debug("valve actuation succeeded", zap.String("action", action), zap.Int("sector_id", sectorID))
	return nil
}
