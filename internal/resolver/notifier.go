// Package resolver is the outbound hook toward the name-resolution layer.
// Notifications are best-effort: a failure is logged by the caller and never
// fails the ledger write that triggered it.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"metaregistry/internal/domain"
)

// Notifier tells an external resolver that a record changed.
type Notifier interface {
	Notify(ctx context.Context, hash domain.Hash, domainID uint64) error
}

// Noop is the default when no resolver is configured.
type Noop struct{}

func (Noop) Notify(context.Context, domain.Hash, uint64) error { return nil }

// HTTPNotifier POSTs refresh notifications to a resolver endpoint.
type HTTPNotifier struct {
	endpoint string
	client   *http.Client
}

func NewHTTPNotifier(endpoint string) *HTTPNotifier {
	return &HTTPNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, hash domain.Hash, domainID uint64) error {
	body, err := json.Marshal(map[string]any{
		"contentHash": hash.String(),
		"domainId":    domainID,
	})
	if err != nil {
		return fmt.Errorf("marshal notify payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify resolver: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify resolver: unexpected status %d", resp.StatusCode)
	}
	return nil
}
