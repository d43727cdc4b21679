package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/pitchcast/internal/adapters/http/api"
)

// outcome classifies one response.
type outcome int

const (
	outcomeFailed outcome = iota
	outcomeFresh
	outcomeCached
	outcomeDenied
	outcomeInvalid
)

// client posts prediction requests with a fixed caller identity.
type client struct {
	http    *http.Client
	baseURL string
	headers http.Header
}

func newClient(cfg *Config) *client {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-User-ID", cfg.UserID)
	h.Set("X-User-Roles", cfg.Roles)
	h.Set("X-Subscription-Tier", cfg.Tier)
	h.Set("X-Club-IDs", cfg.ClubID)
	return &client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		headers: h,
	}
}

// health checks /healthz answers 200.
func (c *client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// predict submits r and reports how it was answered and how long it took.
func (c *client) predict(ctx context.Context, r Request) (outcome, time.Duration) {
	body, err := json.Marshal(r.Body)
	if err != nil {
		return outcomeFailed, 0
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/predictions/"+string(r.Kind), bytes.NewReader(body))
	if err != nil {
		return outcomeFailed, 0
	}
	req.Header = c.headers.Clone()

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return outcomeFailed, elapsed
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var env struct {
			Meta *api.Meta `json:"meta"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Meta != nil && env.Meta.Cached {
			return outcomeCached, elapsed
		}
		return outcomeFresh, elapsed
	case http.StatusForbidden, http.StatusUnauthorized:
		return outcomeDenied, elapsed
	case http.StatusBadRequest:
		return outcomeInvalid, elapsed
	default:
		return outcomeFailed, elapsed
	}
}
