package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Gateway delivers a text message outside the app.
type Gateway interface {
	Send(ctx context.Context, phone, message string) error
}

type GatewayConfig struct {
	URL     string
	APIKey  string
	Sender  string
	Timeout time.Duration
}

// HTTPGateway posts messages to an SMS provider's JSON endpoint.
type HTTPGateway struct {
	cfg    GatewayConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPGateway returns nil when no URL is configured.
func NewHTTPGateway(cfg GatewayConfig, logger *slog.Logger) *HTTPGateway {
	if cfg.URL == "" {
		return nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (g *HTTPGateway) Send(ctx context.Context, phone, message string) error {
	payload := map[string]string{
		"to":      phone,
		"message": message,
	}
	if g.cfg.Sender != "" {
		payload["from"] = g.cfg.Sender
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	g.logger.Debug("message delivered through gateway", "status_code", resp.StatusCode)
	return nil
}
