package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Config tunes the transactional-mail client. Endpoint and APIKey identify
// the provider account; Sender* name the storefront identity shown to
// recipients.
type Config struct {
	Endpoint    string
	APIKey      string
	SenderName  string
	SenderEmail string

	// HTTPClient overrides the transport, mainly for tests. Nil selects a
	// client with a 10s timeout.
	HTTPClient *http.Client
}

// Client sends transactional email through a Brevo-style HTTP API: a single
// JSON POST per message, authenticated by an account API key header.
type Client struct {
	config Config
	http   *http.Client
}

type recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendRequest struct {
	Sender      recipient   `json:"sender"`
	To          []recipient `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("mail endpoint required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("mail api key required")
	}
	if cfg.SenderEmail == "" {
		return nil, errors.New("mail sender email required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{config: cfg, http: httpClient}, nil
}

// Send posts one message to the provider. The caller decides whether a
// failure is fatal; the engine treats it as log-and-continue.
func (c *Client) Send(ctx context.Context, toAddress, subject, htmlBody string) error {
	payload, err := json.Marshal(sendRequest{
		Sender:      recipient{Email: c.config.SenderEmail, Name: c.config.SenderName},
		To:          []recipient{{Email: toAddress}},
		Subject:     subject,
		HTMLContent: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("api-key", c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	return nil
}
