// Package whatsapp sends replies through the WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
)

// Ensure Messenger implements the interface.
var _ driven.Messenger = (*Messenger)(nil)

// Default configuration values.
const (
	DefaultAPIBaseURL = "https://graph.facebook.com/v19.0"
	DefaultTimeout    = 10 * time.Second

	// DefaultRequestsPerSecond stays well under the Cloud API's per-number throughput.
	DefaultRequestsPerSecond = 20
	DefaultBurst             = 5

	// MaxBodyRunes is the longest text body the send API accepts.
	MaxBodyRunes = 4000
)

// Config holds configuration for the WhatsApp messenger.
type Config struct {
	// Token is the Bearer token (required).
	Token string

	// APIBaseURL is the Graph API base including the version.
	APIBaseURL string

	// Timeout is the request timeout (default: 10s).
	Timeout time.Duration

	// RequestsPerSecond paces sends (default: 20).
	RequestsPerSecond float64

	// Burst is the limiter burst size (default: 5).
	Burst int
}

// Messenger posts text messages to the Cloud API.
type Messenger struct {
	client  *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// NewMessenger creates a messenger. A missing token is a configuration error.
func NewMessenger(cfg Config) (*Messenger, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("whatsapp: %w: token is required", domain.ErrConfiguration)
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}

	return &Messenger{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		token:   cfg.Token,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}, nil
}

// SendText delivers body to recipient from the phone number senderID.
// Bodies longer than MaxBodyRunes are truncated.
func (m *Messenger) SendText(ctx context.Context, senderID, recipient, body string) error {
	if senderID == "" || recipient == "" {
		return fmt.Errorf("whatsapp: %w: sender and recipient are required", domain.ErrInvalidInput)
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("whatsapp: rate limit wait: %w", err)
	}

	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               recipient,
		Type:             "text",
		Text:             textBody{PreviewURL: false, Body: Truncate(body, MaxBodyRunes)},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: marshal request: %w", err)
	}

	endpoint := m.baseURL + "/" + url.PathEscape(senderID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp: API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
