package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/novacademy/marketing-api/internal/models"
	"github.com/novacademy/marketing-api/pkg/config"
)

// Client talks to the WhatsApp gateway over its REST API. It is injected
// into the automation services as their MessageSender collaborator so tests
// can substitute a fake without process-wide state.
type Client struct {
	baseURL string
	token   string
	enabled bool
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.WhatsAppConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		enabled: cfg.Enabled,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type sendRequest struct {
	To       string            `json:"to"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type sendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Error     string `json:"error,omitempty"`
}

// Send delivers one message to the gateway. Errors are recoverable for the
// caller; a failed send never blocks action creation.
func (c *Client) Send(ctx context.Context, to, body string, metadata map[string]string) (*models.MessageSendResult, error) {
	if !c.enabled {
		c.logger.Debug("whatsapp disabled, dropping message", zap.String("to", to))
		return &models.MessageSendResult{Success: false}, nil
	}
	if to == "" {
		return nil, fmt.Errorf("whatsapp send: empty destination")
	}

	payload, err := json.Marshal(sendRequest{To: to, Body: body, Metadata: metadata})
	if err != nil {
		return nil, fmt.Errorf("whatsapp send: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("whatsapp send: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var decoded sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("whatsapp send: decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("whatsapp send: gateway status %d: %s", resp.StatusCode, decoded.Error)
	}

	return &models.MessageSendResult{Success: decoded.Success, MessageID: decoded.MessageID}, nil
}
