// Package notify provides the concrete alert transports: an HTTP SMS gateway
// for emergency contacts and an MQTT order channel for vehicle operators.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/medisetu/dispatch/core/logger"
)

// SMSConfig defines the SMS gateway settings.
type SMSConfig struct {
	GatewayURL     string `json:"gateway_url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults fills unset fields with the documented defaults.
func (c *SMSConfig) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

// SMSNotifier delivers alerts by POSTing them to a hosted SMS gateway.
// Delivery is best effort; the gateway owns retries on its side.
type SMSNotifier struct {
	cfg    SMSConfig
	client *http.Client
	log    logger.Logger
}

// NewSMSNotifier creates an SMSNotifier.
func NewSMSNotifier(cfg SMSConfig, log logger.Logger) *SMSNotifier {
	cfg.SetDefaults()
	return &SMSNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:    log,
	}
}

type smsPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// SendAlert posts one message to the gateway. Any non-2xx response is an
// error for the caller to isolate.
func (n *SMSNotifier) SendAlert(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(smsPayload{To: phone, Message: message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %s for %s", resp.Status, phone)
	}
	n.log.Debugf("sms accepted for %s", phone)
	return nil
}
