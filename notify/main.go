package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"

	"github.com/moyoez/fbxcast/tool"
	"github.com/moyoez/fbxcast/types"
)

// Notification represents a notification message structure
type Notification struct {
	Type    string         `json:"type,omitempty"`    // e.g. "phase_change", "cast", "error"
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}

// Options contains options for sending notifications
type Options struct {
	URL     string            // Target URL
	Method  string            // HTTP method, defaults to POST
	Headers map[string]string // Custom HTTP headers
	Timeout time.Duration     // Whole request timeout, 0 means tool defaults
}

// SendNotification sends a notification to the specified HTTP URL
// If notification is nil, an empty JSON object will be sent
func SendNotification(ctx context.Context, notification *Notification, options Options) error {
	if options.URL == "" {
		return fmt.Errorf("notification URL cannot be empty")
	}
	parsedURL, err := url.Parse(options.URL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported notification scheme %q", parsedURL.Scheme)
	}

	method := options.Method
	if method == "" {
		method = http.MethodPost
	}

	payload := []byte("{}")
	if notification != nil {
		payload, err = sonic.Marshal(notification)
		if err != nil {
			return fmt.Errorf("failed to serialize notification data: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, options.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range options.Headers {
		req.Header.Set(key, value)
	}

	client := tool.NewHTTPClient(tool.DefaultTimeouts())
	if options.Timeout > 0 {
		client.Timeout = options.Timeout
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if readErr != nil {
		tool.DefaultLogger.Debugf("failed to read response body: %v", readErr)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification send failed, HTTP status code: %d, response: %s", resp.StatusCode, string(body))
	}

	if notification != nil {
		tool.DefaultLogger.Debugf("notification sent to %s: %s - %s", options.URL, notification.Type, notification.Title)
	}
	return nil
}

// PhaseNotification builds the payload announcing a connection phase change.
func PhaseNotification(host string, from, to types.ConnectionPhase) *Notification {
	return &Notification{
		Type:    "phase_change",
		Title:   "Connection " + to.String(),
		Message: fmt.Sprintf("Box %s: %s -> %s", host, from, to),
		Data: map[string]any{
			"host": host,
			"from": from.String(),
			"to":   to.String(),
		},
	}
}

// SendPhaseNotification posts a phase change to webhookURL.
func SendPhaseNotification(ctx context.Context, webhookURL, host string, from, to types.ConnectionPhase) error {
	return SendNotification(ctx, PhaseNotification(host, from, to), Options{URL: webhookURL})
}

// PhaseListener returns a listener that posts every phase change to webhookURL in the
// background. Delivery failures are logged and dropped.
func PhaseListener(webhookURL, host string) func(from, to types.ConnectionPhase) {
	return func(from, to types.ConnectionPhase) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), tool.DefaultTimeouts().Total())
			defer cancel()
			if err := SendPhaseNotification(ctx, webhookURL, host, from, to); err != nil {
				tool.DefaultLogger.Warnf("Phase notification to %s failed: %v", webhookURL, err)
			}
		}()
	}
}

// SendCastNotification reports a playback command result.
func SendCastNotification(ctx context.Context, webhookURL, action, receiver, media string, ok bool) error {
	return SendNotification(ctx, &Notification{
		Type:    "cast",
		Title:   "Cast " + action,
		Message: fmt.Sprintf("%s on %s: acknowledged=%t", action, receiver, ok),
		Data: map[string]any{
			"action":       action,
			"receiver":     receiver,
			"media":        media,
			"acknowledged": ok,
		},
	}, Options{URL: webhookURL})
}
