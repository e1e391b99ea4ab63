// SPDX-License-Identifier: Apache-2.0

// Package automation calls the n8n workflows that analyse uploaded reports
// and register contact addresses.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/metrics"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultRetryBase     = 300 * time.Millisecond
	maxResponseBodyBytes = 4 << 20
)

var ErrInvalidResponse = errors.New("n8n webhook returned invalid JSON")

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("n8n webhook error: %d - %s", e.StatusCode, e.Body)
}

type DocumentUpload struct {
	FileName    string `json:"fileName"`
	FileData    string `json:"fileData"`
	FileDataURL string `json:"fileDataUrl"`
}

type ContactNotification struct {
	ProjectID    string `json:"projectId"`
	GmailAddress string `json:"gmailAddress"`
	Timestamp    string `json:"timestamp"`
}

type Options struct {
	UploadURL  string
	ContactURL string
	HTTPClient *http.Client
	Timeout    time.Duration
	// RetryAttempts is the total number of tries per call. Values below 1
	// mean a single try.
	RetryAttempts int
	RetryBase     time.Duration
	Logger        *slog.Logger
}

type Client struct {
	uploadURL     string
	contactURL    string
	httpClient    *http.Client
	retryAttempts int
	retryBase     time.Duration
	logger        *slog.Logger
}

func New(opts Options) *Client {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	attempts := opts.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	base := opts.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}

	return &Client{
		uploadURL:     strings.TrimSpace(opts.UploadURL),
		contactURL:    strings.TrimSpace(opts.ContactURL),
		httpClient:    client,
		retryAttempts: attempts,
		retryBase:     base,
		logger:        l,
	}
}

// UploadDocument hands a PDF to the analysis workflow and returns its JSON reply.
func (c *Client) UploadDocument(ctx context.Context, doc DocumentUpload) (json.RawMessage, error) {
	return c.post(ctx, metrics.WebhookTargetPDF, c.uploadURL, doc)
}

// NotifyContact tells the email workflow about a registered address.
func (c *Client) NotifyContact(ctx context.Context, n ContactNotification) (json.RawMessage, error) {
	return c.post(ctx, metrics.WebhookTargetEmail, c.contactURL, n)
}

func (c *Client) post(ctx context.Context, target, url string, payload any) (json.RawMessage, error) {
	if url == "" {
		return nil, domain.ErrWebhookNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := c.postWithRetry(ctx, target, url, body)

	outcome := metrics.WebhookOK
	if err != nil {
		outcome = metrics.WebhookFailed
	}
	metrics.ObserveWebhookCall(target, outcome, time.Since(started))

	return result, err
}

func (c *Client) postWithRetry(ctx context.Context, target, url string, body []byte) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		result, retryable, err := c.postOnce(ctx, url, body)
		if err == nil {
			c.logger.Info("webhook success",
				"target", target,
				"attempt", attempt,
			)
			return result, nil
		}

		lastErr = err
		c.logger.Warn("webhook failure",
			"target", target,
			"attempt", attempt,
			"error", err,
		)
		if !retryable || attempt == c.retryAttempts {
			break
		}

		wait := c.retryBase * time.Duration(1<<(attempt-1))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}

// postOnce reports whether a failed call is worth retrying: transport errors
// and 5xx responses are, everything else is not.
func (c *Client) postOnce(ctx context.Context, url string, body []byte) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read webhook response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, resp.StatusCode >= http.StatusInternalServerError, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return nil, false, ErrInvalidResponse
	}
	return json.RawMessage(raw), false, nil
}
