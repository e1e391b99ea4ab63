// SPDX-License-Identifier: Apache-2.0

package executors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	geminiAPIKeyHeader = "X-goog-api-key"
	errorPreviewLimit  = 300
	defaultTimeout     = 60 * time.Second
)

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// GeminiExecutor answers chat prompts with a single generateContent call.
type GeminiExecutor struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewGeminiExecutor(endpoint, apiKey string, client *http.Client) *GeminiExecutor {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &GeminiExecutor{
		endpoint: strings.TrimSpace(endpoint),
		apiKey:   strings.TrimSpace(apiKey),
		client:   client,
	}
}

// Respond returns the sanitized reply text. Transport failures, non-JSON
// bodies and non-2xx statuses are errors; an unusable but valid response
// yields the fallback reply.
func (e *GeminiExecutor) Respond(ctx context.Context, prompt string) (string, error) {
	if e.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(geminiAPIKeyHeader, e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	var data any
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return "", fmt.Errorf("gemini response not JSON (%d): %s", resp.StatusCode, preview(string(raw)))
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("gemini API error %d: %s", resp.StatusCode, preview(string(bytes.TrimSpace(raw))))
	}

	text, err := extractReplyText(data)
	if err != nil {
		return SanitizeReply(""), nil
	}
	return SanitizeReply(text), nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > errorPreviewLimit {
		r = r[:errorPreviewLimit]
	}
	return string(r)
}
