// SPDX-License-Identifier: Apache-2.0

package executors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func stubClient(status int, body string, inspect func(*http.Request)) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if inspect != nil {
			inspect(r)
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}, nil
	})}
}

func TestGeminiExecutorRespondJoinsParts(t *testing.T) {
	t.Parallel()

	var gotKey string
	var gotPrompt string
	client := stubClient(http.StatusOK, `{
		"candidates":[{"content":{"parts":[{"text":"Hello"},{"text":""},{"text":"there"}]}}]
	}`, func(r *http.Request) {
		gotKey = r.Header.Get("X-goog-api-key")
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if len(req.Contents) == 1 && len(req.Contents[0].Parts) == 1 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
	})

	exec := NewGeminiExecutor("http://gemini.local/generate", "key-1", client)
	reply, err := exec.Respond(context.Background(), "what now?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "key-1" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotPrompt != "what now?" {
		t.Fatalf("expected prompt to be forwarded, got %q", gotPrompt)
	}
	// Newline separators are control characters and are stripped.
	if reply != "Hellothere" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestGeminiExecutorRespondFallbackFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "output_text", body: `{"output_text":"from output"}`, want: "from output"},
		{name: "text", body: `{"text":"  plain  "}`, want: "plain"},
		{name: "empty object", body: `{}`, want: domain.FallbackAssistantReply},
		{name: "non-object", body: `[1,2,3]`, want: domain.FallbackAssistantReply},
		{name: "malformed candidates", body: `{"candidates":"nope","text":"kept"}`, want: "kept"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := NewGeminiExecutor("http://gemini.local", "k", stubClient(http.StatusOK, tc.body, nil))
			got, err := exec.Respond(context.Background(), "p")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestGeminiExecutorRespondErrors(t *testing.T) {
	t.Parallel()

	exec := NewGeminiExecutor("http://gemini.local", "", nil)
	if _, err := exec.Respond(context.Background(), "p"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey got %v", err)
	}

	exec = NewGeminiExecutor("http://gemini.local", "k", stubClient(http.StatusBadGateway, "<html>down</html>", nil))
	_, err := exec.Respond(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "not JSON (502)") {
		t.Fatalf("expected non-JSON error, got %v", err)
	}

	exec = NewGeminiExecutor("http://gemini.local", "k", stubClient(http.StatusTooManyRequests, `{"error":"quota"}`, nil))
	_, err = exec.Respond(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "gemini API error 429") {
		t.Fatalf("expected API status error, got %v", err)
	}
}

func TestSanitizeReply(t *testing.T) {
	t.Parallel()

	if got := SanitizeReply("a\x00b\tc\x7fd\n"); got != "abcd" {
		t.Fatalf("expected control characters stripped, got %q", got)
	}
	if got := SanitizeReply(" \n\t "); got != domain.FallbackAssistantReply {
		t.Fatalf("expected fallback reply, got %q", got)
	}

	long := strings.Repeat("é", domain.MaxAssistantReplyRunes+50)
	got := SanitizeReply(long)
	if n := utf8.RuneCountInString(got); n != domain.MaxAssistantReplyRunes {
		t.Fatalf("expected reply capped at %d runes, got %d", domain.MaxAssistantReplyRunes, n)
	}
}
