package executors

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
	"github.com/itchyny/gojq"
)

// Joined candidate parts first, then the flat output_text and text fields.
const replyTextQuery = `
def joined:
  [.candidates[0].content.parts[] | .text? | strings | select(. != "")] | join("\n");
first(
  ((try joined catch "") | select(. != "")),
  ((try .output_text catch null) | strings | select(. != "")),
  ((try .text catch null) | strings | select(. != "")),
  ""
)`

var (
	replyQueryOnce sync.Once
	replyQuery     *gojq.Code
	replyQueryErr  error
)

func compiledReplyQuery() (*gojq.Code, error) {
	replyQueryOnce.Do(func() {
		q, err := gojq.Parse(replyTextQuery)
		if err != nil {
			replyQueryErr = err
			return
		}
		replyQuery, replyQueryErr = gojq.Compile(q)
	})
	return replyQuery, replyQueryErr
}

// extractReplyText pulls the reply text out of a decoded generateContent
// response. Missing text yields "" without error.
func extractReplyText(data any) (string, error) {
	code, err := compiledReplyQuery()
	if err != nil {
		return "", err
	}

	iter := code.Run(data)
	v, ok := iter.Next()
	if !ok {
		return "", nil
	}
	if err, isErr := v.(error); isErr {
		return "", fmt.Errorf("extract reply text: %w", err)
	}
	s, _ := v.(string)
	return s, nil
}

// SanitizeReply drops ASCII control characters, trims, and caps the reply at
// domain.MaxAssistantReplyRunes. Empty results become the fallback reply.
func SanitizeReply(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	cleaned := strings.Map(func(r rune) rune {
		if r <= 0x1F || r == 0x7F {
			return -1
		}
		return r
	}, s)
	cleaned = strings.TrimSpace(cleaned)

	if utf8.RuneCountInString(cleaned) > domain.MaxAssistantReplyRunes {
		cleaned = string([]rune(cleaned)[:domain.MaxAssistantReplyRunes])
	}
	if cleaned == "" {
		return domain.FallbackAssistantReply
	}
	return cleaned
}
