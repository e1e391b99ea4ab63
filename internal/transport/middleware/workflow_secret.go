// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/metrics"
)

const HeaderWorkflowSecret = "X-Workflow-Secret"

// WorkflowSecret rejects requests whose X-Workflow-Secret header does not
// match secret. An empty secret lets every request through.
func WorkflowSecret(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(HeaderWorkflowSecret)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				logger.Warn("workflow event rejected",
					"reason", "secret mismatch",
					"remote_addr", r.RemoteAddr,
				)
				metrics.IncIngest(metrics.IngestForbidden)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
