// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"time"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
	"github.com/google/uuid"
)

// Responder produces the assistant reply for a user prompt.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// MessageQueue is the storage side of the chat worker.
// ClaimPending returns pgx.ErrNoRows when nothing is waiting.
type MessageQueue interface {
	ClaimPending(ctx context.Context, reclaimBefore time.Time) (domain.PendingMessage, error)
	Complete(ctx context.Context, msg domain.PendingMessage, reply string, replyType domain.MessageType, status domain.MessageStatus) error
	Release(ctx context.Context, id uuid.UUID) error
}
