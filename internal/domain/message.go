package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string
type MessageType string
type MessageStatus string

const (
	RoleUser      MessageRole = "USER"
	RoleAssistant MessageRole = "ASSISTANT"
)

const (
	MessageResult MessageType = "RESULT"
	MessageError  MessageType = "ERROR"
)

// Only user messages move through these states; assistant replies are
// stored as DONE.
const (
	MessagePending MessageStatus = "PENDING"
	MessageRunning MessageStatus = "RUNNING"
	MessageDone    MessageStatus = "DONE"
	MessageFailed  MessageStatus = "FAILED"
)

const (
	MaxAssistantReplyRunes = 20000
	FallbackAssistantReply = "Sorry, I couldn't generate a response."
	FailedAssistantReply   = "Something went wrong while generating a response. Please try again."
)

type MessageRecord struct {
	ID        uuid.UUID     `json:"id"`
	ProjectID string        `json:"projectId"`
	Role      MessageRole   `json:"role"`
	Type      MessageType   `json:"type"`
	Status    MessageStatus `json:"status"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
}

type CreateMessageParams struct {
	ProjectID string
	Content   string
}

// PendingMessage is a user message claimed by the worker for a reply.
type PendingMessage struct {
	ID        uuid.UUID
	ProjectID string
	Content   string
	Attempts  int
}
