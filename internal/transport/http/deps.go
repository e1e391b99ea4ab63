// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"context"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/relay"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/reports"
)

// EventPublisher fans a workflow event out to stream subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event any) (relay.Report, error)
}

type ReportsService interface {
	UploadPDF(ctx context.Context, fileName, fileData string) (reports.UploadResult, error)
	SaveContactInfo(ctx context.Context, params domain.SaveContactParams) (reports.ContactResult, error)
}

type MessageStore interface {
	CreateUserMessage(ctx context.Context, params domain.CreateMessageParams) (domain.MessageRecord, error)
	ListMessages(ctx context.Context, projectID string) ([]domain.MessageRecord, error)
}

type HealthChecker interface {
	Check(ctx context.Context) error
}
