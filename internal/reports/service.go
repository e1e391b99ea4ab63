// SPDX-License-Identifier: Apache-2.0

package reports

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/automation"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
)

const pdfDataURLPrefix = "data:application/pdf;base64,"

var ErrContactsUnavailable = errors.New("contact storage is not configured")

type DocumentAnalyzer interface {
	UploadDocument(ctx context.Context, doc automation.DocumentUpload) (json.RawMessage, error)
}

type ContactNotifier interface {
	NotifyContact(ctx context.Context, n automation.ContactNotification) (json.RawMessage, error)
}

type ContactStore interface {
	UpsertContact(ctx context.Context, params domain.SaveContactParams) (domain.ContactInfo, error)
}

type Deps struct {
	Analyzer DocumentAnalyzer
	Notifier ContactNotifier
	// Contacts may be nil when no database is configured.
	Contacts ContactStore
	Logger   *slog.Logger
	Now      func() time.Time
}

type Service struct {
	analyzer DocumentAnalyzer
	notifier ContactNotifier
	contacts ContactStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(deps Deps) *Service {
	l := deps.Logger
	if l == nil {
		l = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		analyzer: deps.Analyzer,
		notifier: deps.Notifier,
		contacts: deps.Contacts,
		logger:   l,
		now:      now,
	}
}

type UploadResult struct {
	Success  bool            `json:"success"`
	Result   json.RawMessage `json:"result"`
	FileName string          `json:"fileName"`
}

type ContactResult struct {
	Success      bool               `json:"success"`
	Result       json.RawMessage    `json:"result,omitempty"`
	ContactInfo  domain.ContactInfo `json:"contactInfo"`
	GmailAddress string             `json:"gmailAddress"`
	ProjectID    string             `json:"projectId"`
	WebhookError string             `json:"webhookError,omitempty"`
}

// UploadPDF forwards a base64 data URL of a PDF to the analysis workflow.
func (s *Service) UploadPDF(ctx context.Context, fileName, fileData string) (UploadResult, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return UploadResult{}, domain.ErrMissingFileName
	}
	if fileData == "" {
		return UploadResult{}, domain.ErrMissingFileData
	}
	if !strings.HasPrefix(fileData, pdfDataURLPrefix) {
		return UploadResult{}, domain.ErrInvalidPDF
	}
	if s.analyzer == nil {
		return UploadResult{}, domain.ErrWebhookNotConfigured
	}

	result, err := s.analyzer.UploadDocument(ctx, automation.DocumentUpload{
		FileName:    fileName,
		FileData:    strings.TrimPrefix(fileData, pdfDataURLPrefix),
		FileDataURL: fileData,
	})
	if err != nil {
		s.logger.Error("pdf analysis webhook failed",
			"file_name", fileName,
			"error", err,
		)
		return UploadResult{}, err
	}

	return UploadResult{
		Success:  true,
		Result:   result,
		FileName: fileName,
	}, nil
}

// SaveContactInfo stores the address and notifies the email workflow. A
// failed notification is reported in WebhookError, not as an error.
func (s *Service) SaveContactInfo(ctx context.Context, params domain.SaveContactParams) (ContactResult, error) {
	if err := params.Validate(); err != nil {
		return ContactResult{}, err
	}
	if s.contacts == nil {
		return ContactResult{}, ErrContactsUnavailable
	}

	info, err := s.contacts.UpsertContact(ctx, params)
	if err != nil {
		return ContactResult{}, err
	}

	out := ContactResult{
		Success:      true,
		ContactInfo:  info,
		GmailAddress: params.GmailAddress,
		ProjectID:    params.ProjectID,
	}

	if s.notifier == nil {
		out.WebhookError = domain.ErrWebhookNotConfigured.Error()
		return out, nil
	}

	result, err := s.notifier.NotifyContact(ctx, automation.ContactNotification{
		ProjectID:    params.ProjectID,
		GmailAddress: params.GmailAddress,
		Timestamp:    domain.FormatTimestamp(s.now()),
	})
	if err != nil {
		s.logger.Warn("contact webhook failed",
			"project_id", params.ProjectID,
			"error", err,
		)
		out.WebhookError = err.Error()
		return out, nil
	}

	out.Result = result
	return out, nil
}
