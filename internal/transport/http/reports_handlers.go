// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/automation"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/reports"
	"github.com/go-chi/chi/v5"
)

const (
	maxUploadBodyBytes  = 32 << 20
	maxSmallBodyBytes   = 64 << 10
	maxMessageListItems = 500
)

type uploadPDFRequest struct {
	FileName string `json:"fileName"`
	FileData string `json:"fileData"`
}

type saveContactRequest struct {
	ProjectID    string `json:"projectId"`
	GmailAddress string `json:"gmailAddress"`
}

type createMessageRequest struct {
	Content string `json:"content"`
}

func uploadPDFHandler(svc ReportsService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uploadPDFRequest
		if err := decodeJSONBody(w, r, maxUploadBodyBytes, &req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		res, err := svc.UploadPDF(r.Context(), req.FileName, req.FileData)
		if err != nil {
			var statusErr *automation.StatusError
			switch {
			case errors.Is(err, domain.ErrMissingFileName):
				http.Error(w, "File name is required", http.StatusBadRequest)
			case errors.Is(err, domain.ErrMissingFileData):
				http.Error(w, "File data is required", http.StatusBadRequest)
			case errors.Is(err, domain.ErrInvalidPDF):
				http.Error(w, "Invalid PDF file format", http.StatusBadRequest)
			case errors.Is(err, domain.ErrWebhookNotConfigured):
				http.Error(w, "pdf analysis webhook not configured", http.StatusServiceUnavailable)
			case errors.As(err, &statusErr), errors.Is(err, automation.ErrInvalidResponse):
				http.Error(w, err.Error(), http.StatusBadGateway)
			default:
				logger.Error("upload pdf failed", "file_name", req.FileName, "error", err)
				http.Error(w, "Failed to process PDF with n8n workflow", http.StatusBadGateway)
			}
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func saveContactHandler(svc ReportsService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveContactRequest
		if err := decodeJSONBody(w, r, maxSmallBodyBytes, &req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		res, err := svc.SaveContactInfo(r.Context(), domain.SaveContactParams{
			ProjectID:    req.ProjectID,
			GmailAddress: req.GmailAddress,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrMissingProjectID):
				http.Error(w, "Project ID is required", http.StatusBadRequest)
			case errors.Is(err, domain.ErrInvalidGmailAddress):
				http.Error(w, "Please enter a Gmail address (@gmail.com)", http.StatusBadRequest)
			case errors.Is(err, reports.ErrContactsUnavailable):
				http.Error(w, "contact storage not configured", http.StatusServiceUnavailable)
			default:
				logger.Error("save contact info failed", "project_id", req.ProjectID, "error", err)
				http.Error(w, "failed to save contact info", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func createMessageHandler(store MessageStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := strings.TrimSpace(chi.URLParam(r, "projectId"))

		var req createMessageRequest
		if err := decodeJSONBody(w, r, maxSmallBodyBytes, &req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		rec, err := store.CreateUserMessage(r.Context(), domain.CreateMessageParams{
			ProjectID: projectID,
			Content:   req.Content,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrMissingProjectID):
				http.Error(w, "Project ID is required", http.StatusBadRequest)
			case errors.Is(err, domain.ErrEmptyMessage):
				http.Error(w, "Message content is required", http.StatusBadRequest)
			default:
				logger.Error("create message failed", "project_id", projectID, "error", err)
				http.Error(w, "failed to create message", http.StatusInternalServerError)
			}
			return
		}

		logger.Info("chat message queued", "project_id", projectID, "message_id", rec.ID)
		writeJSON(w, http.StatusCreated, rec)
	}
}

func listMessagesHandler(store MessageStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := strings.TrimSpace(chi.URLParam(r, "projectId"))
		if projectID == "" {
			http.Error(w, "Project ID is required", http.StatusBadRequest)
			return
		}

		msgs, err := store.ListMessages(r.Context(), projectID)
		if err != nil {
			logger.Error("list messages failed", "project_id", projectID, "error", err)
			http.Error(w, "failed to list messages", http.StatusInternalServerError)
			return
		}
		if len(msgs) > maxMessageListItems {
			msgs = msgs[len(msgs)-maxMessageListItems:]
		}

		writeJSON(w, http.StatusOK, struct {
			ProjectID string                 `json:"projectId"`
			Messages  []domain.MessageRecord `json:"messages"`
		}{
			ProjectID: projectID,
			Messages:  msgs,
		})
	}
}

// decodeJSONBody decodes exactly one JSON object into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New("empty request body")
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("request body must contain exactly one JSON object")
	}
	return nil
}
