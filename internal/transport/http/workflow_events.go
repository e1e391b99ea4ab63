// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/metrics"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/relay"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const defaultKeepAliveInterval = 15 * time.Second

type workflowEventRequest struct {
	ExecutionID *string         `json:"executionId"`
	Node        string          `json:"node"`
	Status      string          `json:"status"`
	Timestamp   *string         `json:"timestamp"`
	Data        json.RawMessage `json:"data"`
}

type ingestHandler struct {
	publisher    EventPublisher
	schema       *jsonschema.Schema
	maxBodyBytes int64
	logger       *slog.Logger
	now          func() time.Time
}

func (h *ingestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.logger.Error("workflow event ingest panicked", "panic", rec)
			metrics.IncIngest(metrics.IngestServerError)
			http.Error(w, "Server error", http.StatusInternalServerError)
		}
	}()

	body := io.Reader(r.Body)
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.IncIngest(metrics.IngestInvalid)
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		metrics.IncIngest(metrics.IngestInvalid)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	obj, isObject := doc.(map[string]any)
	if err != nil || !isObject {
		metrics.IncIngest(metrics.IngestInvalid)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if missingField(obj, "node") || missingField(obj, "status") {
		metrics.IncIngest(metrics.IngestInvalid)
		http.Error(w, "Missing required fields: node, status", http.StatusBadRequest)
		return
	}

	if err := h.schema.Validate(obj); err != nil {
		h.logger.Debug("workflow event rejected by schema", "error", err)
		metrics.IncIngest(metrics.IngestInvalid)
		http.Error(w, "Invalid event payload", http.StatusBadRequest)
		return
	}

	var req workflowEventRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		metrics.IncIngest(metrics.IngestInvalid)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	params := domain.WorkflowEventParams{
		ExecutionID: req.ExecutionID,
		Node:        req.Node,
		Status:      req.Status,
		Data:        req.Data,
	}
	if req.Timestamp != nil {
		params.Timestamp = *req.Timestamp
	}

	event, err := domain.NewWorkflowEvent(params, h.now())
	if err != nil {
		metrics.IncIngest(metrics.IngestInvalid)
		http.Error(w, "Missing required fields: node, status", http.StatusBadRequest)
		return
	}

	if !event.Status.Known() {
		h.logger.Debug("relaying workflow event with unknown status",
			"node", event.Node,
			"status", event.Status,
		)
	}
	if !domain.KnownNode(event.Node) {
		h.logger.Debug("relaying workflow event from unknown node",
			"node", event.Node,
			"known_nodes", domain.WorkflowNodes,
		)
	}

	report, err := h.publisher.Publish(r.Context(), event)
	if errors.Is(err, context.Canceled) {
		h.logger.Debug("ingest client went away before publish",
			"node", event.Node,
			"status", event.Status,
		)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if err != nil {
		h.logger.Error("publish workflow event failed",
			"node", event.Node,
			"status", event.Status,
			"error", err,
		)
		metrics.IncIngest(metrics.IngestServerError)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	metrics.IncIngest(metrics.IngestAccepted)
	h.logger.Info("workflow event relayed",
		"node", event.Node,
		"status", event.Status,
		"subscribers", len(report.Deliveries),
		"delivered", report.Delivered(),
	)

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// missingField treats absent, null and empty-string values as missing.
func missingField(obj map[string]any, key string) bool {
	v, ok := obj[key]
	if !ok || v == nil {
		return true
	}
	s, isString := v.(string)
	return isString && s == ""
}

func workflowEventsPreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Workflow-Secret")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.WriteHeader(http.StatusNoContent)
}

type streamHandler struct {
	registry  *relay.Registry
	keepAlive time.Duration
	buffer    int
	done      <-chan struct{}
	logger    *slog.Logger
}

func (h *streamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := h.registry.Subscribe(h.buffer)
	if err != nil {
		if errors.Is(err, relay.ErrRegistryFull) {
			h.logger.Warn("stream subscriber rejected", "error", err)
			http.Error(w, "too many subscribers", http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("stream subscribe failed", "error", err)
		http.Error(w, "failed to open stream", http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	h.logger.Debug("stream subscriber connected", "subscriber_id", sub.ID)

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache, no-transform")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("Access-Control-Allow-Origin", "*")
	hdr.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(relay.ConnectedFrame); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("stream subscriber disconnected", "subscriber_id", sub.ID)
			return
		case <-h.done:
			return
		case frame, ok := <-sub.Frames():
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			_, _ = w.Write(relay.KeepAliveFrame)
			flusher.Flush()
		}
	}
}
