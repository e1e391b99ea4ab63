// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// WorkflowEventType is the fixed discriminator carried by every relayed event.
const WorkflowEventType = "workflow:event"

// TimestampLayout matches JavaScript's Date.toISOString output.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type WorkflowStatus string

const (
	WorkflowPending WorkflowStatus = "pending"
	WorkflowRunning WorkflowStatus = "running"
	WorkflowSuccess WorkflowStatus = "success"
	WorkflowError   WorkflowStatus = "error"
)

// Known reports whether s belongs to the status vocabulary the UI renders.
func (s WorkflowStatus) Known() bool {
	switch s {
	case WorkflowPending, WorkflowRunning, WorkflowSuccess, WorkflowError:
		return true
	default:
		return false
	}
}

// Nodes reported by the legal-document workflow, in execution order.
const (
	NodeExtractPDF     = "extract_pdf"
	NodeDetermineCrime = "determine_crime"
	NodeChooseLawyer   = "choose_lawyer"
	NodeEmailUser      = "email_user"
)

var WorkflowNodes = []string{
	NodeExtractPDF,
	NodeDetermineCrime,
	NodeChooseLawyer,
	NodeEmailUser,
}

// KnownNode reports whether node is one of WorkflowNodes. Other nodes are
// still relayed.
func KnownNode(node string) bool {
	return slices.Contains(WorkflowNodes, node)
}

// WorkflowEvent is the wire shape pushed to stream clients. Field order is
// the order clients see on the wire.
type WorkflowEvent struct {
	Type        string          `json:"type"`
	ExecutionID *string         `json:"executionId"`
	Node        string          `json:"node"`
	Status      WorkflowStatus  `json:"status"`
	Timestamp   string          `json:"timestamp"`
	Data        json.RawMessage `json:"data"`
}

type WorkflowEventParams struct {
	ExecutionID *string
	Node        string
	Status      string
	Timestamp   string
	Data        json.RawMessage
}

// NewWorkflowEvent validates params and fills defaults: a nil execution id
// stays null, an empty timestamp becomes now, and absent or JSON-null data
// becomes null.
func NewWorkflowEvent(params WorkflowEventParams, now time.Time) (WorkflowEvent, error) {
	if params.Node == "" || params.Status == "" {
		return WorkflowEvent{}, ErrMissingEventFields
	}

	ts := params.Timestamp
	if ts == "" {
		ts = FormatTimestamp(now)
	}

	data := params.Data
	if len(data) == 0 || strings.TrimSpace(string(data)) == "null" {
		data = nil
	}

	return WorkflowEvent{
		Type:        WorkflowEventType,
		ExecutionID: params.ExecutionID,
		Node:        params.Node,
		Status:      WorkflowStatus(params.Status),
		Timestamp:   ts,
		Data:        data,
	}, nil
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
